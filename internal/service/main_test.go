package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Swapica/order-proxy-svc/internal/asset"
	"github.com/Swapica/order-proxy-svc/internal/calldata"
	"github.com/Swapica/order-proxy-svc/internal/config"
	"github.com/Swapica/order-proxy-svc/internal/metrics"
	"github.com/Swapica/order-proxy-svc/internal/orderproxy"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"gitlab.com/distributed_lab/logan/v3"
)

var (
	engineAddr = common.HexToAddress("0x00000000000000000000000000000000000000e0")
	venueAddr  = common.HexToAddress("0x11111254369792b2Ca5d084aB5eEA397cA8fa48B")
	dai        = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	weth       = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	alice      = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob        = common.HexToAddress("0x00000000000000000000000000000000000000b0")
)

func engineConfig() config.Engine {
	return config.Engine{
		Address:         engineAddr,
		Exchange:        venueAddr,
		WrappedNative:   weth,
		NativeAliases:   []common.Address{{}},
		Policy:          config.PolicyFixedReward,
		MinCompensation: asset.Ether("0.01"),
	}
}

func ledgerConfig() config.Ledger {
	return config.Ledger{
		Genesis: []config.Allocation{
			{Owner: alice, Token: asset.NativeSentinel, Amount: asset.Ether("100")},
			{Owner: venueAddr, Token: common.Address{}, Amount: asset.Ether("1000")},
			{Owner: venueAddr, Token: dai, Amount: asset.Ether("1000000")},
		},
		Rates: []config.Rate{
			{Src: asset.NativeSentinel, Dst: dai, Num: uint256.NewInt(600), Den: uint256.NewInt(1)},
			{Src: dai, Dst: asset.NativeSentinel, Num: uint256.NewInt(1), Den: uint256.NewInt(600)},
		},
	}
}

type fixture struct {
	t       *testing.T
	sandbox *sandbox
	metrics *metrics.Metrics
	server  *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	m := metrics.New("test")
	sb, err := newSandbox(engineConfig(), ledgerConfig(), nil, logan.New(), orderproxy.WithObserver(m))
	require.NoError(t, err)

	a := &api{
		log:      logan.New(),
		engine:   sb.engine,
		ledger:   sb.ledger,
		resolver: sb.resolver,
		shapes:   sb.decoder.Shapes(),
		metrics:  m,
	}
	srv := httptest.NewServer(a.router())
	t.Cleanup(srv.Close)

	return &fixture{t: t, sandbox: sb, metrics: m, server: srv}
}

func (f *fixture) do(method, path string, body interface{}, dst interface{}) int {
	var reader bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&reader).Encode(body))
	}
	req, err := http.NewRequest(method, f.server.URL+path, &reader)
	require.NoError(f.t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(f.t, err)
	defer resp.Body.Close()

	if dst != nil {
		require.NoError(f.t, json.NewDecoder(resp.Body).Decode(dst))
	}
	return resp.StatusCode
}

// nativeOrder posts the ETH to DAI order: 2 ETH for at least 1000 DAI with a
// 0.05 ETH reward.
func (f *fixture) nativeOrder() orderView {
	var view orderView
	status := f.do(http.MethodPost, "/orders", map[string]interface{}{
		"caller":     alice,
		"src_token":  asset.NativeSentinel,
		"dst_token":  dai,
		"src_amount": asset.Ether("2").Dec(),
		"min_return": asset.Ether("1000").Dec(),
		"period":     3600,
		"value":      asset.Ether("2.05").Dec(),
	}, &view)
	require.Equal(f.t, http.StatusCreated, status)
	return view
}

func (f *fixture) routerPayload(beneficiary common.Address) []byte {
	payload, err := calldata.EncodeAggregationRouterSwap(bob, calldata.SwapDescription{
		SrcToken:        asset.NativeSentinel,
		DstToken:        dai,
		SrcReceiver:     venueAddr,
		DstReceiver:     beneficiary,
		Amount:          asset.Ether("2").ToBig(),
		MinReturnAmount: asset.Ether("1000").ToBig(),
	}, nil)
	require.NoError(f.t, err)
	return payload
}
