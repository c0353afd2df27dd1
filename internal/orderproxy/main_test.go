package orderproxy

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/Swapica/order-proxy-svc/internal/asset"
	"github.com/Swapica/order-proxy-svc/internal/calldata"
	"github.com/Swapica/order-proxy-svc/internal/data"
	"github.com/Swapica/order-proxy-svc/internal/data/mem"
	"github.com/Swapica/order-proxy-svc/internal/exchange"
	"github.com/Swapica/order-proxy-svc/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"gitlab.com/distributed_lab/logan/v3"
)

const period = 3600

var (
	engineAddr = common.HexToAddress("0x00000000000000000000000000000000000000e0")
	venueAddr  = common.HexToAddress("0x11111254369792b2Ca5d084aB5eEA397cA8fa48B")
	dai        = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	weth       = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	alice      = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob        = common.HexToAddress("0x00000000000000000000000000000000000000b0")
)

type env struct {
	t        *testing.T
	clock    *ledger.ManualClock
	ledger   *ledger.Ledger
	venue    *exchange.Exchange
	engine   *Engine
	observed *recorder
}

func newEnv(t *testing.T, policy CompensationPolicy) *env {
	resolver := asset.NewResolver(asset.NativeSentinel, common.Address{})
	decoder := calldata.NewDecoder(resolver, calldata.WithWrappedNative(weth))
	log := logan.New()

	clock := ledger.NewManualClock(time.Unix(1700000000, 0))
	l := ledger.New(ledger.WithClock(clock))

	venue := exchange.New(venueAddr, decoder, resolver, log)
	require.NoError(t, venue.SetRate(asset.NativeSentinel, dai, exchange.Rate{Num: uint256.NewInt(600), Den: uint256.NewInt(1)}))
	require.NoError(t, venue.SetRate(dai, asset.NativeSentinel, exchange.Rate{Num: uint256.NewInt(1), Den: uint256.NewInt(600)}))
	l.Deploy(venueAddr, venue)
	l.Mint(venueAddr, asset.Ether("1000"))
	l.MintToken(dai, venueAddr, asset.Ether("1000000"))

	l.Mint(alice, asset.Ether("100"))

	observed := &recorder{}
	engine, err := New(Config{
		Address:  engineAddr,
		Exchange: venueAddr,
		Resolver: resolver,
		Decoder:  decoder,
		Policy:   policy,
	}, l, mem.NewOrders(), log, WithObserver(observed))
	require.NoError(t, err)

	return &env{t: t, clock: clock, ledger: l, venue: venue, engine: engine, observed: observed}
}

func fixedReward() CompensationPolicy {
	return FixedReward{Min: asset.Ether("0.01")}
}

// nativeOrder creates the ETH to DAI order: 2 ETH for at least 1000 DAI with a
// 0.05 ETH reward.
func (e *env) nativeOrder() data.Order {
	o, err := e.engine.Create(context.Background(), CreateRequest{
		Caller:    alice,
		SrcToken:  asset.NativeSentinel,
		DstToken:  dai,
		SrcAmount: asset.Ether("2"),
		MinReturn: asset.Ether("1000"),
		Period:    period,
		Value:     asset.Ether("2.05"),
	})
	require.NoError(e.t, err)
	return o
}

func (e *env) approve(token, owner, spender common.Address, amount *uint256.Int) {
	require.NoError(e.t, e.ledger.Atomic(context.Background(), func(tx *ledger.Tx) error {
		tx.Approve(token, owner, spender, amount)
		return nil
	}))
}

// tokenOrder creates the DAI to ETH order: 2 DAI for at least 0.003 ETH with a
// 0.05 ETH reward.
func (e *env) tokenOrder() data.Order {
	e.ledger.MintToken(dai, alice, asset.Ether("10"))
	e.approve(dai, alice, engineAddr, asset.Ether("2"))
	o, err := e.engine.Create(context.Background(), CreateRequest{
		Caller:    alice,
		SrcToken:  dai,
		DstToken:  asset.NativeSentinel,
		SrcAmount: asset.Ether("2"),
		MinReturn: asset.Ether("0.003"),
		Period:    period,
		Value:     asset.Ether("0.05"),
	})
	require.NoError(e.t, err)
	return o
}

func swapDescription(o data.Order) calldata.SwapDescription {
	return calldata.SwapDescription{
		SrcToken:        o.SrcToken,
		DstToken:        o.DstToken,
		SrcReceiver:     venueAddr,
		DstReceiver:     o.Beneficiary,
		Amount:          o.SrcAmount.ToBig(),
		MinReturnAmount: o.MinReturnAmount.ToBig(),
	}
}

func (e *env) routerPayload(desc calldata.SwapDescription) []byte {
	payload, err := calldata.EncodeAggregationRouterSwap(bob, desc, nil)
	require.NoError(e.t, err)
	return payload
}

func (e *env) execute(id uint64, payload []byte) (Receipt, error) {
	return e.engine.Execute(context.Background(), ExecuteRequest{Executor: bob, ID: id, Payload: payload})
}

func (e *env) logNames() []string {
	var names []string
	for _, l := range e.ledger.Logs(0, 0) {
		names = append(names, l.Name)
	}
	return names
}

func deadline() *big.Int {
	return big.NewInt(1 << 40)
}

type recorder struct {
	mu        sync.Mutex
	created   int
	executed  int
	reclaimed int
	rejected  []string
}

func (r *recorder) Created(data.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created++
}

func (r *recorder) Executed(data.Order, Receipt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executed++
}

func (r *recorder) Reclaimed(data.Order, *uint256.Int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reclaimed++
}

func (r *recorder) Rejected(_ string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, Kind(err))
}
