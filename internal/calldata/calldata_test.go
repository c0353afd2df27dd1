package calldata

import (
	"math/big"
	"testing"

	"github.com/Swapica/order-proxy-svc/internal/asset"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

var (
	dai         = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	uni         = common.HexToAddress("0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984")
	weth        = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	beneficiary = common.HexToAddress("0x2f71129b240080C638ac8d993BFF52169E3551c3")
	executor    = common.HexToAddress("0x00000000000000000000000000000000000000e1")
)

func newDecoder() *Decoder {
	return NewDecoder(asset.NewResolver(asset.NativeSentinel, common.Address{}), WithWrappedNative(weth))
}

func routerPayload(t *testing.T, desc SwapDescription) []byte {
	payload, err := EncodeAggregationRouterSwap(executor, desc, []CallDescription{{
		TargetWithMandatory: big.NewInt(1),
		GasLimit:            big.NewInt(100000),
		Value:               big.NewInt(0),
		Data:                []byte{0xde, 0xad, 0xbe, 0xef},
	}})
	require.NoError(t, err)
	return payload
}

func ethToDai(amount, minReturn int64) SwapDescription {
	return SwapDescription{
		SrcToken:        asset.NativeSentinel,
		DstToken:        dai,
		SrcReceiver:     executor,
		DstReceiver:     beneficiary,
		Amount:          big.NewInt(amount),
		MinReturnAmount: big.NewInt(minReturn),
	}
}

func commitment(amount, minReturn uint64) Commitment {
	return Commitment{
		SrcToken:    asset.NativeSentinel,
		DstToken:    dai,
		SrcAmount:   uint256.NewInt(amount),
		MinReturn:   uint256.NewInt(minReturn),
		Beneficiary: beneficiary,
	}
}

func TestDecodeAggregationRouter(t *testing.T) {
	terms, err := newDecoder().Decode(routerPayload(t, ethToDai(2000, 1000)))
	require.NoError(t, err)

	assert.Equal(t, ShapeAggregationRouterV2, terms.Shape)
	assert.Equal(t, asset.NativeSentinel, terms.SrcToken)
	assert.Equal(t, dai, terms.DstToken)
	require.NotNil(t, terms.Receiver)
	assert.Equal(t, beneficiary, *terms.Receiver)
	assert.Equal(t, uint64(2000), terms.SrcAmount.Uint64())
	assert.Equal(t, uint64(1000), terms.MinReturn.Uint64())
}

func TestDecodeOneSplitNativeAlias(t *testing.T) {
	payload, err := EncodeOneSplitSwap(common.Address{}, dai, big.NewInt(5), big.NewInt(7),
		[]*big.Int{big.NewInt(1), big.NewInt(0)}, nil)
	require.NoError(t, err)

	terms, err := newDecoder().Decode(payload)
	require.NoError(t, err)

	assert.Equal(t, ShapeOneSplit, terms.Shape)
	assert.Equal(t, asset.NativeSentinel, terms.SrcToken, "zero address is the native coin for split exchanges")
	assert.Nil(t, terms.Receiver)
	assert.Equal(t, uint64(5), terms.SrcAmount.Uint64())
}

func TestDecodeUniswapShapes(t *testing.T) {
	d := newDecoder()

	payload, err := EncodeSwapExactETHForTokens(big.NewInt(10), []common.Address{weth, uni, dai}, beneficiary, big.NewInt(1e10))
	require.NoError(t, err)
	terms, err := d.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, asset.NativeSentinel, terms.SrcToken)
	assert.Equal(t, dai, terms.DstToken)
	assert.Nil(t, terms.SrcAmount, "amount travels as call value")

	payload, err = EncodeSwapExactTokensForETH(big.NewInt(3), big.NewInt(10), []common.Address{dai, weth}, beneficiary, big.NewInt(1e10))
	require.NoError(t, err)
	terms, err = d.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, dai, terms.SrcToken)
	assert.Equal(t, asset.NativeSentinel, terms.DstToken)

	payload, err = EncodeSwapExactTokensForTokens(big.NewInt(3), big.NewInt(10), []common.Address{dai, uni}, beneficiary, big.NewInt(1e10))
	require.NoError(t, err)
	terms, err = d.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, ShapeSwapExactTokensForTokens, terms.Shape)
	assert.Equal(t, uni, terms.DstToken)
}

func TestDecodeRejectsUnknownShapes(t *testing.T) {
	d := newDecoder()
	valid := routerPayload(t, ethToDai(2000, 1000))

	unoswap := append([]byte{0x2e, 0x95, 0xb6, 0xc8}, valid[4:]...)
	cases := map[string][]byte{
		"empty":          nil,
		"short":          {0x7c, 0x02},
		"unknown":        unoswap,
		"truncated":      valid[:len(valid)-40],
		"trailing bytes": append(append([]byte{}, valid...), 0x01),
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := d.Decode(payload)
			require.Error(t, err)
			assert.Equal(t, ErrShapeUnrecognized, errors.Cause(err))
		})
	}
}

func TestDecodeRejectsPathNotStartingWithWrappedNative(t *testing.T) {
	payload, err := EncodeSwapExactETHForTokens(big.NewInt(10), []common.Address{uni, dai}, beneficiary, big.NewInt(1e10))
	require.NoError(t, err)

	_, err = newDecoder().Decode(payload)
	assert.Equal(t, ErrShapeUnrecognized, errors.Cause(err))
}

func TestVerify(t *testing.T) {
	d := newDecoder()

	t.Run("exact commitment", func(t *testing.T) {
		_, err := d.Verify(commitment(2000, 1000), routerPayload(t, ethToDai(2000, 1000)))
		assert.NoError(t, err)
	})

	t.Run("payload may promise more", func(t *testing.T) {
		_, err := d.Verify(commitment(2000, 1000), routerPayload(t, ethToDai(2000, 1500)))
		assert.NoError(t, err)
	})

	mismatches := map[string]func(*SwapDescription){
		"receiver":   func(s *SwapDescription) { s.DstReceiver = executor },
		"src amount": func(s *SwapDescription) { s.Amount = big.NewInt(1999) },
		"min return": func(s *SwapDescription) { s.MinReturnAmount = big.NewInt(999) },
		"src token":  func(s *SwapDescription) { s.SrcToken = weth },
		"dst token":  func(s *SwapDescription) { s.DstToken = uni },
	}
	for name, mutate := range mismatches {
		t.Run(name, func(t *testing.T) {
			desc := ethToDai(2000, 1000)
			mutate(&desc)

			_, err := d.Verify(commitment(2000, 1000), routerPayload(t, desc))
			require.Error(t, err)
			assert.Equal(t, ErrCommitmentMismatch, errors.Cause(err))
		})
	}

	t.Run("unrecognized shape is not a mismatch", func(t *testing.T) {
		_, err := d.Verify(commitment(2000, 1000), []byte{0xff, 0xff, 0xff, 0xff})
		assert.Equal(t, ErrShapeUnrecognized, errors.Cause(err))
	})

	t.Run("receiverless shape", func(t *testing.T) {
		payload, err := EncodeOneSplitSwap(asset.NativeSentinel, dai, big.NewInt(2000), big.NewInt(1000), nil, nil)
		require.NoError(t, err)
		terms, err := d.Verify(commitment(2000, 1000), payload)
		require.NoError(t, err)
		assert.Nil(t, terms.Receiver)
	})
}

func TestShapesListsEverySelector(t *testing.T) {
	shapes := newDecoder().Shapes()
	assert.Len(t, shapes, 5)
	assert.Equal(t, ShapeAggregationRouterV2, shapes["0x7c025200"])
}

func TestVerifyDoesNotTouchArguments(t *testing.T) {
	c := commitment(2000, 1000)
	_, err := newDecoder().Verify(c, routerPayload(t, ethToDai(2000, 1000)))
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), c.SrcAmount.Uint64())
	assert.Equal(t, uint64(1000), c.MinReturn.Uint64())
}
