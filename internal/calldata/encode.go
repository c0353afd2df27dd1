package calldata

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// SwapDescription mirrors the desc tuple of the aggregation router.
type SwapDescription struct {
	SrcToken        common.Address
	DstToken        common.Address
	SrcReceiver     common.Address
	DstReceiver     common.Address
	Amount          *big.Int
	MinReturnAmount *big.Int
	Flags           *big.Int
	Permit          []byte
}

// CallDescription mirrors one element of the router's calls argument.
type CallDescription struct {
	TargetWithMandatory *big.Int
	GasLimit            *big.Int
	Value               *big.Int
	Data                []byte
}

var (
	routerABI = mustParse(AggregationRouterV2ABI)
	splitABI  = mustParse(OneSplitABI)
	uniABI    = mustParse(UniswapV2RouterABI)
)

func EncodeAggregationRouterSwap(caller common.Address, desc SwapDescription, calls []CallDescription) ([]byte, error) {
	if desc.Flags == nil {
		desc.Flags = new(big.Int)
	}
	if desc.Permit == nil {
		desc.Permit = []byte{}
	}
	if calls == nil {
		calls = []CallDescription{}
	}
	data, err := routerABI.Pack("swap", caller, desc, calls)
	return data, errors.Wrap(err, "failed to pack router swap")
}

func EncodeOneSplitSwap(from, dest common.Address, amount, minReturn *big.Int, distribution []*big.Int, flags *big.Int) ([]byte, error) {
	if distribution == nil {
		distribution = []*big.Int{}
	}
	if flags == nil {
		flags = new(big.Int)
	}
	data, err := splitABI.Pack("swap", from, dest, amount, minReturn, distribution, flags)
	return data, errors.Wrap(err, "failed to pack split swap")
}

func EncodeSwapExactETHForTokens(amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	data, err := uniABI.Pack("swapExactETHForTokens", amountOutMin, path, to, deadline)
	return data, errors.Wrap(err, "failed to pack swapExactETHForTokens")
}

func EncodeSwapExactTokensForETH(amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	data, err := uniABI.Pack("swapExactTokensForETH", amountIn, amountOutMin, path, to, deadline)
	return data, errors.Wrap(err, "failed to pack swapExactTokensForETH")
}

func EncodeSwapExactTokensForTokens(amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	data, err := uniABI.Pack("swapExactTokensForTokens", amountIn, amountOutMin, path, to, deadline)
	return data, errors.Wrap(err, "failed to pack swapExactTokensForTokens")
}
