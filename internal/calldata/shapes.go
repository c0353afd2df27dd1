package calldata

import (
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// AggregationRouterV2ABI holds the aggregation router entry point. Output goes
// to desc.dstReceiver.
const AggregationRouterV2ABI = `[{
	"name": "swap",
	"type": "function",
	"stateMutability": "payable",
	"inputs": [
		{"name": "caller", "type": "address"},
		{"name": "desc", "type": "tuple", "components": [
			{"name": "srcToken", "type": "address"},
			{"name": "dstToken", "type": "address"},
			{"name": "srcReceiver", "type": "address"},
			{"name": "dstReceiver", "type": "address"},
			{"name": "amount", "type": "uint256"},
			{"name": "minReturnAmount", "type": "uint256"},
			{"name": "flags", "type": "uint256"},
			{"name": "permit", "type": "bytes"}
		]},
		{"name": "calls", "type": "tuple[]", "components": [
			{"name": "targetWithMandatory", "type": "uint256"},
			{"name": "gasLimit", "type": "uint256"},
			{"name": "value", "type": "uint256"},
			{"name": "data", "type": "bytes"}
		]}
	],
	"outputs": [{"name": "returnAmount", "type": "uint256"}]
}]`

// OneSplitABI holds the split-exchange entry point. It has no receiver: output
// goes back to the caller.
const OneSplitABI = `[{
	"name": "swap",
	"type": "function",
	"stateMutability": "payable",
	"inputs": [
		{"name": "fromToken", "type": "address"},
		{"name": "destToken", "type": "address"},
		{"name": "amount", "type": "uint256"},
		{"name": "minReturn", "type": "uint256"},
		{"name": "distribution", "type": "uint256[]"},
		{"name": "flags", "type": "uint256"}
	],
	"outputs": [{"name": "returnAmount", "type": "uint256"}]
}]`

// UniswapV2RouterABI holds the exact-input swaps of a V2 style router.
const UniswapV2RouterABI = `[
{
	"name": "swapExactETHForTokens",
	"type": "function",
	"stateMutability": "payable",
	"inputs": [
		{"name": "amountOutMin", "type": "uint256"},
		{"name": "path", "type": "address[]"},
		{"name": "to", "type": "address"},
		{"name": "deadline", "type": "uint256"}
	],
	"outputs": [{"name": "amounts", "type": "uint256[]"}]
},
{
	"name": "swapExactTokensForETH",
	"type": "function",
	"stateMutability": "nonpayable",
	"inputs": [
		{"name": "amountIn", "type": "uint256"},
		{"name": "amountOutMin", "type": "uint256"},
		{"name": "path", "type": "address[]"},
		{"name": "to", "type": "address"},
		{"name": "deadline", "type": "uint256"}
	],
	"outputs": [{"name": "amounts", "type": "uint256[]"}]
},
{
	"name": "swapExactTokensForTokens",
	"type": "function",
	"stateMutability": "nonpayable",
	"inputs": [
		{"name": "amountIn", "type": "uint256"},
		{"name": "amountOutMin", "type": "uint256"},
		{"name": "path", "type": "address[]"},
		{"name": "to", "type": "address"},
		{"name": "deadline", "type": "uint256"}
	],
	"outputs": [{"name": "amounts", "type": "uint256[]"}]
}]`

// Shape names, also used as labels in logs and metrics.
const (
	ShapeAggregationRouterV2      = "aggregation_router_v2.swap"
	ShapeOneSplit                 = "one_split.swap"
	ShapeSwapExactETHForTokens    = "uniswap_v2.swapExactETHForTokens"
	ShapeSwapExactTokensForETH    = "uniswap_v2.swapExactTokensForETH"
	ShapeSwapExactTokensForTokens = "uniswap_v2.swapExactTokensForTokens"
)

type extractor func(d *Decoder, args []interface{}) (Terms, error)

type shape struct {
	name    string
	method  abi.Method
	extract extractor
}

func mustParse(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(errors.Wrap(err, "failed to parse exchange ABI"))
	}
	return parsed
}

func defaultShapes() []shape {
	return []shape{
		{name: ShapeAggregationRouterV2, method: routerABI.Methods["swap"], extract: extractAggregationRouter},
		{name: ShapeOneSplit, method: splitABI.Methods["swap"], extract: extractOneSplit},
		{name: ShapeSwapExactETHForTokens, method: uniABI.Methods["swapExactETHForTokens"], extract: extractExactETHForTokens},
		{name: ShapeSwapExactTokensForETH, method: uniABI.Methods["swapExactTokensForETH"], extract: extractExactTokensForETH},
		{name: ShapeSwapExactTokensForTokens, method: uniABI.Methods["swapExactTokensForTokens"], extract: extractExactTokensForTokens},
	}
}

func extractAggregationRouter(d *Decoder, args []interface{}) (Terms, error) {
	desc := args[1]
	src, err := addressField(desc, "SrcToken")
	if err != nil {
		return Terms{}, err
	}
	dst, err := addressField(desc, "DstToken")
	if err != nil {
		return Terms{}, err
	}
	receiver, err := addressField(desc, "DstReceiver")
	if err != nil {
		return Terms{}, err
	}
	amount, err := uintField(desc, "Amount")
	if err != nil {
		return Terms{}, err
	}
	minReturn, err := uintField(desc, "MinReturnAmount")
	if err != nil {
		return Terms{}, err
	}

	return d.terms(src, dst, &receiver, amount, minReturn)
}

func extractOneSplit(d *Decoder, args []interface{}) (Terms, error) {
	src, ok := args[0].(common.Address)
	if !ok {
		return Terms{}, errMalformedArgument("fromToken")
	}
	dst, ok := args[1].(common.Address)
	if !ok {
		return Terms{}, errMalformedArgument("destToken")
	}
	amount, ok := args[2].(*big.Int)
	if !ok {
		return Terms{}, errMalformedArgument("amount")
	}
	minReturn, ok := args[3].(*big.Int)
	if !ok {
		return Terms{}, errMalformedArgument("minReturn")
	}

	return d.terms(src, dst, nil, amount, minReturn)
}

func extractExactETHForTokens(d *Decoder, args []interface{}) (Terms, error) {
	minReturn, ok := args[0].(*big.Int)
	if !ok {
		return Terms{}, errMalformedArgument("amountOutMin")
	}
	first, last, err := pathEnds(args[1])
	if err != nil {
		return Terms{}, err
	}
	if first != d.wrappedNative {
		return Terms{}, errors.From(ErrShapeUnrecognized, logan.F{
			"reason":     "path must start with the wrapped native coin",
			"path_start": first.Hex(),
		})
	}
	to, ok := args[2].(common.Address)
	if !ok {
		return Terms{}, errMalformedArgument("to")
	}

	// amount travels as call value, which is always the escrowed amount
	return d.terms(d.resolver.Native(), last, &to, nil, minReturn)
}

func extractExactTokensForETH(d *Decoder, args []interface{}) (Terms, error) {
	amount, minReturn, first, last, to, err := exactTokensArgs(args)
	if err != nil {
		return Terms{}, err
	}
	if last != d.wrappedNative {
		return Terms{}, errors.From(ErrShapeUnrecognized, logan.F{
			"reason":   "path must end with the wrapped native coin",
			"path_end": last.Hex(),
		})
	}

	return d.terms(first, d.resolver.Native(), &to, amount, minReturn)
}

func extractExactTokensForTokens(d *Decoder, args []interface{}) (Terms, error) {
	amount, minReturn, first, last, to, err := exactTokensArgs(args)
	if err != nil {
		return Terms{}, err
	}

	return d.terms(first, last, &to, amount, minReturn)
}

func exactTokensArgs(args []interface{}) (amount, minReturn *big.Int, first, last, to common.Address, err error) {
	var ok bool
	if amount, ok = args[0].(*big.Int); !ok {
		err = errMalformedArgument("amountIn")
		return
	}
	if minReturn, ok = args[1].(*big.Int); !ok {
		err = errMalformedArgument("amountOutMin")
		return
	}
	if first, last, err = pathEnds(args[2]); err != nil {
		return
	}
	if to, ok = args[3].(common.Address); !ok {
		err = errMalformedArgument("to")
	}
	return
}

func pathEnds(arg interface{}) (common.Address, common.Address, error) {
	path, ok := arg.([]common.Address)
	if !ok {
		return common.Address{}, common.Address{}, errMalformedArgument("path")
	}
	if len(path) < 2 {
		return common.Address{}, common.Address{}, errors.From(ErrShapeUnrecognized, logan.F{
			"reason":      "swap path is too short",
			"path_length": len(path),
		})
	}
	return path[0], path[len(path)-1], nil
}

func addressField(v interface{}, name string) (common.Address, error) {
	f, err := structField(v, name)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := f.Interface().(common.Address)
	if !ok {
		return common.Address{}, errMalformedArgument(name)
	}
	return addr, nil
}

func uintField(v interface{}, name string) (*big.Int, error) {
	f, err := structField(v, name)
	if err != nil {
		return nil, err
	}
	n, ok := f.Interface().(*big.Int)
	if !ok {
		return nil, errMalformedArgument(name)
	}
	return n, nil
}

// structField reads a tuple component from the anonymous struct the ABI
// decoder builds; components are named after abi.ToCamelCase of their ABI name.
func structField(v interface{}, name string) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, errMalformedArgument(name)
	}
	f := rv.FieldByName(name)
	if !f.IsValid() {
		return reflect.Value{}, errMalformedArgument(name)
	}
	return f, nil
}

func errMalformedArgument(name string) error {
	return errors.From(ErrShapeUnrecognized, logan.F{
		"reason":   "malformed argument",
		"argument": name,
	})
}
