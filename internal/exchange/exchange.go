// Package exchange is a sandbox swap venue living on the ledger. It accepts
// every payload shape the order engine can verify and fills at fixed rates out
// of its own liquidity.
package exchange

import (
	"sync"

	"github.com/Swapica/order-proxy-svc/internal/asset"
	"github.com/Swapica/order-proxy-svc/internal/calldata"
	"github.com/Swapica/order-proxy-svc/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

var (
	ErrNoRate             = errors.New("no rate for pair")
	ErrInsufficientOutput = errors.New("insufficient output amount")
	ErrValueMismatch      = errors.New("call value does not match swap amount")
)

const maxSkimBps = 10000

type pair struct {
	src common.Address
	dst common.Address
}

// Rate converts src into dst as amount * Num / Den.
type Rate struct {
	Num *uint256.Int
	Den *uint256.Int
}

type Exchange struct {
	log      *logan.Entry
	address  common.Address
	decoder  *calldata.Decoder
	resolver asset.Resolver

	mu    sync.RWMutex
	rates map[pair]Rate
	skim  uint64
}

func New(address common.Address, decoder *calldata.Decoder, resolver asset.Resolver, log *logan.Entry) *Exchange {
	return &Exchange{
		log:      log.WithField("exchange", address.Hex()),
		address:  address,
		decoder:  decoder,
		resolver: resolver,
		rates:    make(map[pair]Rate),
	}
}

func (x *Exchange) Address() common.Address {
	return x.address
}

func (x *Exchange) SetRate(src, dst common.Address, rate Rate) error {
	if rate.Num == nil || rate.Den == nil || rate.Den.IsZero() {
		return errors.New("rate denominator must be positive")
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.rates[pair{src: x.resolver.Canonical(src), dst: x.resolver.Canonical(dst)}] = rate
	return nil
}

// SetSkim makes the exchange withhold bps basis points of every output after
// it has checked the promised minimum, like a venue that does not honor its
// own guarantee.
func (x *Exchange) SetSkim(bps uint64) error {
	if bps > maxSkimBps {
		return errors.From(errors.New("skim is above 100%"), logan.F{"bps": bps})
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.skim = bps
	return nil
}

// Quote is the output an honest fill of amount would produce.
func (x *Exchange) Quote(src, dst common.Address, amount *uint256.Int) (*uint256.Int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.quote(x.resolver.Canonical(src), x.resolver.Canonical(dst), amount)
}

func (x *Exchange) quote(src, dst common.Address, amount *uint256.Int) (*uint256.Int, error) {
	rate, ok := x.rates[pair{src: src, dst: dst}]
	if !ok {
		return nil, errors.From(ErrNoRate, logan.F{"src_token": src.Hex(), "dst_token": dst.Hex()})
	}
	out, err := asset.Mul(amount, rate.Num)
	if err != nil {
		return nil, errors.Wrap(err, "failed to apply rate")
	}
	return out.Div(out, rate.Den), nil
}

// Call implements ledger.Contract.
func (x *Exchange) Call(tx *ledger.Tx, msg ledger.Message) ([]byte, error) {
	terms, err := x.decoder.Decode(msg.Data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode swap")
	}

	value := msg.Value
	if value == nil {
		value = asset.Zero()
	}
	src, dst := x.resolver.Resolve(terms.SrcToken), x.resolver.Resolve(terms.DstToken)

	amount := terms.SrcAmount
	switch {
	case src.IsNative() && amount == nil:
		amount = value
	case src.IsNative() && !amount.Eq(value):
		return nil, errors.From(ErrValueMismatch, logan.F{"value": value.Dec(), "amount": amount.Dec()})
	case !src.IsNative() && !value.IsZero():
		return nil, errors.From(ErrValueMismatch, logan.F{"value": value.Dec(), "amount": "0"})
	case !src.IsNative():
		if err := src.TransferIn(tx, x.address, msg.From, amount); err != nil {
			return nil, errors.Wrap(err, "failed to take source")
		}
	}

	x.mu.RLock()
	out, err := x.quote(terms.SrcToken, terms.DstToken, amount)
	skim := x.skim
	x.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	if out.Lt(terms.MinReturn) {
		return nil, errors.From(ErrInsufficientOutput, logan.F{"out": out.Dec(), "min_return": terms.MinReturn.Dec()})
	}
	if skim > 0 {
		withheld := new(uint256.Int).Mul(out, uint256.NewInt(skim))
		out.Sub(out, withheld.Div(withheld, uint256.NewInt(maxSkimBps)))
	}

	receiver := msg.From
	if terms.Receiver != nil {
		receiver = *terms.Receiver
	}
	if err := dst.TransferOut(tx, x.address, receiver, out); err != nil {
		return nil, errors.Wrap(err, "failed to pay out", logan.F{"shape": terms.Shape})
	}

	x.log.WithFields(logan.F{
		"shape":    terms.Shape,
		"amount":   amount.Dec(),
		"out":      out.Dec(),
		"receiver": receiver.Hex(),
	}).Debug("swap filled")

	res := out.Bytes32()
	return res[:], nil
}
