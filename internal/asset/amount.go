package asset

import (
	"math/big"
	"strings"

	"github.com/holiman/uint256"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

var (
	ErrOverflow  = errors.New("amount overflows 256 bits")
	ErrUnderflow = errors.New("amount underflow")
)

// Zero returns a fresh zero amount.
func Zero() *uint256.Int {
	return new(uint256.Int)
}

// FromBig converts an ABI-decoded or user supplied integer. Negative values and
// values wider than 256 bits are rejected.
func FromBig(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return Zero(), nil
	}
	if v.Sign() < 0 {
		return nil, errors.From(ErrUnderflow, logan.F{"value": v.String()})
	}
	res, overflow := uint256.FromBig(v)
	if overflow {
		return nil, errors.From(ErrOverflow, logan.F{"value": v.String()})
	}
	return res, nil
}

// Parse reads a base-10 or 0x-prefixed amount.
func Parse(s string) (*uint256.Int, error) {
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}
	v, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, errors.From(errors.New("malformed amount"), logan.F{"value": s})
	}
	return FromBig(v)
}

func MustParse(s string) *uint256.Int {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func Add(a, b *uint256.Int) (*uint256.Int, error) {
	res, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, errors.From(ErrOverflow, logan.F{"a": a.Dec(), "b": b.Dec()})
	}
	return res, nil
}

func Sub(a, b *uint256.Int) (*uint256.Int, error) {
	res, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return nil, errors.From(ErrUnderflow, logan.F{"a": a.Dec(), "b": b.Dec()})
	}
	return res, nil
}

func Mul(a, b *uint256.Int) (*uint256.Int, error) {
	res, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, errors.From(ErrOverflow, logan.F{"a": a.Dec(), "b": b.Dec()})
	}
	return res, nil
}

func Min(a, b *uint256.Int) *uint256.Int {
	if a.Lt(b) {
		return a.Clone()
	}
	return b.Clone()
}

// Ether converts a decimal ether amount like "0.05" into wei.
func Ether(s string) *uint256.Int {
	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if len(frac) > 18 {
		panic("too many decimals in ether amount " + s)
	}
	if whole == "" {
		whole = "0"
	}
	return MustParse(whole + frac + strings.Repeat("0", 18-len(frac)))
}
