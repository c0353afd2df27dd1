// Package asset puts native coin and fungible tokens behind one interface so
// the order engine never branches on the kind of asset it holds.
package asset

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// NativeSentinel is the address aggregators use for the native coin.
var NativeSentinel = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// Book is the balance-keeping surface of the execution substrate.
type Book interface {
	NativeBalance(owner common.Address) *uint256.Int
	TransferNative(from, to common.Address, amount *uint256.Int) error
	TokenBalance(token, owner common.Address) *uint256.Int
	TransferToken(token, from, to common.Address, amount *uint256.Int) error
	TransferTokenFrom(token, spender, from, to common.Address, amount *uint256.Int) error
	Approve(token, owner, spender common.Address, amount *uint256.Int)
}

type Asset interface {
	Address() common.Address
	IsNative() bool
	BalanceOf(b Book, owner common.Address) *uint256.Int
	// TransferIn moves amount from a depositor into custodian's hands. For
	// tokens the depositor must have approved custodian beforehand.
	TransferIn(b Book, custodian, from common.Address, amount *uint256.Int) error
	TransferOut(b Book, from, to common.Address, amount *uint256.Int) error
	// Approve grants spender the right to pull amount from owner. It is a no-op
	// for the native coin, which travels as call value instead.
	Approve(b Book, owner, spender common.Address, amount *uint256.Int)
}

// Resolver maps asset identifiers onto Asset implementations. Every alias of
// the native coin resolves to the same Native value.
type Resolver struct {
	native  common.Address
	aliases map[common.Address]struct{}
}

func NewResolver(native common.Address, aliases ...common.Address) Resolver {
	r := Resolver{native: native, aliases: make(map[common.Address]struct{})}
	for _, a := range aliases {
		r.aliases[a] = struct{}{}
	}
	return r
}

func (r Resolver) Resolve(addr common.Address) Asset {
	if r.IsNative(addr) {
		return Native{addr: r.native}
	}
	return Token{addr: addr}
}

func (r Resolver) IsNative(addr common.Address) bool {
	if addr == r.native {
		return true
	}
	_, ok := r.aliases[addr]
	return ok
}

// Canonical replaces native aliases with the native sentinel.
func (r Resolver) Canonical(addr common.Address) common.Address {
	if r.IsNative(addr) {
		return r.native
	}
	return addr
}

func (r Resolver) Native() common.Address {
	return r.native
}

type Native struct {
	addr common.Address
}

func (n Native) Address() common.Address { return n.addr }
func (n Native) IsNative() bool          { return true }

func (n Native) BalanceOf(b Book, owner common.Address) *uint256.Int {
	return b.NativeBalance(owner)
}

func (n Native) TransferIn(b Book, custodian, from common.Address, amount *uint256.Int) error {
	return errors.Wrap(b.TransferNative(from, custodian, amount), "failed to deposit native coin")
}

func (n Native) TransferOut(b Book, from, to common.Address, amount *uint256.Int) error {
	return errors.Wrap(b.TransferNative(from, to, amount), "failed to send native coin")
}

func (n Native) Approve(Book, common.Address, common.Address, *uint256.Int) {}

type Token struct {
	addr common.Address
}

func (t Token) Address() common.Address { return t.addr }
func (t Token) IsNative() bool          { return false }

func (t Token) BalanceOf(b Book, owner common.Address) *uint256.Int {
	return b.TokenBalance(t.addr, owner)
}

func (t Token) TransferIn(b Book, custodian, from common.Address, amount *uint256.Int) error {
	return errors.Wrap(b.TransferTokenFrom(t.addr, custodian, from, custodian, amount), "failed to pull token",
		logan.F{"token": t.addr.Hex()})
}

func (t Token) TransferOut(b Book, from, to common.Address, amount *uint256.Int) error {
	return errors.Wrap(b.TransferToken(t.addr, from, to, amount), "failed to send token", logan.F{"token": t.addr.Hex()})
}

func (t Token) Approve(b Book, owner, spender common.Address, amount *uint256.Int) {
	b.Approve(t.addr, owner, spender, amount)
}
