package orderproxy

import (
	"context"

	"github.com/Swapica/order-proxy-svc/internal/asset"
	"github.com/Swapica/order-proxy-svc/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// Custody is what the engine must be holding given its pending orders.
type Custody struct {
	// Native is native escrow plus every pending compensation plus the pool.
	Native        *uint256.Int
	NativeBalance *uint256.Int
	Tokens        map[common.Address]*uint256.Int
	TokenBalances map[common.Address]*uint256.Int
	Pool          *uint256.Int
	Pending       int
}

// Pool is the unused compensation retained from gas-capped executions.
func (e *Engine) Pool() *uint256.Int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pool.Clone()
}

func (e *Engine) retain(amount *uint256.Int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pool.Add(e.pool, amount)
}

// CheckCustody compares the engine's holdings against its pending orders.
// Native custody must match exactly; a token may only be held in excess.
func (e *Engine) CheckCustody(ctx context.Context) (Custody, error) {
	var c Custody
	// an empty unit gives a view consistent with the order table
	err := e.ledger.Atomic(ctx, func(tx *ledger.Tx) error {
		var err error
		c, err = e.custody(tx)
		return err
	})
	if err != nil {
		return Custody{}, err
	}

	if !c.Native.Eq(c.NativeBalance) {
		return c, errors.From(ErrCustodyMismatch, logan.F{
			"asset":    e.resolver.Native().Hex(),
			"expected": c.Native.Dec(),
			"balance":  c.NativeBalance.Dec(),
		})
	}
	for token, expected := range c.Tokens {
		if balance := c.TokenBalances[token]; balance.Lt(expected) {
			return c, errors.From(ErrCustodyMismatch, logan.F{
				"asset":    token.Hex(),
				"expected": expected.Dec(),
				"balance":  balance.Dec(),
			})
		}
	}
	return c, nil
}

func (e *Engine) custody(tx *ledger.Tx) (Custody, error) {
	c := Custody{
		Native:        e.Pool(),
		Tokens:        make(map[common.Address]*uint256.Int),
		TokenBalances: make(map[common.Address]*uint256.Int),
		Pool:          e.Pool(),
	}
	c.NativeBalance = tx.NativeBalance(e.address)

	var err error
	for _, o := range e.orders.Pending() {
		c.Pending++
		if c.Native, err = asset.Add(c.Native, o.Compensation); err != nil {
			return Custody{}, errors.Wrap(err, "failed to sum compensation", logan.F{"order_id": o.ID})
		}

		if e.resolver.IsNative(o.SrcToken) {
			if c.Native, err = asset.Add(c.Native, o.SrcAmount); err != nil {
				return Custody{}, errors.Wrap(err, "failed to sum native escrow", logan.F{"order_id": o.ID})
			}
			continue
		}

		sum, ok := c.Tokens[o.SrcToken]
		if !ok {
			sum = asset.Zero()
			c.TokenBalances[o.SrcToken] = tx.TokenBalance(o.SrcToken, e.address)
		}
		if c.Tokens[o.SrcToken], err = asset.Add(sum, o.SrcAmount); err != nil {
			return Custody{}, errors.Wrap(err, "failed to sum token escrow", logan.F{"order_id": o.ID})
		}
	}
	return c, nil
}
