package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const (
	TxBaseGas       uint64 = 21000
	CallGas         uint64 = 2600
	CalldataByteGas uint64 = 16
	BalanceWriteGas uint64 = 5000
	LogGas          uint64 = 375
)

var errBalanceOverflow = errors.New("balance overflow")

// Contract is code living at a ledger address. It runs inside the caller's
// unit of work and may move value through tx.
type Contract interface {
	Call(tx *Tx, msg Message) ([]byte, error)
}

type Message struct {
	From  common.Address
	To    common.Address
	Value *uint256.Int
	Data  []byte
}

type Log struct {
	Seq       uint64
	Address   common.Address
	Name      string
	Timestamp uint64
	Data      interface{}
}

// Tx is the view of the ledger inside one Atomic unit. It is not safe to
// retain it after the unit returns.
type Tx struct {
	l     *Ledger
	now   uint64
	undo  []func()
	logs  []Log
	gas   uint64
	depth int

	commits []func()
}

type checkpoint struct {
	undo    int
	logs    int
	commits int
}

// Now is the timestamp of the unit, constant for its whole duration.
func (tx *Tx) Now() uint64 {
	return tx.now
}

// GasUsed is the metered cost of the unit so far. Reverted nested calls still
// count.
func (tx *Tx) GasUsed() uint64 {
	return tx.gas
}

func (tx *Tx) NativeBalance(owner common.Address) *uint256.Int {
	return tx.l.nativeOf(owner).Clone()
}

func (tx *Tx) TokenBalance(token, owner common.Address) *uint256.Int {
	return tx.l.tokenOf(holding{token: token, owner: owner}).Clone()
}

func (tx *Tx) Allowance(token, owner, spender common.Address) *uint256.Int {
	return tx.l.allowanceOf(allowance{token: token, owner: owner, spender: spender}).Clone()
}

func (tx *Tx) TransferNative(from, to common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	fromBalance := tx.l.nativeOf(from)
	if fromBalance.Lt(amount) {
		return errors.From(ErrInsufficientBalance, logan.F{
			"owner":   from.Hex(),
			"balance": fromBalance.Dec(),
			"amount":  amount.Dec(),
		})
	}
	if from == to {
		return nil
	}
	toBalance, overflow := new(uint256.Int).AddOverflow(tx.l.nativeOf(to), amount)
	if overflow {
		return errors.From(errBalanceOverflow, logan.F{"owner": to.Hex()})
	}

	tx.setNative(from, new(uint256.Int).Sub(fromBalance, amount))
	tx.setNative(to, toBalance)
	return nil
}

func (tx *Tx) TransferToken(token, from, to common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	fromKey, toKey := holding{token: token, owner: from}, holding{token: token, owner: to}
	fromBalance := tx.l.tokenOf(fromKey)
	if fromBalance.Lt(amount) {
		return errors.From(ErrInsufficientBalance, logan.F{
			"token":   token.Hex(),
			"owner":   from.Hex(),
			"balance": fromBalance.Dec(),
			"amount":  amount.Dec(),
		})
	}
	if from == to {
		return nil
	}
	toBalance, overflow := new(uint256.Int).AddOverflow(tx.l.tokenOf(toKey), amount)
	if overflow {
		return errors.From(errBalanceOverflow, logan.F{"token": token.Hex(), "owner": to.Hex()})
	}

	tx.setToken(fromKey, new(uint256.Int).Sub(fromBalance, amount))
	tx.setToken(toKey, toBalance)
	return nil
}

// TransferTokenFrom moves owner's tokens on behalf of spender, consuming the
// allowance owner granted to spender.
func (tx *Tx) TransferTokenFrom(token, spender, from, to common.Address, amount *uint256.Int) error {
	key := allowance{token: token, owner: from, spender: spender}
	allowed := tx.l.allowanceOf(key)
	if allowed.Lt(amount) {
		return errors.From(ErrInsufficientAllowance, logan.F{
			"token":     token.Hex(),
			"owner":     from.Hex(),
			"spender":   spender.Hex(),
			"allowance": allowed.Dec(),
			"amount":    amount.Dec(),
		})
	}
	if err := tx.TransferToken(token, from, to, amount); err != nil {
		return err
	}
	tx.setAllowance(key, new(uint256.Int).Sub(allowed, amount))
	return nil
}

func (tx *Tx) Approve(token, owner, spender common.Address, amount *uint256.Int) {
	tx.setAllowance(allowance{token: token, owner: owner, spender: spender}, amount.Clone())
}

// Call transfers msg.Value to msg.To and runs the contract deployed there. A
// failing call is reverted up to its own start and the error is returned to
// the caller, who decides whether the whole unit fails.
func (tx *Tx) Call(msg Message) ([]byte, error) {
	c, ok := tx.l.contracts[msg.To]
	if !ok {
		return nil, errors.From(ErrNoContract, logan.F{"address": msg.To.Hex()})
	}
	if tx.depth >= maxCallDepth {
		return nil, ErrCallDepth
	}
	tx.gas += CallGas + uint64(len(msg.Data))*CalldataByteGas

	cp := tx.checkpoint()
	if msg.Value != nil {
		if err := tx.TransferNative(msg.From, msg.To, msg.Value); err != nil {
			tx.revertTo(cp)
			return nil, errors.Wrap(err, "failed to transfer call value")
		}
	}

	tx.depth++
	out, err := c.Call(tx, msg)
	tx.depth--
	if err != nil {
		tx.revertTo(cp)
		return nil, errors.Wrap(err, "call reverted", logan.F{"address": msg.To.Hex()})
	}
	return out, nil
}

func (tx *Tx) Emit(emitter common.Address, name string, data interface{}) {
	tx.gas += LogGas
	tx.logs = append(tx.logs, Log{
		Address:   emitter,
		Name:      name,
		Timestamp: tx.now,
		Data:      data,
	})
}

// OnCommit registers fn to run after the unit commits, still under the ledger
// lock. Callers keep state outside the ledger in step with it this way.
func (tx *Tx) OnCommit(fn func()) {
	tx.commits = append(tx.commits, fn)
}

func (tx *Tx) setNative(owner common.Address, v *uint256.Int) {
	prev, existed := tx.l.native[owner]
	tx.undo = append(tx.undo, func() {
		if existed {
			tx.l.native[owner] = prev
		} else {
			delete(tx.l.native, owner)
		}
	})
	tx.gas += BalanceWriteGas
	tx.l.native[owner] = v
}

func (tx *Tx) setToken(key holding, v *uint256.Int) {
	prev, existed := tx.l.tokens[key]
	tx.undo = append(tx.undo, func() {
		if existed {
			tx.l.tokens[key] = prev
		} else {
			delete(tx.l.tokens, key)
		}
	})
	tx.gas += BalanceWriteGas
	tx.l.tokens[key] = v
}

func (tx *Tx) setAllowance(key allowance, v *uint256.Int) {
	prev, existed := tx.l.allowances[key]
	tx.undo = append(tx.undo, func() {
		if existed {
			tx.l.allowances[key] = prev
		} else {
			delete(tx.l.allowances, key)
		}
	})
	tx.gas += BalanceWriteGas
	tx.l.allowances[key] = v
}

func (tx *Tx) checkpoint() checkpoint {
	return checkpoint{undo: len(tx.undo), logs: len(tx.logs), commits: len(tx.commits)}
}

func (tx *Tx) revertTo(cp checkpoint) {
	for i := len(tx.undo) - 1; i >= cp.undo; i-- {
		tx.undo[i]()
	}
	tx.undo = tx.undo[:cp.undo]
	tx.logs = tx.logs[:cp.logs]
	tx.commits = tx.commits[:cp.commits]
}
