// Package ledger is the execution substrate the order engine runs on: native
// coin and token balances, token allowances, deployed contracts, an append-only
// log and a clock. Every mutating unit of work runs through Atomic and is either
// committed as a whole or reverted as a whole.
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrNoContract            = errors.New("no contract deployed at address")
	ErrCallDepth             = errors.New("max call depth exceeded")
)

const maxCallDepth = 8

type holding struct {
	token common.Address
	owner common.Address
}

type allowance struct {
	token   common.Address
	owner   common.Address
	spender common.Address
}

type Ledger struct {
	mu    sync.Mutex
	id    uuid.UUID
	clock Clock

	native     map[common.Address]*uint256.Int
	tokens     map[holding]*uint256.Int
	allowances map[allowance]*uint256.Int
	contracts  map[common.Address]Contract
	logs       []Log
}

type Option func(*Ledger)

func WithClock(clock Clock) Option {
	return func(l *Ledger) {
		l.clock = clock
	}
}

func New(opts ...Option) *Ledger {
	l := &Ledger{
		id:         uuid.New(),
		clock:      SystemClock{},
		native:     make(map[common.Address]*uint256.Int),
		tokens:     make(map[holding]*uint256.Int),
		allowances: make(map[allowance]*uint256.Int),
		contracts:  make(map[common.Address]Contract),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ID identifies this ledger instance. Balances and logs live in memory, so log
// sequence numbers mean nothing outside the instance that produced them.
func (l *Ledger) ID() uuid.UUID {
	return l.id
}

// Deploy binds a contract to an address. Calls to the address are routed to it.
func (l *Ledger) Deploy(addr common.Address, c Contract) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.contracts[addr] = c
}

// Mint credits native coin out of thin air, used for genesis and tests.
func (l *Ledger) Mint(owner common.Address, amount *uint256.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.native[owner] = new(uint256.Int).Add(l.nativeOf(owner), amount)
}

func (l *Ledger) MintToken(token, owner common.Address, amount *uint256.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := holding{token: token, owner: owner}
	l.tokens[key] = new(uint256.Int).Add(l.tokenOf(key), amount)
}

// Atomic runs fn as one all-or-nothing unit. Units are serialized; if fn
// returns an error every mutation it made is undone and its logs are dropped.
func (l *Ledger) Atomic(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "context is done before execution")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx := &Tx{
		l:   l,
		now: uint64(l.clock.Now().Unix()),
		gas: TxBaseGas,
	}
	if err := fn(tx); err != nil {
		tx.revertTo(checkpoint{})
		return err
	}

	for i := range tx.logs {
		tx.logs[i].Seq = uint64(len(l.logs))
		l.logs = append(l.logs, tx.logs[i])
	}
	for _, commit := range tx.commits {
		commit()
	}
	return nil
}

func (l *Ledger) Now() uint64 {
	return uint64(l.clock.Now().Unix())
}

func (l *Ledger) NativeBalance(owner common.Address) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nativeOf(owner).Clone()
}

func (l *Ledger) TokenBalance(token, owner common.Address) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tokenOf(holding{token: token, owner: owner}).Clone()
}

func (l *Ledger) Allowance(token, owner, spender common.Address) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowanceOf(allowance{token: token, owner: owner, spender: spender}).Clone()
}

// Logs returns at most limit committed logs starting from sequence number from.
func (l *Ledger) Logs(from uint64, limit int) []Log {
	l.mu.Lock()
	defer l.mu.Unlock()

	if from >= uint64(len(l.logs)) {
		return nil
	}
	end := uint64(len(l.logs))
	if limit > 0 && from+uint64(limit) < end {
		end = from + uint64(limit)
	}
	res := make([]Log, end-from)
	copy(res, l.logs[from:end])
	return res
}

func (l *Ledger) nativeOf(owner common.Address) *uint256.Int {
	if v, ok := l.native[owner]; ok {
		return v
	}
	return new(uint256.Int)
}

func (l *Ledger) tokenOf(key holding) *uint256.Int {
	if v, ok := l.tokens[key]; ok {
		return v
	}
	return new(uint256.Int)
}

func (l *Ledger) allowanceOf(key allowance) *uint256.Int {
	if v, ok := l.allowances[key]; ok {
		return v
	}
	return new(uint256.Int)
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// ManualClock only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
