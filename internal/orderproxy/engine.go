// Package orderproxy holds deposits for swap orders and lets anyone execute
// them through an external exchange, as long as the swap they submit is the
// one the depositor committed to and pays out at least the guaranteed return.
package orderproxy

import (
	"sync"

	"github.com/Swapica/order-proxy-svc/internal/asset"
	"github.com/Swapica/order-proxy-svc/internal/calldata"
	"github.com/Swapica/order-proxy-svc/internal/data"
	"github.com/Swapica/order-proxy-svc/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type Config struct {
	// Address is the engine's own account on the ledger, holding all custody.
	Address common.Address
	// Exchange is the only contract executions are sent to.
	Exchange common.Address
	Resolver asset.Resolver
	Decoder  *calldata.Decoder
	Policy   CompensationPolicy
}

// Observer is told about every outcome. Calls happen after the ledger unit
// returned, outside of any lock.
type Observer interface {
	Created(o data.Order)
	Executed(o data.Order, r Receipt)
	Reclaimed(o data.Order, refunded *uint256.Int)
	Rejected(op string, err error)
}

type Engine struct {
	log      *logan.Entry
	ledger   *ledger.Ledger
	orders   data.Orders
	address  common.Address
	exchange common.Address
	resolver asset.Resolver
	decoder  *calldata.Decoder
	policy   CompensationPolicy
	observer Observer

	mu   sync.RWMutex
	pool *uint256.Int
}

type Option func(*Engine)

func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

func New(cfg Config, l *ledger.Ledger, orders data.Orders, log *logan.Entry, opts ...Option) (*Engine, error) {
	if cfg.Decoder == nil {
		return nil, errors.New("payload decoder is required")
	}
	if cfg.Policy == nil {
		return nil, errors.New("compensation policy is required")
	}
	if cfg.Address == cfg.Exchange {
		return nil, errors.From(errors.New("engine and exchange must live at different addresses"), logan.F{
			"address": cfg.Address.Hex(),
		})
	}

	e := &Engine{
		log:      log.WithField("engine", cfg.Address.Hex()),
		ledger:   l,
		orders:   orders,
		address:  cfg.Address,
		exchange: cfg.Exchange,
		resolver: cfg.Resolver,
		decoder:  cfg.Decoder,
		policy:   cfg.Policy,
		observer: nopObserver{},
		pool:     new(uint256.Int),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Address() common.Address {
	return e.address
}

func (e *Engine) Exchange() common.Address {
	return e.exchange
}

// Reserved tells whether addr is the engine's custody account or the exchange.
// Neither may act as a depositor or executor: transfers between custody and
// itself move nothing.
func (e *Engine) Reserved(addr common.Address) bool {
	return addr == e.address || addr == e.exchange
}

func (e *Engine) reserved(role string, addr common.Address) error {
	if !e.Reserved(addr) {
		return nil
	}
	return errors.From(ErrReservedAccount, logan.F{"role": role, "account": addr.Hex()})
}

func (e *Engine) Policy() string {
	return e.policy.Name()
}

func (e *Engine) CountOrders() uint64 {
	return e.orders.Count()
}

func (e *Engine) GetOrder(id uint64) (data.Order, error) {
	o, err := e.orders.Get(id)
	if err != nil {
		return data.Order{}, errors.Wrap(err, "failed to get order", logan.F{"order_id": id})
	}
	if o == nil {
		return data.Order{}, errors.From(ErrOrderNotFound, logan.F{"order_id": id})
	}
	return *o, nil
}

// pending loads an order that may still be executed at now.
func (e *Engine) pending(id, now uint64) (data.Order, error) {
	o, err := e.GetOrder(id)
	if err != nil {
		return data.Order{}, err
	}

	switch o.State {
	case data.StateExecuted:
		return o, errors.From(ErrOrderAlreadyExecuted, logan.F{"order_id": id})
	case data.StateReclaimed:
		return o, errors.From(ErrOrderReclaimed, logan.F{"order_id": id})
	}
	if o.Expired(now) {
		return o, errors.From(ErrOrderExpired, logan.F{
			"order_id":   id,
			"expiration": o.Expiration,
			"now":        now,
		})
	}
	return o, nil
}

func (e *Engine) setState(id uint64, state data.State) {
	if err := e.orders.SetState(id, state); err != nil {
		// the ledger already committed, so the table is the one out of step
		e.log.WithError(err).WithField("order_id", id).Error("failed to update order state")
	}
}

// balanceError folds substrate shortfalls into the depositor-facing kind.
func balanceError(err error, msg string, fields logan.F) error {
	switch errors.Cause(err) {
	case ledger.ErrInsufficientBalance, ledger.ErrInsufficientAllowance:
		f := logan.F{"reason": err.Error()}
		for k, v := range fields {
			f[k] = v
		}
		return errors.From(ErrInsufficientAllowanceOrBalance, f)
	}
	return errors.Wrap(err, msg, fields)
}

type nopObserver struct{}

func (nopObserver) Created(data.Order)                 {}
func (nopObserver) Executed(data.Order, Receipt)       {}
func (nopObserver) Reclaimed(data.Order, *uint256.Int) {}
func (nopObserver) Rejected(string, error)             {}
