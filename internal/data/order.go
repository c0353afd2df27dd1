package data

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type State uint8

const (
	StatePending State = iota
	StateExecuted
	StateReclaimed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateExecuted:
		return "executed"
	case StateReclaimed:
		return "reclaimed"
	default:
		return "unknown"
	}
}

// Orders is the authoritative order table. Ids are dense: the next id to
// assign always equals Count.
type Orders interface {
	Insert(Order) error
	// Get returns nil when no order with id was ever created.
	Get(id uint64) (*Order, error)
	SetState(id uint64, state State) error
	Count() uint64
	// Pending returns orders still awaiting execution, in id order.
	Pending() []Order
}

type Order struct {
	ID              uint64
	SrcToken        common.Address
	DstToken        common.Address
	SrcAmount       *uint256.Int
	MinReturnAmount *uint256.Int
	// Compensation is the fixed executor reward or the gas reimbursement cap,
	// depending on the policy the engine was built with.
	Compensation *uint256.Int
	Beneficiary  common.Address
	CreatedAt    uint64
	Expiration   uint64
	State        State
}

func (o Order) Clone() Order {
	o.SrcAmount = o.SrcAmount.Clone()
	o.MinReturnAmount = o.MinReturnAmount.Clone()
	o.Compensation = o.Compensation.Clone()
	return o
}

// Expired reports whether execution is refused at timestamp now.
func (o Order) Expired(now uint64) bool {
	return now > o.Expiration
}
