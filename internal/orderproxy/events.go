package orderproxy

import (
	"github.com/Swapica/order-proxy-svc/internal/data"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Log names emitted by the engine on the ledger.
const (
	EventOrderCreated   = "OrderCreated"
	EventOrderExecuted  = "OrderExecuted"
	EventOrderReclaimed = "OrderReclaimed"
)

type OrderCreated struct {
	Order  data.Order
	Policy string
}

type OrderExecuted struct {
	Order   data.Order
	Receipt Receipt
}

type OrderReclaimed struct {
	Order data.Order
	// Refunded is escrow plus compensation returned to the depositor, in
	// the source asset and native coin respectively.
	Refunded     *uint256.Int
	Compensation *uint256.Int
}

// Receipt describes one successful execution.
type Receipt struct {
	OrderID  uint64
	Executor common.Address
	Shape    string
	// Delivered is the destination asset the beneficiary gained.
	Delivered *uint256.Int
	// Unspent is source asset the exchange left over, returned to the
	// beneficiary.
	Unspent *uint256.Int
	// Compensation is what the executor was paid, Retained what went to
	// the pool.
	Compensation *uint256.Int
	Retained     *uint256.Int
	GasUsed      uint64
}
