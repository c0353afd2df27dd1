package orderproxy

import (
	"github.com/Swapica/order-proxy-svc/internal/calldata"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// Every failure leaves the ledger and the order table as they were before the
// call. Use errors.Cause to compare against these.
var (
	ErrInvalidAmount                  = errors.New("invalid amount")
	ErrInvalidTokenPair               = errors.New("source and destination tokens must differ")
	ErrInvalidExpiration              = errors.New("invalid expiration")
	ErrInsufficientAllowanceOrBalance = errors.New("insufficient allowance or balance")

	ErrOrderNotFound             = errors.New("order not found")
	ErrOrderAlreadyExecuted      = errors.New("order already executed")
	ErrOrderExpired              = errors.New("order expired")
	ErrPayloadShapeUnrecognized  = calldata.ErrShapeUnrecognized
	ErrPayloadCommitmentMismatch = calldata.ErrCommitmentMismatch
	ErrGuaranteedReturnUnmet     = errors.New("guaranteed return unmet")
	ErrExternalCallFailed        = errors.New("external call failed")

	ErrOrderReclaimed  = errors.New("order already reclaimed")
	ErrOrderNotExpired = errors.New("order has not expired yet")
	ErrNotDepositor    = errors.New("caller is not the depositor")

	// ErrReservedAccount is returned when the engine's or the exchange's own
	// address shows up as a depositor, executor or reclaimer.
	ErrReservedAccount = errors.New("account is reserved")

	ErrCustodyMismatch = errors.New("custody does not match pending orders")
)

var kinds = map[error]string{
	ErrInvalidAmount:                  "invalid_amount",
	ErrInvalidTokenPair:               "invalid_token_pair",
	ErrInvalidExpiration:              "invalid_expiration",
	ErrInsufficientAllowanceOrBalance: "insufficient_allowance_or_balance",
	ErrOrderNotFound:                  "order_not_found",
	ErrOrderAlreadyExecuted:           "order_already_executed",
	ErrOrderExpired:                   "order_expired",
	ErrPayloadShapeUnrecognized:       "payload_shape_unrecognized",
	ErrPayloadCommitmentMismatch:      "payload_commitment_mismatch",
	ErrGuaranteedReturnUnmet:          "guaranteed_return_unmet",
	ErrExternalCallFailed:             "external_call_failed",
	ErrOrderReclaimed:                 "order_reclaimed",
	ErrOrderNotExpired:                "order_not_expired",
	ErrNotDepositor:                   "not_depositor",
	ErrReservedAccount:                "reserved_account",
}

// Kind names the failure class of err, or "internal" for anything else.
func Kind(err error) string {
	if kind, ok := kinds[errors.Cause(err)]; ok {
		return kind
	}
	return "internal"
}
