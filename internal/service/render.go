package service

import (
	"encoding/json"
	"net/http"

	"github.com/Swapica/order-proxy-svc/internal/data"
	"github.com/Swapica/order-proxy-svc/internal/orderproxy"
	"github.com/holiman/uint256"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type orderView struct {
	ID              uint64 `json:"id"`
	SrcToken        string `json:"src_token"`
	DstToken        string `json:"dst_token"`
	SrcAmount       string `json:"src_amount"`
	MinReturnAmount string `json:"min_return_amount"`
	Compensation    string `json:"compensation"`
	Beneficiary     string `json:"beneficiary"`
	CreatedAt       uint64 `json:"created_at"`
	Expiration      uint64 `json:"expiration"`
	State           string `json:"state"`
}

func newOrderView(o data.Order) orderView {
	return orderView{
		ID:              o.ID,
		SrcToken:        o.SrcToken.Hex(),
		DstToken:        o.DstToken.Hex(),
		SrcAmount:       o.SrcAmount.Dec(),
		MinReturnAmount: o.MinReturnAmount.Dec(),
		Compensation:    o.Compensation.Dec(),
		Beneficiary:     o.Beneficiary.Hex(),
		CreatedAt:       o.CreatedAt,
		Expiration:      o.Expiration,
		State:           o.State.String(),
	}
}

type receiptView struct {
	OrderID      uint64 `json:"order_id"`
	Executor     string `json:"executor"`
	Shape        string `json:"shape"`
	Delivered    string `json:"delivered"`
	Unspent      string `json:"unspent"`
	Compensation string `json:"compensation"`
	Retained     string `json:"retained"`
	GasUsed      uint64 `json:"gas_used"`
}

func newReceiptView(r orderproxy.Receipt) receiptView {
	return receiptView{
		OrderID:      r.OrderID,
		Executor:     r.Executor.Hex(),
		Shape:        r.Shape,
		Delivered:    r.Delivered.Dec(),
		Unspent:      r.Unspent.Dec(),
		Compensation: r.Compensation.Dec(),
		Retained:     r.Retained.Dec(),
		GasUsed:      r.GasUsed,
	}
}

type custodyView struct {
	Pending       int               `json:"pending"`
	Native        string            `json:"native"`
	NativeBalance string            `json:"native_balance"`
	Pool          string            `json:"pool"`
	Tokens        map[string]string `json:"tokens"`
	TokenBalances map[string]string `json:"token_balances"`
	Error         string            `json:"error,omitempty"`
}

func newCustodyView(c orderproxy.Custody, pool *uint256.Int) custodyView {
	v := custodyView{
		Pending:       c.Pending,
		Pool:          pool.Dec(),
		Tokens:        make(map[string]string, len(c.Tokens)),
		TokenBalances: make(map[string]string, len(c.TokenBalances)),
	}
	if c.Native != nil {
		v.Native = c.Native.Dec()
	}
	if c.NativeBalance != nil {
		v.NativeBalance = c.NativeBalance.Dec()
	}
	for token, amount := range c.Tokens {
		v.Tokens[token.Hex()] = amount.Dec()
	}
	for token, amount := range c.TokenBalances {
		v.TokenBalances[token.Hex()] = amount.Dec()
	}
	return v
}

type errorView struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

var kindStatus = map[error]int{
	orderproxy.ErrInvalidAmount:                  http.StatusBadRequest,
	orderproxy.ErrInvalidTokenPair:               http.StatusBadRequest,
	orderproxy.ErrInvalidExpiration:              http.StatusBadRequest,
	orderproxy.ErrInsufficientAllowanceOrBalance: http.StatusBadRequest,
	orderproxy.ErrPayloadShapeUnrecognized:       http.StatusBadRequest,
	orderproxy.ErrPayloadCommitmentMismatch:      http.StatusBadRequest,
	orderproxy.ErrOrderNotFound:                  http.StatusNotFound,
	orderproxy.ErrOrderAlreadyExecuted:           http.StatusConflict,
	orderproxy.ErrOrderReclaimed:                 http.StatusConflict,
	orderproxy.ErrOrderExpired:                   http.StatusConflict,
	orderproxy.ErrOrderNotExpired:                http.StatusConflict,
	orderproxy.ErrNotDepositor:                   http.StatusForbidden,
	orderproxy.ErrReservedAccount:                http.StatusForbidden,
	orderproxy.ErrGuaranteedReturnUnmet:          http.StatusUnprocessableEntity,
	orderproxy.ErrExternalCallFailed:             http.StatusBadGateway,
}

func (a *api) renderErr(w http.ResponseWriter, err error) {
	status, ok := kindStatus[errors.Cause(err)]
	if !ok {
		a.log.WithError(err).Error("request failed")
		status = http.StatusInternalServerError
	}
	a.render(w, status, errorView{Kind: orderproxy.Kind(err), Detail: err.Error()})
}

func (a *api) badRequest(w http.ResponseWriter, err error) {
	a.render(w, http.StatusBadRequest, errorView{Kind: "bad_request", Detail: err.Error()})
}

func (a *api) render(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.log.WithError(err).Error("failed to write response")
	}
}
