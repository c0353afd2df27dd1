package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Swapica/order-proxy-svc/internal/asset"
	"github.com/Swapica/order-proxy-svc/internal/data"
	"github.com/Swapica/order-proxy-svc/internal/ledger"
	"github.com/Swapica/order-proxy-svc/internal/orderproxy"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const maxPageSize = 100

type engine interface {
	Create(ctx context.Context, req orderproxy.CreateRequest) (data.Order, error)
	Execute(ctx context.Context, req orderproxy.ExecuteRequest) (orderproxy.Receipt, error)
	Reclaim(ctx context.Context, req orderproxy.ReclaimRequest) (data.Order, error)
	GetOrder(id uint64) (data.Order, error)
	CountOrders() uint64
	CheckCustody(ctx context.Context) (orderproxy.Custody, error)
	Pool() *uint256.Int
	Reserved(addr common.Address) bool
}

type observability interface {
	Middleware(route string) func(http.Handler) http.Handler
	Handler() http.Handler
}

type api struct {
	log      *logan.Entry
	engine   engine
	ledger   *ledger.Ledger
	resolver asset.Resolver
	shapes   map[string]string
	metrics  observability
}

func (a *api) router() chi.Router {
	r := chi.NewRouter()
	if a.metrics != nil {
		r.Use(a.metrics.Middleware("api"))
		r.Method(http.MethodGet, "/metrics", a.metrics.Handler())
	}

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", a.createOrder)
		r.Get("/", a.listOrders)
		r.Get("/{id}", a.getOrder)
		r.Post("/{id}/execute", a.executeOrder)
		r.Post("/{id}/reclaim", a.reclaimOrder)
	})
	r.Post("/tokens/{token}/approve", a.approve)
	r.Get("/balances/{address}", a.balances)
	r.Get("/custody", a.custody)
	r.Get("/shapes", a.listShapes)
	return r
}

type createOrderRequest struct {
	Caller    common.Address `json:"caller"`
	SrcToken  common.Address `json:"src_token"`
	DstToken  common.Address `json:"dst_token"`
	SrcAmount string         `json:"src_amount"`
	MinReturn string         `json:"min_return"`
	Period    uint64         `json:"period"`
	Value     string         `json:"value"`
}

func (a *api) createOrder(w http.ResponseWriter, r *http.Request) {
	var body createOrderRequest
	if !a.decode(w, r, &body) {
		return
	}

	req := orderproxy.CreateRequest{
		Caller:   body.Caller,
		SrcToken: body.SrcToken,
		DstToken: body.DstToken,
		Period:   body.Period,
	}
	var err error
	if req.SrcAmount, err = parseAmount(body.SrcAmount); err != nil {
		a.badRequest(w, errors.Wrap(err, "bad src_amount"))
		return
	}
	if req.MinReturn, err = parseAmount(body.MinReturn); err != nil {
		a.badRequest(w, errors.Wrap(err, "bad min_return"))
		return
	}
	if req.Value, err = parseAmount(body.Value); err != nil {
		a.badRequest(w, errors.Wrap(err, "bad value"))
		return
	}

	order, err := a.engine.Create(r.Context(), req)
	if err != nil {
		a.renderErr(w, err)
		return
	}
	a.render(w, http.StatusCreated, newOrderView(order))
}

func (a *api) listOrders(w http.ResponseWriter, r *http.Request) {
	from, err := queryUint(r, "from", 0)
	if err != nil {
		a.badRequest(w, err)
		return
	}
	limit, err := queryUint(r, "limit", maxPageSize)
	if err != nil {
		a.badRequest(w, err)
		return
	}
	if limit == 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	state := r.URL.Query().Get("state")

	res := make([]orderView, 0)
	count := a.engine.CountOrders()
	for id := from; id < count && uint64(len(res)) < limit; id++ {
		o, err := a.engine.GetOrder(id)
		if err != nil {
			a.renderErr(w, err)
			return
		}
		if state != "" && o.State.String() != state {
			continue
		}
		res = append(res, newOrderView(o))
	}

	a.render(w, http.StatusOK, map[string]interface{}{
		"count":  count,
		"orders": res,
	})
}

func (a *api) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := a.orderID(w, r)
	if !ok {
		return
	}
	order, err := a.engine.GetOrder(id)
	if err != nil {
		a.renderErr(w, err)
		return
	}
	a.render(w, http.StatusOK, newOrderView(order))
}

type executeOrderRequest struct {
	Executor common.Address `json:"executor"`
	Payload  hexutil.Bytes  `json:"payload"`
}

func (a *api) executeOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := a.orderID(w, r)
	if !ok {
		return
	}
	var body executeOrderRequest
	if !a.decode(w, r, &body) {
		return
	}

	receipt, err := a.engine.Execute(r.Context(), orderproxy.ExecuteRequest{
		Executor: body.Executor,
		ID:       id,
		Payload:  body.Payload,
	})
	if err != nil {
		a.renderErr(w, err)
		return
	}
	a.render(w, http.StatusOK, newReceiptView(receipt))
}

type reclaimOrderRequest struct {
	Caller common.Address `json:"caller"`
}

func (a *api) reclaimOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := a.orderID(w, r)
	if !ok {
		return
	}
	var body reclaimOrderRequest
	if !a.decode(w, r, &body) {
		return
	}

	order, err := a.engine.Reclaim(r.Context(), orderproxy.ReclaimRequest{Caller: body.Caller, ID: id})
	if err != nil {
		a.renderErr(w, err)
		return
	}
	a.render(w, http.StatusOK, newOrderView(order))
}

type approveRequest struct {
	Owner   common.Address `json:"owner"`
	Spender common.Address `json:"spender"`
	Amount  string         `json:"amount"`
}

// approve is the sandbox stand-in for a wallet signing a token approval.
func (a *api) approve(w http.ResponseWriter, r *http.Request) {
	token, ok := a.address(w, r, "token")
	if !ok {
		return
	}
	if a.resolver.IsNative(token) {
		a.badRequest(w, errors.New("native coin needs no approval"))
		return
	}
	var body approveRequest
	if !a.decode(w, r, &body) {
		return
	}
	// custody and the exchange never sign approvals
	if a.engine.Reserved(body.Owner) {
		a.renderErr(w, errors.From(orderproxy.ErrReservedAccount, logan.F{"owner": body.Owner.Hex()}))
		return
	}
	amount, err := parseAmount(body.Amount)
	if err != nil {
		a.badRequest(w, errors.Wrap(err, "bad amount"))
		return
	}

	err = a.ledger.Atomic(r.Context(), func(tx *ledger.Tx) error {
		tx.Approve(token, body.Owner, body.Spender, amount)
		return nil
	})
	if err != nil {
		a.renderErr(w, err)
		return
	}
	a.render(w, http.StatusOK, map[string]string{
		"allowance": a.ledger.Allowance(token, body.Owner, body.Spender).Dec(),
	})
}

func (a *api) balances(w http.ResponseWriter, r *http.Request) {
	owner, ok := a.address(w, r, "address")
	if !ok {
		return
	}

	res := map[string]string{
		a.resolver.Native().Hex(): a.ledger.NativeBalance(owner).Dec(),
	}
	for _, raw := range r.URL.Query()["token"] {
		if !common.IsHexAddress(raw) {
			a.badRequest(w, errors.From(errors.New("token is not an address"), logan.F{"token": raw}))
			return
		}
		token := common.HexToAddress(raw)
		if a.resolver.IsNative(token) {
			continue
		}
		res[token.Hex()] = a.ledger.TokenBalance(token, owner).Dec()
	}
	a.render(w, http.StatusOK, res)
}

func (a *api) custody(w http.ResponseWriter, r *http.Request) {
	c, err := a.engine.CheckCustody(r.Context())
	view := newCustodyView(c, a.engine.Pool())
	if err != nil {
		view.Error = err.Error()
		a.render(w, http.StatusConflict, view)
		return
	}
	a.render(w, http.StatusOK, view)
}

func (a *api) listShapes(w http.ResponseWriter, _ *http.Request) {
	a.render(w, http.StatusOK, a.shapes)
}

func (a *api) orderID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		a.badRequest(w, errors.Wrap(err, "bad order id"))
		return 0, false
	}
	return id, true
}

func (a *api) address(w http.ResponseWriter, r *http.Request, param string) (common.Address, bool) {
	raw := chi.URLParam(r, param)
	if !common.IsHexAddress(raw) {
		a.badRequest(w, errors.From(errors.New("not an address"), logan.F{param: raw}))
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

func (a *api) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		a.badRequest(w, errors.Wrap(err, "failed to decode request body"))
		return false
	}
	return true
}

func parseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return asset.Zero(), nil
	}
	return asset.Parse(s)
}

func queryUint(r *http.Request, key string, def uint64) (uint64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	return v, errors.Wrap(err, "bad query parameter", logan.F{"key": key})
}
