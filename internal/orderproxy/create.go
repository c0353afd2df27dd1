package orderproxy

import (
	"context"

	"github.com/Swapica/order-proxy-svc/internal/asset"
	"github.com/Swapica/order-proxy-svc/internal/data"
	"github.com/Swapica/order-proxy-svc/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type CreateRequest struct {
	Caller    common.Address
	SrcToken  common.Address
	DstToken  common.Address
	SrcAmount *uint256.Int
	MinReturn *uint256.Int
	// Period is how many seconds from now the order stays executable.
	Period uint64
	// Value is native coin attached to the call: the escrow itself for a
	// native source plus the executor compensation.
	Value *uint256.Int
}

// Create escrows the source asset and the compensation and records a new
// pending order owned by the caller.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (data.Order, error) {
	order, err := e.create(ctx, req)
	if err != nil {
		e.observer.Rejected("create", err)
		return data.Order{}, err
	}

	e.log.WithFields(logan.F{
		"order_id":    order.ID,
		"src_token":   order.SrcToken.Hex(),
		"dst_token":   order.DstToken.Hex(),
		"src_amount":  order.SrcAmount.Dec(),
		"min_return":  order.MinReturnAmount.Dec(),
		"beneficiary": order.Beneficiary.Hex(),
		"expiration":  order.Expiration,
	}).Info("order created")
	e.observer.Created(order)
	return order, nil
}

func (e *Engine) create(ctx context.Context, req CreateRequest) (data.Order, error) {
	if err := e.reserved("depositor", req.Caller); err != nil {
		return data.Order{}, err
	}
	if req.SrcAmount == nil || req.SrcAmount.IsZero() {
		return data.Order{}, errors.From(ErrInvalidAmount, logan.F{"reason": "source amount must be positive"})
	}
	if req.Period == 0 {
		return data.Order{}, errors.From(ErrInvalidExpiration, logan.F{"reason": "period must be positive"})
	}

	srcToken, dstToken := e.resolver.Canonical(req.SrcToken), e.resolver.Canonical(req.DstToken)
	if srcToken == dstToken {
		return data.Order{}, errors.From(ErrInvalidTokenPair, logan.F{"token": srcToken.Hex()})
	}

	minReturn, value := req.MinReturn, req.Value
	if minReturn == nil {
		minReturn = asset.Zero()
	}
	if value == nil {
		value = asset.Zero()
	}

	src := e.resolver.Resolve(srcToken)
	native := e.resolver.Resolve(e.resolver.Native())

	compensation := value
	if src.IsNative() {
		var err error
		if compensation, err = asset.Sub(value, req.SrcAmount); err != nil {
			return data.Order{}, errors.From(ErrInvalidAmount, logan.F{
				"reason":     "attached value does not cover the source amount",
				"value":      value.Dec(),
				"src_amount": req.SrcAmount.Dec(),
			})
		}
	}
	if err := e.policy.Validate(compensation); err != nil {
		return data.Order{}, err
	}

	var order data.Order
	err := e.ledger.Atomic(ctx, func(tx *ledger.Tx) error {
		now := tx.Now()
		expiration := now + req.Period
		if expiration < now {
			return errors.From(ErrInvalidExpiration, logan.F{
				"reason": "expiration overflows",
				"period": req.Period,
			})
		}

		fields := logan.F{"depositor": req.Caller.Hex()}
		if err := native.TransferIn(tx, e.address, req.Caller, value); err != nil {
			return balanceError(err, "failed to escrow attached value", fields)
		}
		if !src.IsNative() {
			if err := src.TransferIn(tx, e.address, req.Caller, req.SrcAmount); err != nil {
				return balanceError(err, "failed to escrow source token", fields)
			}
		}

		order = data.Order{
			ID:              e.orders.Count(),
			SrcToken:        srcToken,
			DstToken:        dstToken,
			SrcAmount:       req.SrcAmount.Clone(),
			MinReturnAmount: minReturn.Clone(),
			Compensation:    compensation.Clone(),
			Beneficiary:     req.Caller,
			CreatedAt:       now,
			Expiration:      expiration,
			State:           data.StatePending,
		}

		tx.Emit(e.address, EventOrderCreated, OrderCreated{Order: order.Clone(), Policy: e.policy.Name()})
		inserted := order.Clone()
		tx.OnCommit(func() {
			if err := e.orders.Insert(inserted); err != nil {
				e.log.WithError(err).WithField("order_id", inserted.ID).Error("failed to insert order")
			}
		})
		return nil
	})
	return order, err
}
