package orderproxy

import (
	"context"

	"github.com/Swapica/order-proxy-svc/internal/data"
	"github.com/Swapica/order-proxy-svc/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type ReclaimRequest struct {
	Caller common.Address
	ID     uint64
}

// Reclaim returns escrow and compensation of an expired, unexecuted order to
// its depositor.
func (e *Engine) Reclaim(ctx context.Context, req ReclaimRequest) (data.Order, error) {
	var order data.Order
	err := e.ledger.Atomic(ctx, func(tx *ledger.Tx) error {
		if err := e.reserved("reclaimer", req.Caller); err != nil {
			return err
		}
		var err error
		if order, err = e.GetOrder(req.ID); err != nil {
			return err
		}

		switch order.State {
		case data.StateExecuted:
			return errors.From(ErrOrderAlreadyExecuted, logan.F{"order_id": req.ID})
		case data.StateReclaimed:
			return errors.From(ErrOrderReclaimed, logan.F{"order_id": req.ID})
		}
		if req.Caller != order.Beneficiary {
			return errors.From(ErrNotDepositor, logan.F{"order_id": req.ID, "caller": req.Caller.Hex()})
		}
		if !order.Expired(tx.Now()) {
			return errors.From(ErrOrderNotExpired, logan.F{
				"order_id":   req.ID,
				"expiration": order.Expiration,
				"now":        tx.Now(),
			})
		}

		fields := logan.F{"order_id": req.ID}
		src := e.resolver.Resolve(order.SrcToken)
		if err := src.TransferOut(tx, e.address, order.Beneficiary, order.SrcAmount); err != nil {
			return errors.Wrap(err, "failed to refund escrow", fields)
		}
		native := e.resolver.Resolve(e.resolver.Native())
		if err := native.TransferOut(tx, e.address, order.Beneficiary, order.Compensation); err != nil {
			return errors.Wrap(err, "failed to refund compensation", fields)
		}

		order.State = data.StateReclaimed
		tx.Emit(e.address, EventOrderReclaimed, OrderReclaimed{
			Order:        order.Clone(),
			Refunded:     order.SrcAmount.Clone(),
			Compensation: order.Compensation.Clone(),
		})
		tx.OnCommit(func() {
			e.setState(req.ID, data.StateReclaimed)
		})
		return nil
	})
	if err != nil {
		e.observer.Rejected("reclaim", err)
		return data.Order{}, err
	}

	e.log.WithField("order_id", req.ID).Info("order reclaimed")
	e.observer.Reclaimed(order, order.SrcAmount)
	return order, nil
}
