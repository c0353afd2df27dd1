package orderproxy

import (
	"context"

	"github.com/Swapica/order-proxy-svc/internal/asset"
	"github.com/Swapica/order-proxy-svc/internal/calldata"
	"github.com/Swapica/order-proxy-svc/internal/data"
	"github.com/Swapica/order-proxy-svc/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type ExecuteRequest struct {
	Executor common.Address
	ID       uint64
	// Payload is the exchange calldata, usually built by an aggregator.
	Payload []byte
}

// Execute runs the swap committed to by order ID through the exchange and pays
// the executor. Either the beneficiary gets at least the guaranteed return and
// the order is closed, or nothing changes at all.
func (e *Engine) Execute(ctx context.Context, req ExecuteRequest) (Receipt, error) {
	fields := logan.F{"order_id": req.ID, "executor": req.Executor.Hex()}

	if err := e.reserved("executor", req.Executor); err != nil {
		e.observer.Rejected("execute", err)
		return Receipt{}, err
	}

	quote, err := e.policy.Quote(ctx)
	if err != nil {
		err = errors.From(ErrExternalCallFailed, logan.F{"reason": err.Error()})
		e.observer.Rejected("execute", err)
		return Receipt{}, err
	}

	var (
		order   data.Order
		receipt Receipt
	)
	err = e.ledger.Atomic(ctx, func(tx *ledger.Tx) error {
		var err error
		if order, err = e.pending(req.ID, tx.Now()); err != nil {
			return err
		}

		terms, err := e.decoder.Verify(commitment(order), req.Payload)
		if err != nil {
			return err
		}

		receipt, err = e.settle(tx, order, terms, quote, req)
		return err
	})
	if err != nil {
		e.log.WithError(err).WithFields(fields).Debug("execution refused")
		e.observer.Rejected("execute", err)
		return Receipt{}, err
	}

	order.State = data.StateExecuted
	e.log.WithFields(fields).WithFields(logan.F{
		"shape":        receipt.Shape,
		"delivered":    receipt.Delivered.Dec(),
		"compensation": receipt.Compensation.Dec(),
		"retained":     receipt.Retained.Dec(),
		"gas_used":     receipt.GasUsed,
	}).Info("order executed")
	e.observer.Executed(order, receipt)
	return receipt, nil
}

func commitment(o data.Order) calldata.Commitment {
	return calldata.Commitment{
		SrcToken:    o.SrcToken,
		DstToken:    o.DstToken,
		SrcAmount:   o.SrcAmount,
		MinReturn:   o.MinReturnAmount,
		Beneficiary: o.Beneficiary,
	}
}

// settle performs the verified swap. Output may land at the beneficiary
// directly or, for receiverless shapes, back in custody to be forwarded; both
// count towards the guaranteed return.
func (e *Engine) settle(tx *ledger.Tx, o data.Order, terms calldata.Terms, q Quote, req ExecuteRequest) (Receipt, error) {
	src, dst := e.resolver.Resolve(o.SrcToken), e.resolver.Resolve(o.DstToken)
	native := e.resolver.Resolve(e.resolver.Native())
	fields := logan.F{"order_id": o.ID, "shape": terms.Shape}

	srcBefore := src.BalanceOf(tx, e.address)
	custodyBefore := dst.BalanceOf(tx, e.address)
	beneficiaryBefore := dst.BalanceOf(tx, o.Beneficiary)

	msg := ledger.Message{From: e.address, To: e.exchange, Data: req.Payload}
	if src.IsNative() {
		msg.Value = o.SrcAmount
	} else {
		src.Approve(tx, e.address, e.exchange, o.SrcAmount)
	}
	if _, err := tx.Call(msg); err != nil {
		return Receipt{}, errors.From(ErrExternalCallFailed, logan.F{
			"order_id": o.ID,
			"reason":   err.Error(),
		})
	}
	// the exchange never keeps a standing allowance over custody
	src.Approve(tx, e.address, e.exchange, asset.Zero())

	spent, err := asset.Sub(srcBefore, src.BalanceOf(tx, e.address))
	if err != nil || spent.Gt(o.SrcAmount) {
		return Receipt{}, errors.From(ErrExternalCallFailed, logan.F{
			"order_id": o.ID,
			"reason":   "exchange moved source custody outside of the escrowed amount",
		})
	}
	unspent := new(uint256.Int).Sub(o.SrcAmount, spent)

	intoCustody, err := asset.Sub(dst.BalanceOf(tx, e.address), custodyBefore)
	if err != nil {
		return Receipt{}, errors.From(ErrExternalCallFailed, logan.F{
			"order_id": o.ID,
			"reason":   "exchange drained destination custody",
		})
	}
	direct, err := asset.Sub(dst.BalanceOf(tx, o.Beneficiary), beneficiaryBefore)
	if err != nil {
		return Receipt{}, errors.From(ErrExternalCallFailed, logan.F{
			"order_id": o.ID,
			"reason":   "beneficiary balance decreased during the swap",
		})
	}
	delivered, err := asset.Add(intoCustody, direct)
	if err != nil {
		return Receipt{}, errors.Wrap(err, "failed to sum delivered amount", fields)
	}
	if delivered.Lt(o.MinReturnAmount) {
		return Receipt{}, errors.From(ErrGuaranteedReturnUnmet, logan.F{
			"order_id":   o.ID,
			"delivered":  delivered.Dec(),
			"min_return": o.MinReturnAmount.Dec(),
		})
	}

	if err := dst.TransferOut(tx, e.address, o.Beneficiary, intoCustody); err != nil {
		return Receipt{}, errors.Wrap(err, "failed to forward swap output", fields)
	}
	if err := src.TransferOut(tx, e.address, o.Beneficiary, unspent); err != nil {
		return Receipt{}, errors.Wrap(err, "failed to return unspent source", fields)
	}

	payout, err := e.policy.Payout(q, o.Compensation, tx.GasUsed())
	if err != nil {
		return Receipt{}, errors.Wrap(err, "failed to compute compensation", fields)
	}
	retained := new(uint256.Int).Sub(o.Compensation, payout)
	if err := native.TransferOut(tx, e.address, req.Executor, payout); err != nil {
		return Receipt{}, errors.Wrap(err, "failed to pay executor", fields)
	}

	receipt := Receipt{
		OrderID:      o.ID,
		Executor:     req.Executor,
		Shape:        terms.Shape,
		Delivered:    delivered,
		Unspent:      unspent,
		Compensation: payout,
		Retained:     retained,
		GasUsed:      tx.GasUsed(),
	}

	executed := o.Clone()
	executed.State = data.StateExecuted
	tx.Emit(e.address, EventOrderExecuted, OrderExecuted{Order: executed, Receipt: receipt})
	tx.OnCommit(func() {
		e.setState(o.ID, data.StateExecuted)
		e.retain(retained)
	})
	return receipt, nil
}
