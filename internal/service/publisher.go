package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Swapica/order-proxy-svc/internal/data"
	"github.com/Swapica/order-proxy-svc/internal/ledger"
	"github.com/Swapica/order-proxy-svc/internal/orderproxy"
	"github.com/Swapica/order-proxy-svc/internal/service/requests"
	"github.com/google/uuid"
	"gitlab.com/distributed_lab/json-api-connector/cerrors"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type logSource interface {
	ID() uuid.UUID
	Logs(from uint64, limit int) []ledger.Log
}

// collector is the part of the JSON:API connector the publisher needs.
type collector interface {
	PostJSON(endpoint *url.URL, body interface{}, ctx context.Context, dst interface{}) error
	PatchJSON(endpoint *url.URL, body interface{}, ctx context.Context, dst interface{}) error
}

type custodian interface {
	CheckCustody(ctx context.Context) (orderproxy.Custody, error)
}

type publishRecorder interface {
	Published(event string)
}

// publisher mirrors committed engine events into the journal and, when one is
// configured, the collector. It resumes from the persisted cursor, which must
// belong to the same ledger run as source: every row and event id it writes is
// scoped by that run.
type publisher struct {
	log       *logan.Entry
	source    logSource
	journal   data.Journal
	cursor    data.Cursor
	collector collector
	ordersURL *url.URL
	cursorURL *url.URL
	custody   custodian
	recorder  publishRecorder
	batch     int
	namespace uuid.UUID
}

func (p *publisher) publish(ctx context.Context) error {
	saved, err := p.cursor.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get publish cursor")
	}
	var next uint64
	if saved != nil {
		next = *saved
	}

	logs := p.source.Logs(next, p.batch)
	for _, l := range logs {
		if err := p.publishLog(ctx, l); err != nil {
			return errors.Wrap(err, "failed to publish event", logan.F{"seq": l.Seq, "event": l.Name})
		}
	}
	if len(logs) > 0 {
		p.updateCollectorCursor(ctx, next+uint64(len(logs)))
		p.log.WithFields(logan.F{"from": next, "count": len(logs)}).Debug("published events")
	}

	if _, err := p.custody.CheckCustody(ctx); err != nil {
		p.log.WithError(err).Error("custody check failed")
	}
	return nil
}

func (p *publisher) publishLog(ctx context.Context, l ledger.Log) error {
	run := p.source.ID().String()
	meta := requests.Meta{
		Run:      run,
		EventID:  uuid.NewSHA1(p.namespace, []byte(run+":"+strconv.FormatUint(l.Seq, 10)+":"+l.Name)).String(),
		EventSeq: l.Seq,
	}

	var write func() error
	switch event := l.Data.(type) {
	case orderproxy.OrderCreated:
		row := orderRow(run, event)
		if err := p.addOrder(ctx, requests.NewAddOrder(event.Order, event.Policy, meta)); err != nil {
			return err
		}
		write = func() error { return p.journal.InsertOrder(row) }
	case orderproxy.OrderExecuted:
		row := executedRow(run, event, l.Timestamp)
		if err := p.updateOrder(ctx, requests.NewUpdateOrder(row, meta)); err != nil {
			return err
		}
		write = func() error { return p.journal.Settle(row) }
	case orderproxy.OrderReclaimed:
		row := reclaimedRow(run, event, l.Timestamp)
		if err := p.updateOrder(ctx, requests.NewUpdateOrder(row, meta)); err != nil {
			return err
		}
		write = func() error { return p.journal.Settle(row) }
	default:
		p.log.WithField("event", l.Name).Debug("skipping event nobody mirrors")
	}

	err := p.journal.Transaction(func() error {
		if write != nil {
			if err := write(); err != nil {
				return err
			}
		}
		return p.cursor.Set(l.Seq + 1)
	})
	if err != nil {
		return errors.Wrap(err, "failed to write journal")
	}

	p.recorder.Published(l.Name)
	return nil
}

func (p *publisher) addOrder(ctx context.Context, body requests.AddOrderRequest) error {
	if p.collector == nil {
		return nil
	}
	log := p.log.WithField("order_id", body.Data.ID)

	err := p.collector.PostJSON(p.ordersURL, body, ctx, nil)
	if isConflict(err) {
		log.Warn("order already exists in collector DB, skipping it")
		return nil
	}
	return errors.Wrap(err, "failed to add order into collector service")
}

func (p *publisher) updateOrder(ctx context.Context, body requests.UpdateOrderRequest) error {
	if p.collector == nil {
		return nil
	}
	err := p.collector.PatchJSON(p.ordersURL, body, ctx, nil)
	return errors.Wrap(err, "failed to update order in collector service")
}

func (p *publisher) updateCollectorCursor(ctx context.Context, seq uint64) {
	if p.collector == nil {
		return
	}
	log := p.log.WithField("seq", seq)
	if err := p.collector.PostJSON(p.cursorURL, requests.NewUpdateCursor(p.source.ID().String(), seq), ctx, nil); err != nil {
		log.WithError(err).Error("failed to save publish cursor in collector")
		return
	}
	log.Debug("successfully saved publish cursor in collector")
}

func isConflict(err error) bool {
	c, ok := err.(cerrors.Error)
	return ok && c.Status() == http.StatusConflict
}

func orderRow(run string, e orderproxy.OrderCreated) data.OrderRow {
	o := e.Order
	return data.OrderRow{
		Run:             run,
		ID:              int64(o.ID),
		SrcToken:        o.SrcToken.Hex(),
		DstToken:        o.DstToken.Hex(),
		SrcAmount:       o.SrcAmount.Dec(),
		MinReturnAmount: o.MinReturnAmount.Dec(),
		Compensation:    o.Compensation.Dec(),
		Policy:          e.Policy,
		Beneficiary:     o.Beneficiary.Hex(),
		CreatedAt:       int64(o.CreatedAt),
		Expiration:      int64(o.Expiration),
		State:           o.State.String(),
	}
}

func executedRow(run string, e orderproxy.OrderExecuted, timestamp uint64) data.SettlementRow {
	r := e.Receipt
	return data.SettlementRow{
		Run:          run,
		OrderID:      int64(r.OrderID),
		State:        data.StateExecuted.String(),
		Executor:     r.Executor.Hex(),
		Shape:        r.Shape,
		Delivered:    r.Delivered.Dec(),
		Compensation: r.Compensation.Dec(),
		Refunded:     r.Unspent.Dec(),
		Timestamp:    int64(timestamp),
	}
}

func reclaimedRow(run string, e orderproxy.OrderReclaimed, timestamp uint64) data.SettlementRow {
	return data.SettlementRow{
		Run:          run,
		OrderID:      int64(e.Order.ID),
		State:        data.StateReclaimed.String(),
		Delivered:    "0",
		Compensation: "0",
		Refunded:     e.Refunded.Dec(),
		Timestamp:    int64(timestamp),
	}
}
