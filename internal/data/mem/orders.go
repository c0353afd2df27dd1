package mem

import (
	"sync"

	"github.com/Swapica/order-proxy-svc/internal/data"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type orders struct {
	mu   sync.RWMutex
	rows []data.Order
}

func NewOrders() data.Orders {
	return &orders{}
}

func (q *orders) Insert(order data.Order) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if order.ID != uint64(len(q.rows)) {
		return errors.From(errors.New("order id is not the next one"), logan.F{
			"order_id": order.ID,
			"next_id":  len(q.rows),
		})
	}
	q.rows = append(q.rows, order.Clone())
	return nil
}

func (q *orders) Get(id uint64) (*data.Order, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if id >= uint64(len(q.rows)) {
		return nil, nil
	}
	o := q.rows[id].Clone()
	return &o, nil
}

func (q *orders) SetState(id uint64, state data.State) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if id >= uint64(len(q.rows)) {
		return errors.From(errors.New("order not found"), logan.F{"order_id": id})
	}
	q.rows[id].State = state
	return nil
}

func (q *orders) Count() uint64 {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return uint64(len(q.rows))
}

func (q *orders) Pending() []data.Order {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var res []data.Order
	for _, o := range q.rows {
		if o.State == data.StatePending {
			res = append(res, o.Clone())
		}
	}
	return res
}
