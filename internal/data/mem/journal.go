package mem

import (
	"sync"

	"github.com/Swapica/order-proxy-svc/internal/data"
)

// Journal keeps the audit mirror in memory, for runs without a database.
type Journal struct {
	mu          sync.Mutex
	Orders      map[data.RowKey]data.OrderRow
	Settlements map[data.RowKey]data.SettlementRow
	cursors     map[string]uint64
}

func NewJournal() *Journal {
	return &Journal{
		Orders:      make(map[data.RowKey]data.OrderRow),
		Settlements: make(map[data.RowKey]data.SettlementRow),
		cursors:     make(map[string]uint64),
	}
}

func (j *Journal) InsertOrder(row data.OrderRow) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	key := data.RowKey{Run: row.Run, ID: row.ID}
	if _, ok := j.Orders[key]; !ok {
		j.Orders[key] = row
	}
	return nil
}

func (j *Journal) Settle(row data.SettlementRow) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	key := data.RowKey{Run: row.Run, ID: row.OrderID}
	if _, ok := j.Settlements[key]; !ok {
		j.Settlements[key] = row
	}
	if o, ok := j.Orders[key]; ok {
		o.State = row.State
		j.Orders[key] = o
	}
	return nil
}

func (j *Journal) Transaction(fn func() error) error {
	return fn()
}

// Cursor returns the named publish position kept next to the rows.
func (j *Journal) Cursor(name string) data.Cursor {
	return cursor{j: j, name: name}
}

type cursor struct {
	j    *Journal
	name string
}

func (c cursor) Set(seq uint64) error {
	c.j.mu.Lock()
	defer c.j.mu.Unlock()
	c.j.cursors[c.name] = seq
	return nil
}

func (c cursor) Get() (*uint64, error) {
	c.j.mu.Lock()
	defer c.j.mu.Unlock()
	seq, ok := c.j.cursors[c.name]
	if !ok {
		return nil, nil
	}
	return &seq, nil
}

var (
	_ data.Journal = (*Journal)(nil)
	_ data.Cursor  = cursor{}
)
