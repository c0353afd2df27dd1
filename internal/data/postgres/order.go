package postgres

import (
	"github.com/Masterminds/squirrel"
	"github.com/Swapica/order-proxy-svc/internal/data"
	"github.com/fatih/structs"
	"gitlab.com/distributed_lab/kit/pgdb"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const (
	ordersTable      = "orders"
	settlementsTable = "settlements"
)

type journal struct {
	db *pgdb.DB
}

func NewJournal(db *pgdb.DB) data.Journal {
	return journal{db: db}
}

func (q journal) InsertOrder(order data.OrderRow) error {
	err := q.db.Exec(insertOrderStmt(order))
	return errors.Wrap(err, "failed to insert order", logan.F{"run": order.Run, "order_id": order.ID})
}

func (q journal) Settle(row data.SettlementRow) error {
	if err := q.db.Exec(insertSettlementStmt(row)); err != nil {
		return errors.Wrap(err, "failed to insert settlement", logan.F{"run": row.Run, "order_id": row.OrderID})
	}

	err := q.db.Exec(updateOrderStateStmt(row))
	return errors.Wrap(err, "failed to update order state", logan.F{"run": row.Run, "order_id": row.OrderID})
}

func (q journal) Transaction(fn func() error) error {
	return q.db.Transaction(fn)
}

// a retried publish pass may insert the same row again
func insertOrderStmt(order data.OrderRow) squirrel.InsertBuilder {
	return squirrel.Insert(ordersTable).SetMap(structs.Map(order)).
		Suffix("ON CONFLICT (run, id) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar)
}

func insertSettlementStmt(row data.SettlementRow) squirrel.InsertBuilder {
	return squirrel.Insert(settlementsTable).SetMap(structs.Map(row)).
		Suffix("ON CONFLICT (run, order_id) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar)
}

func updateOrderStateStmt(row data.SettlementRow) squirrel.UpdateBuilder {
	return squirrel.Update(ordersTable).Set("state", row.State).
		Where(squirrel.Eq{"run": row.Run, "id": row.OrderID}).
		PlaceholderFormat(squirrel.Dollar)
}
