package postgres

import (
	"testing"

	"github.com/Swapica/order-proxy-svc/internal/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertOrderStmtIsIdempotent(t *testing.T) {
	sql, args, err := insertOrderStmt(data.OrderRow{
		Run:             "5f0c3c3e-0b7a-4d59-9d43-8d7b7f0c9a11",
		ID:              3,
		SrcToken:        "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee",
		DstToken:        "0x6b175474e89094c44da98b954eedeac495271d0f",
		SrcAmount:       "2000000000000000000",
		MinReturnAmount: "1000",
		Compensation:    "50000000000000000",
		Policy:          "fixed_reward",
		State:           "pending",
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "INSERT INTO orders")
	assert.Contains(t, sql, "ON CONFLICT (run, id) DO NOTHING")
	assert.Contains(t, sql, "$1")
	assert.Len(t, args, 12)
	assert.Contains(t, args, "5f0c3c3e-0b7a-4d59-9d43-8d7b7f0c9a11")
	assert.Contains(t, args, "fixed_reward")
}

func TestInsertSettlementStmt(t *testing.T) {
	sql, args, err := insertSettlementStmt(data.SettlementRow{
		Run:       "run-a",
		OrderID:   3,
		State:     "executed",
		Delivered: "1500",
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "INSERT INTO settlements")
	assert.Contains(t, sql, "ON CONFLICT (run, order_id) DO NOTHING")
	assert.Len(t, args, 9)
	assert.Contains(t, args, "1500")
}

func TestUpdateOrderStateIsScopedToRun(t *testing.T) {
	sql, args, err := updateOrderStateStmt(data.SettlementRow{
		Run:     "run-b",
		OrderID: 0,
		State:   "executed",
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "UPDATE orders SET state = $1")
	assert.Contains(t, sql, "run = ")
	assert.Contains(t, sql, "id = ")
	assert.ElementsMatch(t, []interface{}{"executed", "run-b", int64(0)}, args)
}

func TestSplitSchema(t *testing.T) {
	up, down := splitSchema()
	assert.Contains(t, up, "create table if not exists orders")
	assert.Contains(t, up, "primary key (run, id)")
	assert.NotContains(t, up, "drop table")
	assert.Contains(t, down, "drop table if exists orders")
}
