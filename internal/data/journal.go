package data

// OrderRow is the flattened order kept in the audit journal. Run is the ledger
// instance the order lives in: order ids restart with every instance.
type OrderRow struct {
	Run             string `structs:"run" db:"run"`
	ID              int64  `structs:"id" db:"id"`
	SrcToken        string `structs:"src_token" db:"src_token"`
	DstToken        string `structs:"dst_token" db:"dst_token"`
	SrcAmount       string `structs:"src_amount" db:"src_amount"`
	MinReturnAmount string `structs:"min_return_amount" db:"min_return_amount"`
	Compensation    string `structs:"compensation" db:"compensation"`
	Policy          string `structs:"policy" db:"policy"`
	Beneficiary     string `structs:"beneficiary" db:"beneficiary"`
	CreatedAt       int64  `structs:"created_at" db:"created_at"`
	Expiration      int64  `structs:"expiration" db:"expiration"`
	State           string `structs:"state" db:"state"`
}

// SettlementRow records how an order left the pending state.
type SettlementRow struct {
	Run          string `structs:"run" db:"run"`
	OrderID      int64  `structs:"order_id" db:"order_id"`
	State        string `structs:"state" db:"state"`
	Executor     string `structs:"executor" db:"executor"`
	Shape        string `structs:"shape" db:"shape"`
	Delivered    string `structs:"delivered" db:"delivered"`
	Compensation string `structs:"compensation" db:"compensation"`
	Refunded     string `structs:"refunded" db:"refunded"`
	Timestamp    int64  `structs:"timestamp" db:"timestamp"`
}

// RowKey addresses an order across ledger runs.
type RowKey struct {
	Run string
	ID  int64
}

// Journal mirrors committed ledger events for auditing. Writes must be
// idempotent: a publish pass that fails halfway is retried from the cursor.
type Journal interface {
	InsertOrder(OrderRow) error
	Settle(SettlementRow) error
	// Transaction runs fn atomically together with cursor updates made by a
	// cursor sharing the journal's storage.
	Transaction(fn func() error) error
}
