package data

// Cursor remembers the sequence number of the next ledger log to publish. A
// cursor belongs to one ledger instance and must be named after it.
type Cursor interface {
	Set(uint64) error
	Get() (*uint64, error)
}
