// Package requests builds the JSON:API bodies sent to the collector service.
package requests

import "strconv"

type ResourceType string

const (
	ORDER  ResourceType = "order"
	CURSOR ResourceType = "publish_cursor"
)

type Key struct {
	ID   string       `json:"id"`
	Type ResourceType `json:"type"`
}

// Meta carries the idempotency key of the ledger event that produced the
// request; the collector may see the same event twice when a pass is retried.
// EventSeq only orders events within Run.
type Meta struct {
	Run      string `json:"run"`
	EventID  string `json:"event_id"`
	EventSeq uint64 `json:"event_seq"`
}

// OrderKey names an order resource. Order ids restart with every ledger run.
func OrderKey(run string, id int64) Key {
	return Key{
		ID:   run + ":" + strconv.FormatInt(id, 10),
		Type: ORDER,
	}
}
