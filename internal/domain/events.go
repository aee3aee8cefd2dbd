package domain

// Record is the wire/storage shape of a row: flat snake_case keys, values as
// they come off JSON decoding (numbers are float64, timestamps may be either
// a number or a formatted string). The mapper package owns all translation
// between Records and the typed model.
type Record = map[string]any

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Backend table names covered by the change feed.
const (
	TableOrders   = "orders"
	TableProducts = "products"
	TableSettings = "settings"
)

// Event is one change-feed message. New carries the row after the change
// (insert/update), Old the row before it (update/delete). Events for a
// single row id arrive in the order they were applied at the source.
type Event struct {
	Table string    `json:"table"`
	Type  EventType `json:"type"`
	New   Record    `json:"new,omitempty"`
	Old   Record    `json:"old,omitempty"`
}
