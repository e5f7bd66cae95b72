package models

import "time"

// Op tags a local mutation that has not yet been confirmed against the
// remote service.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Record wraps an entity payload with local sync bookkeeping. It applies
// uniformly to both Lists and Items.
//
// A record with PendingOp == OpDelete is a tombstone: excluded from all
// normal read paths but physically present in the store until the sync
// engine confirms the remote deletion.
type Record[T any] struct {
	Entity T

	// LastModified is the client-side time of the last local write, in
	// milliseconds since epoch. Distinct from the entity's own UpdatedAt.
	LastModified int64

	// Pending marks a record with local changes awaiting sync.
	Pending bool

	// PendingOp is present only while Pending is true.
	PendingOp Op
}

// NewPendingRecord wraps e as a record awaiting sync with the given op.
func NewPendingRecord[T any](e T, op Op, now time.Time) Record[T] {
	return Record[T]{Entity: e, LastModified: now.UnixMilli(), Pending: true, PendingOp: op}
}

// NewSyncedRecord wraps e as an already-synchronized record.
func NewSyncedRecord[T any](e T, now time.Time) Record[T] {
	return Record[T]{Entity: e, LastModified: now.UnixMilli()}
}
