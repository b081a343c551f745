package storage

import (
	"context"

	"github.com/poiesic/recall/core"
)

// IndexRepository persists index records for a single named collection.
// Implementations must be thread-safe and support concurrent readers while a
// writer is adding records.
type IndexRepository interface {
	// PutRecords stores one or more index records, together with their
	// content-hash index entries, in a single transaction.
	PutRecords(ctx context.Context, records ...*core.IndexRecord) error

	// HashExists reports whether a record with the exact content hash is
	// already stored. This is a metadata lookup; no vectors are touched.
	HashExists(ctx context.Context, hash string) (bool, error)

	// ScanRecords calls fn for every record in the collection.
	// Iteration stops at the first error returned by fn.
	ScanRecords(ctx context.Context, fn func(*core.IndexRecord) error) error

	// Collection returns the name of the collection this repository serves.
	Collection() string

	// Close releases repository resources.
	Close() error
}

// ConversationRepository persists per-thread conversation history.
// Appends are atomic per thread: two concurrent appends to the same thread
// never lose turns.
type ConversationRepository interface {
	// History returns the stored turns for a thread, oldest first.
	// A thread with no history yields an empty slice, not an error.
	History(ctx context.Context, threadID string) ([]core.Turn, error)

	// AppendTurns appends turns to a thread's history as a single atomic
	// read-modify-write. The thread is created on first append.
	AppendTurns(ctx context.Context, threadID string, turns ...core.Turn) error

	// Close releases repository resources.
	Close() error
}
