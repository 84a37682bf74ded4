package audit

import "context"

// Store is an append-only audit log.
type Store interface {
	// Append assigns the next sequence number and persists the entry.
	Append(ctx context.Context, e *Entry) error
	// LastHash returns the hash of the newest entry, or "" for an empty
	// log.
	LastHash(ctx context.Context) (string, error)
	List(ctx context.Context, filter ListFilter) ([]Entry, int, error)
	// VerifyChain walks the log in sequence order and reports the
	// sequence number of the first broken entry, or 0 when intact.
	VerifyChain(ctx context.Context) (int64, error)
}
