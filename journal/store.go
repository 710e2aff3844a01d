package journal

import "context"

// Store persists journal entries.
type Store interface {
	// AppendJournal records a batch of entries.
	AppendJournal(ctx context.Context, entries []*Entry) error

	// QueryJournal returns entries matching opts in append order.
	QueryJournal(ctx context.Context, opts QueryOpts) ([]*Entry, error)
}
