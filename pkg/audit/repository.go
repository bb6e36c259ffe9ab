package audit

import "context"

// Repository is the audit log store. Implementations keep their footprint
// within a RetentionPolicy by evicting the oldest events on Append, so Append
// never fails because the store is full.
type Repository interface {
	Append(ctx context.Context, entry Entry) (Event, error)
	Query(ctx context.Context, f Filter) (Page, error)
	// Size is the number of bytes currently counted against the budget.
	Size(ctx context.Context) (int64, error)
}
