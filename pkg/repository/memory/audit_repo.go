package memory

import (
	"context"
	"iter"
	"sync"

	"github.com/artem13815/accounts/pkg/audit"
	"github.com/artem13815/accounts/pkg/metrics"
)

// AuditRepository is a capped, append-only audit store held in memory.
// Events are kept oldest first.
type AuditRepository struct {
	mu      sync.RWMutex
	events  []audit.Event
	bytes   int64
	seq     int64
	policy  audit.RetentionPolicy
	clock   *audit.Clock
	metrics *metrics.Metrics
}

type AuditOption func(r *AuditRepository)

// WithAuditClock replaces the timestamp source.
func WithAuditClock(c *audit.Clock) AuditOption {
	return func(r *AuditRepository) { r.clock = c }
}

func WithAuditMetrics(m *metrics.Metrics) AuditOption {
	return func(r *AuditRepository) { r.metrics = m }
}

func NewAuditRepository(policy audit.RetentionPolicy, opts ...AuditOption) *AuditRepository {
	if policy.MaxBytes <= 0 {
		policy.MaxBytes = audit.DefaultMaxBytes
	}
	r := &AuditRepository{policy: policy, clock: audit.NewClock(nil)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *AuditRepository) Append(ctx context.Context, entry audit.Entry) (audit.Event, error) {
	if err := ctx.Err(); err != nil {
		return audit.Event{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	size := entry.Size()
	n := r.policy.Evictions(r.bytes, size, r.oldestSizes())
	if n > 0 {
		for _, e := range r.events[:n] {
			r.bytes -= e.Size()
		}
		// Copy the survivors so the evicted prefix does not stay reachable.
		r.events = append([]audit.Event(nil), r.events[n:]...)
	}

	r.seq++
	ev := audit.Event{
		ID:        r.seq,
		Email:     entry.Email,
		UserID:    entry.UserID,
		Event:     entry.Event,
		Timestamp: r.clock.Next(),
	}
	r.events = append(r.events, ev)
	r.bytes += size

	r.metrics.ObserveEvictions(n)
	r.metrics.SetAuditStoreBytes(r.bytes)
	return ev, nil
}

func (r *AuditRepository) oldestSizes() iter.Seq[int64] {
	return func(yield func(int64) bool) {
		for _, e := range r.events {
			if !yield(e.Size()) {
				return
			}
		}
	}
}

// Query scans newest to oldest.
func (r *AuditRepository) Query(ctx context.Context, f audit.Filter) (audit.Page, error) {
	if err := ctx.Err(); err != nil {
		return audit.Page{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	skip := f.Offset()
	page := audit.Page{Events: []audit.Event{}}
	for i := len(r.events) - 1; i >= 0; i-- {
		e := r.events[i]
		if !f.Matches(e) {
			continue
		}
		page.Total++
		if page.Total <= skip || len(page.Events) >= f.Limit {
			continue
		}
		page.Events = append(page.Events, e)
	}
	return page, nil
}

func (r *AuditRepository) Size(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bytes, nil
}
