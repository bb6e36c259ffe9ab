package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artem13815/accounts/pkg/audit"
	"github.com/artem13815/accounts/pkg/metrics"
)

// appendLockKey serializes capped appends across every process sharing the
// database.
const appendLockKey int64 = 0x61756469746c6f67 // "auditlog"

// AuditRepository is a capped audit store in the audit_events table. Each
// row records its own size; Append evicts the oldest rows in the same
// transaction as the insert.
type AuditRepository struct {
	pool    *pgxpool.Pool
	policy  audit.RetentionPolicy
	clock   *audit.Clock
	metrics *metrics.Metrics
}

func NewAuditRepository(pool *pgxpool.Pool, policy audit.RetentionPolicy, m *metrics.Metrics) *AuditRepository {
	if policy.MaxBytes <= 0 {
		policy.MaxBytes = audit.DefaultMaxBytes
	}
	return &AuditRepository{pool: pool, policy: policy, clock: audit.NewClock(nil), metrics: m}
}

func (r *AuditRepository) Append(ctx context.Context, entry audit.Entry) (audit.Event, error) {
	size := entry.Size()
	ev := audit.Event{Email: entry.Email, UserID: entry.UserID, Event: entry.Event}
	var evicted int
	var used int64

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, appendLockKey); err != nil {
			return fmt.Errorf("lock audit log: %w", err)
		}
		if err := tx.QueryRow(ctx, `SELECT COALESCE(sum(size_bytes), 0)::bigint FROM audit_events`).Scan(&used); err != nil {
			return fmt.Errorf("audit log size: %w", err)
		}

		if excess := r.policy.Excess(used, size); excess > 0 {
			// Drop the shortest oldest-first prefix whose sizes add up to
			// at least the excess.
			tag, err := tx.Exec(ctx, `
				DELETE FROM audit_events WHERE id IN (
					SELECT id FROM (
						SELECT id, (sum(size_bytes) OVER (ORDER BY id))::bigint - size_bytes AS before
						FROM audit_events
					) prefix
					WHERE before < $1
				)
			`, excess)
			if err != nil {
				return fmt.Errorf("evict audit events: %w", err)
			}
			evicted = int(tag.RowsAffected())
			if err := tx.QueryRow(ctx, `SELECT COALESCE(sum(size_bytes), 0)::bigint FROM audit_events`).Scan(&used); err != nil {
				return fmt.Errorf("audit log size: %w", err)
			}
		}

		// Taken under the lock so timestamps follow id order.
		ev.Timestamp = r.clock.Next()
		if err := tx.QueryRow(ctx, `
			INSERT INTO audit_events (email, user_id, event, ts, size_bytes)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, ev.Email, ev.UserID, ev.Event, ev.Timestamp, size).Scan(&ev.ID); err != nil {
			return fmt.Errorf("insert audit event: %w", err)
		}
		used += size
		return nil
	})
	if err != nil {
		return audit.Event{}, err
	}

	r.metrics.ObserveEvictions(evicted)
	r.metrics.SetAuditStoreBytes(used)
	return ev, nil
}

func (r *AuditRepository) Query(ctx context.Context, f audit.Filter) (audit.Page, error) {
	where, args := auditWhere(f)

	var page audit.Page
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM audit_events`+where, args...).Scan(&page.Total); err != nil {
		return audit.Page{}, fmt.Errorf("count audit events: %w", err)
	}

	n := len(args)
	args = append(args, f.Limit, f.Offset())
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, user_id, event, ts FROM audit_events`+where+`
		ORDER BY ts DESC, id DESC
		LIMIT $`+strconv.Itoa(n+1)+` OFFSET $`+strconv.Itoa(n+2), args...)
	if err != nil {
		return audit.Page{}, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	page.Events = []audit.Event{}
	for rows.Next() {
		var e audit.Event
		if err := rows.Scan(&e.ID, &e.Email, &e.UserID, &e.Event, &e.Timestamp); err != nil {
			return audit.Page{}, fmt.Errorf("scan audit event: %w", err)
		}
		e.Timestamp = e.Timestamp.UTC()
		page.Events = append(page.Events, e)
	}
	if err := rows.Err(); err != nil {
		return audit.Page{}, fmt.Errorf("query audit events: %w", err)
	}
	return page, nil
}

func auditWhere(f audit.Filter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	if f.Email != "" {
		add("strpos(lower(email), lower(?)) > 0", f.Email)
	}
	if f.From != nil {
		add("ts >= ?", *f.From)
	}
	if f.To != nil {
		add("ts <= ?", *f.To)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *AuditRepository) Size(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COALESCE(sum(size_bytes), 0)::bigint FROM audit_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("audit log size: %w", err)
	}
	return n, nil
}
