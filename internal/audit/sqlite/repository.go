// Package sqlite stores the order status audit trail in an append-only SQLite table.
//
// WAL mode is enabled on Open so that readers never block the single writer.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"

	// pure-Go driver, registered as "sqlite"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS order_status_log (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id    TEXT NOT NULL,
    from_status TEXT NOT NULL,
    to_status   TEXT NOT NULL,
    actor_id    TEXT NOT NULL,
    actor_role  TEXT NOT NULL,
    reason      TEXT NOT NULL DEFAULT '',
    trace_id    TEXT NOT NULL DEFAULT '',
    span_id     TEXT NOT NULL DEFAULT '',
    changed_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_order_status_log_order_id ON order_status_log(order_id, changed_at);
CREATE INDEX IF NOT EXISTS idx_order_status_log_trace_id ON order_status_log(trace_id);
`

// fixed width so that changed_at sorts lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and applies the schema.
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open[%s]: %w", path, err)
	}

	// single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Save appends an entry. It is safe to call concurrently.
func (r *Repository) Save(ctx context.Context, change domain.StatusChange) error {
	const q = `
		INSERT INTO order_status_log
			(order_id, from_status, to_status, actor_id, actor_role, reason, trace_id, span_id, changed_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		change.OrderID.String(),
		string(change.From),
		string(change.To),
		change.ActorID,
		string(change.ActorRole),
		change.Reason,
		change.TraceID,
		change.SpanID,
		change.ChangedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("db.ExecContext[%s]: %w", change.OrderID, err)
	}

	return nil
}

// ListByOrder returns the entries of one order, oldest first.
func (r *Repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.StatusChange, error) {
	const q = `
		SELECT order_id, from_status, to_status, actor_id, actor_role, reason, trace_id, span_id, changed_at
		FROM   order_status_log
		WHERE  order_id = ?
		ORDER  BY changed_at, id`

	rows, err := r.db.QueryContext(ctx, q, orderID.String())
	if err != nil {
		return nil, fmt.Errorf("db.QueryContext[%s]: %w", orderID, err)
	}
	defer rows.Close()

	var changes []domain.StatusChange
	for rows.Next() {
		var (
			change             domain.StatusChange
			rawID, from, to    string
			role, rawChangedAt string
		)

		if err := rows.Scan(&rawID, &from, &to, &change.ActorID, &role, &change.Reason,
			&change.TraceID, &change.SpanID, &rawChangedAt); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}

		if change.OrderID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("uuid.Parse[%s]: %w", rawID, err)
		}

		if change.ChangedAt, err = time.Parse(time.RFC3339Nano, rawChangedAt); err != nil {
			return nil, fmt.Errorf("time.Parse[%s]: %w", rawChangedAt, err)
		}

		change.From = domain.OrderStatus(from)
		change.To = domain.OrderStatus(to)
		change.ActorRole = domain.Role(role)
		changes = append(changes, change)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return changes, nil
}
