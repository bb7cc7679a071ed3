package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const insertOutbox = `INSERT INTO outbox (event_id, event_type, key, payload, created_at)
VALUES ($1, $2, $3, $4, $5)`

type InsertOutboxParams struct {
	EventID   uuid.UUID
	EventType string
	Key       string
	Payload   []byte
	CreatedAt time.Time
}

func (q *Queries) InsertOutbox(ctx context.Context, arg InsertOutboxParams) error {
	_, err := q.db.Exec(ctx, insertOutbox,
		arg.EventID,
		arg.EventType,
		arg.Key,
		arg.Payload,
		arg.CreatedAt,
	)
	return err
}

const fetchPendingOutbox = `SELECT id, event_id, event_type, key, payload, created_at, sent_at
FROM outbox
WHERE sent_at IS NULL
ORDER BY id
LIMIT $1
FOR UPDATE SKIP LOCKED`

func (q *Queries) FetchPendingOutbox(ctx context.Context, limit int32) ([]Outbox, error) {
	rows, err := q.db.Query(ctx, fetchPendingOutbox, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Outbox
	for rows.Next() {
		var i Outbox
		if err := rows.Scan(
			&i.ID,
			&i.EventID,
			&i.EventType,
			&i.Key,
			&i.Payload,
			&i.CreatedAt,
			&i.SentAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markOutboxSent = `UPDATE outbox
SET sent_at = now()
WHERE id = $1
  AND sent_at IS NULL`

func (q *Queries) MarkOutboxSent(ctx context.Context, id int64) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, markOutboxSent, id)
}
