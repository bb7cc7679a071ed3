package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func scanProducts(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()

	var items []Product
	for rows.Next() {
		var i Product
		if err := rows.Scan(&i.ID, &i.Name, &i.IsActive, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listProductsCreatedAfter = `SELECT id, name, is_active, created_at
FROM products
WHERE is_active
  AND created_at >= $1
ORDER BY created_at DESC, id
LIMIT $2`

func (q *Queries) ListProductsCreatedAfter(ctx context.Context, after time.Time, limit int32) ([]Product, error) {
	rows, err := q.db.Query(ctx, listProductsCreatedAfter, after, limit)
	if err != nil {
		return nil, err
	}
	return scanProducts(rows)
}

const listProductsCreatedBefore = `SELECT id, name, is_active, created_at
FROM products
WHERE is_active
  AND created_at < $1
ORDER BY created_at DESC, id
LIMIT $2`

func (q *Queries) ListProductsCreatedBefore(ctx context.Context, before time.Time, limit int32) ([]Product, error) {
	rows, err := q.db.Query(ctx, listProductsCreatedBefore, before, limit)
	if err != nil {
		return nil, err
	}
	return scanProducts(rows)
}

const insertProduct = `INSERT INTO products (name, is_active, created_at)
VALUES ($1, $2, $3)
RETURNING id`

type InsertProductParams struct {
	Name      string
	IsActive  bool
	CreatedAt time.Time
}

func (q *Queries) InsertProduct(ctx context.Context, arg InsertProductParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, insertProduct, arg.Name, arg.IsActive, arg.CreatedAt)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}
