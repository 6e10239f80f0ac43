package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/api/internal/models"
)

var ErrStoreNotFound = errors.New("store not found")

// StoreRepository manages the single storefront configuration row.
type StoreRepository struct {
	pool *pgxpool.Pool
}

func NewStoreRepository(pool *pgxpool.Pool) *StoreRepository {
	return &StoreRepository{pool: pool}
}

func (r *StoreRepository) Get(ctx context.Context) (models.Store, error) {
	const query = `
		SELECT id, name, url, maintenance, updated_at
		FROM store LIMIT 1
	`
	row := r.pool.QueryRow(ctx, query)
	var store models.Store
	if err := row.Scan(
		&store.ID,
		&store.Name,
		&store.URL,
		&store.Maintenance,
		&store.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Store{}, ErrStoreNotFound
		}
		return models.Store{}, err
	}
	return store, nil
}

func (r *StoreRepository) Update(ctx context.Context, store models.Store) error {
	const query = `
		UPDATE store
		SET name = $2, url = $3, maintenance = $4, updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, store.ID, store.Name, store.URL, store.Maintenance)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStoreNotFound
	}
	return nil
}
