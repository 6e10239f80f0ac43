package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/api/internal/models"
)

var ErrCustomerNotFound = errors.New("customer not found")

type CustomerRepository struct {
	pool *pgxpool.Pool
}

func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

func (r *CustomerRepository) FindByUserID(ctx context.Context, userID string) (models.Customer, error) {
	const query = `
		SELECT id, user_id, name, email, phone, address, created_at, updated_at
		FROM customers WHERE user_id = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, userID))
}

func (r *CustomerRepository) Create(ctx context.Context, customer models.Customer) error {
	const query = `
		INSERT INTO customers (id, user_id, name, email, phone, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		customer.ID,
		customer.UserID,
		customer.Name,
		customer.Email,
		customer.Phone,
		customer.Address,
	)
	return err
}

func (r *CustomerRepository) Update(ctx context.Context, customer models.Customer) error {
	const query = `
		UPDATE customers
		SET name = $2, email = $3, phone = $4, address = $5, updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query,
		customer.ID,
		customer.Name,
		customer.Email,
		customer.Phone,
		customer.Address,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

// CountOrphans reports customer rows not yet linked to a user.
func (r *CustomerRepository) CountOrphans(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM customers WHERE user_id IS NULL`
	var count int
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *CustomerRepository) scanOne(row pgx.Row) (models.Customer, error) {
	var customer models.Customer
	if err := row.Scan(
		&customer.ID,
		&customer.UserID,
		&customer.Name,
		&customer.Email,
		&customer.Phone,
		&customer.Address,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Customer{}, ErrCustomerNotFound
		}
		return models.Customer{}, err
	}
	return customer, nil
}
