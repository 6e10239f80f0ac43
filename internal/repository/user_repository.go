package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/api/internal/ids"
	"storefront/api/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already in use")
)

const uniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// UserUpdate is the closed set of user fields an update may touch. Anything
// outside these pointers never reaches storage.
type UserUpdate struct {
	Email        *string
	FullName     *string
	Role         *models.UserRole
	PasswordHash []byte
}

// CreateWithCustomer inserts the user and links a customer profile in one
// transaction. The oldest orphan customer row with the same email is
// adopted, otherwise a fresh one is created; adopting exactly one row keeps
// the user-to-customer link one-to-one. A duplicate email rolls the whole
// unit back with ErrEmailTaken.
func (r *UserRepository) CreateWithCustomer(ctx context.Context, user models.User) (adopted bool, err error) {
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const insertUser = `
			INSERT INTO users (id, email, password_hash, full_name, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		`
		if _, err := tx.Exec(ctx, insertUser,
			user.ID,
			user.Email,
			user.PasswordHash,
			user.FullName,
			user.Role,
		); err != nil {
			return mapConflict(err)
		}

		const adoptOrphan = `
			UPDATE customers
			SET user_id = $1, name = $2, updated_at = NOW()
			WHERE id = (
				SELECT id FROM customers
				WHERE email = $3 AND user_id IS NULL
				ORDER BY created_at
				LIMIT 1
			)
		`
		cmd, err := tx.Exec(ctx, adoptOrphan, user.ID, user.FullName, user.Email)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() > 0 {
			adopted = true
			return nil
		}

		const insertCustomer = `
			INSERT INTO customers (id, user_id, name, email, phone, address, created_at, updated_at)
			VALUES ($1, $2, $3, $4, '', '', NOW(), NOW())
		`
		_, err = tx.Exec(ctx, insertCustomer, ids.New(), user.ID, user.FullName, user.Email)
		return err
	})
	return adopted, err
}

// Create inserts a user without touching customer profiles. Used for
// admin-minted accounts, which have no storefront identity of their own.
func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO users (id, email, password_hash, full_name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.Role,
	)
	return mapConflict(err)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
		SELECT id, email, password_hash, full_name, role, created_at, updated_at
		FROM users WHERE email = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	const query = `
		SELECT id, email, password_hash, full_name, role, created_at, updated_at
		FROM users WHERE id = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) scanOne(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	const query = `
		SELECT id, email, password_hash, full_name, role, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.PasswordHash,
			&user.FullName,
			&user.Role,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Update applies the allow-listed partial update and returns the new row.
func (r *UserRepository) Update(ctx context.Context, id string, update UserUpdate) (models.User, error) {
	set := make([]string, 0, 4)
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Email != nil {
		add("email", *update.Email)
	}
	if update.FullName != nil {
		add("full_name", *update.FullName)
	}
	if update.Role != nil {
		add("role", *update.Role)
	}
	if update.PasswordHash != nil {
		add("password_hash", update.PasswordHash)
	}

	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	query := "UPDATE users SET updated_at = NOW()"
	for _, clause := range set {
		query += ", " + clause
	}
	query += " WHERE id = $1 RETURNING id, email, password_hash, full_name, role, created_at, updated_at"

	user, err := r.scanOne(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return models.User{}, mapConflict(err)
	}
	return user, nil
}

// Delete removes the user, its sessions, and unlinks the customer profile
// as one unit. Deleting a missing id returns ErrUserNotFound.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE customers SET user_id = NULL, updated_at = NOW() WHERE user_id = $1`, id); err != nil {
			return err
		}
		cmd, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrEmailTaken
	}
	return err
}
