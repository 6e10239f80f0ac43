package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/api/internal/models"
)

var ErrProductNotFound = errors.New("product not found")

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) List(ctx context.Context, limit, offset int) ([]models.Product, error) {
	const query = `
		SELECT id, name, base_price, category, created_at, updated_at
		FROM products
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var product models.Product
		if err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.BasePrice,
			&product.Category,
			&product.CreatedAt,
			&product.UpdatedAt,
		); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachImages(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (models.Product, error) {
	const query = `
		SELECT id, name, base_price, category, created_at, updated_at
		FROM products WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	var product models.Product
	if err := row.Scan(
		&product.ID,
		&product.Name,
		&product.BasePrice,
		&product.Category,
		&product.CreatedAt,
		&product.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Product{}, ErrProductNotFound
		}
		return models.Product{}, err
	}

	products := []models.Product{product}
	if err := r.attachImages(ctx, products); err != nil {
		return models.Product{}, err
	}
	return products[0], nil
}

func (r *ProductRepository) attachImages(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}

	productIDs := make([]string, 0, len(products))
	index := make(map[string]int, len(products))
	for i, product := range products {
		productIDs = append(productIDs, product.ID)
		index[product.ID] = i
	}

	const query = `
		SELECT id, product_id, object_key, alt_text
		FROM product_images
		WHERE product_id = ANY($1)
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, productIDs)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var image models.ProductImage
		if err := rows.Scan(&image.ID, &image.ProductID, &image.ObjectKey, &image.AltText); err != nil {
			return err
		}
		if i, ok := index[image.ProductID]; ok {
			products[i].Images = append(products[i].Images, image)
		}
	}
	return rows.Err()
}
