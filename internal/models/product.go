package models

import "time"

type Product struct {
	ID        string
	Name      string
	BasePrice int64
	Category  string
	Images    []ProductImage
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ProductImage struct {
	ID        string
	ProductID string
	ObjectKey string
	AltText   string
}

// Store is the single-row storefront configuration record.
type Store struct {
	ID          string
	Name        string
	URL         string
	Maintenance bool
	UpdatedAt   time.Time
}
