package service

import (
	"context"

	"github.com/rs/zerolog"

	"storefront/api/internal/auth"
	"storefront/api/internal/models"
)

type ProductStore interface {
	List(ctx context.Context, limit, offset int) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (models.Product, error)
}

type StoreSettingsStore interface {
	Get(ctx context.Context) (models.Store, error)
	Update(ctx context.Context, store models.Store) error
}

// ImageURLSigner resolves an object key to a URL the browser can fetch.
type ImageURLSigner interface {
	PresignedProductURL(ctx context.Context, objectKey string) (string, error)
}

type CatalogService struct {
	products ProductStore
	store    StoreSettingsStore
	signer   ImageURLSigner
	log      zerolog.Logger
}

func NewCatalogService(products ProductStore, store StoreSettingsStore, signer ImageURLSigner, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		products: products,
		store:    store,
		signer:   signer,
		log:      log,
	}
}

type ProductImageView struct {
	URL     string `json:"url"`
	AltText string `json:"altText"`
}

type ProductView struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	BasePrice int64              `json:"basePrice"`
	Category  string             `json:"category"`
	Images    []ProductImageView `json:"images"`
}

func (s *CatalogService) ListProducts(ctx context.Context, limit, offset int) ([]ProductView, error) {
	products, err := s.products.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	views := make([]ProductView, 0, len(products))
	for _, product := range products {
		views = append(views, s.view(ctx, product))
	}
	return views, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (ProductView, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return ProductView{}, err
	}
	return s.view(ctx, product), nil
}

func (s *CatalogService) GetStore(ctx context.Context) (models.Store, error) {
	return s.store.Get(ctx)
}

// UpdateStore re-checks the actor's role; the route middleware enforces the
// same Admin bound.
func (s *CatalogService) UpdateStore(ctx context.Context, actor auth.Context, store models.Store) error {
	if !actor.User.Role.AtLeast(models.UserRoleAdmin) {
		return ErrUnauthorized
	}

	if err := s.store.Update(ctx, store); err != nil {
		return err
	}

	s.log.Info().
		Str("actor_id", actor.User.ID).
		Str("store_id", store.ID).
		Msg("store settings updated")
	return nil
}

func (s *CatalogService) view(ctx context.Context, product models.Product) ProductView {
	view := ProductView{
		ID:        product.ID,
		Name:      product.Name,
		BasePrice: product.BasePrice,
		Category:  product.Category,
		Images:    make([]ProductImageView, 0, len(product.Images)),
	}

	for _, image := range product.Images {
		url, err := s.signer.PresignedProductURL(ctx, image.ObjectKey)
		if err != nil {
			// A broken image link should not take the listing down.
			s.log.Warn().Err(err).Str("object_key", image.ObjectKey).Msg("presign product image failed")
			continue
		}
		view.Images = append(view.Images, ProductImageView{
			URL:     url,
			AltText: image.AltText,
		})
	}
	return view
}
