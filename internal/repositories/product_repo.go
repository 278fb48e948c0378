package repositories

import "storefront/internal/models"

// ProductRepository defines the interface for catalog data access.
type ProductRepository interface {
	// GetAll returns products ordered by creation time, newest first.
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
	// AdjustStock applies stock += delta. It does not guard against the
	// result going negative; callers pre-validate sufficiency.
	AdjustStock(id string, delta int) (*models.Product, error)
}
