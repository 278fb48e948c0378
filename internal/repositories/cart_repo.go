package repositories

import "storefront/internal/models"

// CartRepository defines the interface for cart data access. Each user
// owns at most one cart, keyed by user ID.
type CartRepository interface {
	GetByUserID(userID string) (*models.Cart, error)
	Create(cart *models.Cart) error
	Save(cart *models.Cart) error
}
