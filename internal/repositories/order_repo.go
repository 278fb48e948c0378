package repositories

import "storefront/internal/models"

// OrderRepository defines the interface for order data access. All
// reads are scoped to the owning user; an order belonging to another
// user is indistinguishable from a missing one.
type OrderRepository interface {
	Create(order *models.Order) error
	// GetAllByUser returns the user's orders, newest first.
	GetAllByUser(userID string) ([]models.Order, error)
	GetByIDAndUser(id, userID string) (*models.Order, error)
	Save(order *models.Order) error
}
