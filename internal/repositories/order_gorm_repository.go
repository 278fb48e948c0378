package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/apperrors"
	"storefront/internal/models"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// Create creates a new order in the database.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetAllByUser retrieves all orders for a user, most recent first.
func (r *GORMOrderRepository) GetAllByUser(userID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// GetByIDAndUser retrieves one order scoped to its owning user.
func (r *GORMOrderRepository) GetByIDAndUser(id, userID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Order not found")
		}
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	return &order, nil
}

// Save persists an existing order, typically after a status change.
func (r *GORMOrderRepository) Save(order *models.Order) error {
	res := r.db.Save(order)
	if res.Error != nil {
		return fmt.Errorf("failed to save order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("Order not found")
	}
	return nil
}
