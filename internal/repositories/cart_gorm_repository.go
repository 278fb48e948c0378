package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/apperrors"
	"storefront/internal/models"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{db: db}
}

// GetByUserID retrieves the cart owned by the given user.
func (r *GORMCartRepository) GetByUserID(userID string) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.First(&cart, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Cart not found")
		}
		return nil, fmt.Errorf("failed to get cart for user %s: %w", userID, err)
	}
	return &cart, nil
}

// Create creates a new cart in the database.
func (r *GORMCartRepository) Create(cart *models.Cart) error {
	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	if err := r.db.Create(cart).Error; err != nil {
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

// Save persists the full item list of an existing cart.
func (r *GORMCartRepository) Save(cart *models.Cart) error {
	res := r.db.Save(cart)
	if res.Error != nil {
		return fmt.Errorf("failed to save cart: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("Cart not found")
	}
	return nil
}
