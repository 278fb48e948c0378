package repositories

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/apperrors"
	"storefront/internal/models"
)

// MockCartRepository is an in-memory implementation of CartRepository,
// keyed by user ID.
type MockCartRepository struct {
	carts map[string]models.Cart
	mu    sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		carts: make(map[string]models.Cart),
	}
}

// GetByUserID returns the cart owned by the given user.
func (r *MockCartRepository) GetByUserID(userID string) (*models.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.carts[userID]
	if !ok {
		return nil, apperrors.NotFound("Cart not found")
	}
	// Copy the item slice so callers cannot mutate stored state.
	items := make([]models.CartItem, len(cart.Items))
	copy(items, cart.Items)
	cart.Items = items
	return &cart, nil
}

// Create adds a new cart.
func (r *MockCartRepository) Create(cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	cart.CreatedAt = time.Now()
	cart.UpdatedAt = time.Now()
	r.carts[cart.UserID] = *cart
	return nil
}

// Save persists the full item list of an existing cart.
func (r *MockCartRepository) Save(cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.carts[cart.UserID]; !ok {
		return apperrors.NotFound("Cart not found")
	}
	cart.UpdatedAt = time.Now()
	r.carts[cart.UserID] = *cart
	return nil
}
