package repositories

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/apperrors"
	"storefront/internal/models"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// Create adds a new order.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	return nil
}

// GetAllByUser returns the user's orders, most recent first.
func (r *MockOrderRepository) GetAllByUser(userID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0)
	for _, order := range r.orders {
		if order.UserID == userID {
			orderList = append(orderList, order)
		}
	}
	sort.Slice(orderList, func(i, j int) bool {
		return orderList[i].CreatedAt.After(orderList[j].CreatedAt)
	})
	return orderList, nil
}

// GetByIDAndUser returns one order scoped to its owning user.
func (r *MockOrderRepository) GetByIDAndUser(id, userID string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok || order.UserID != userID {
		return nil, apperrors.NotFound("Order not found")
	}
	return &order, nil
}

// Save persists an existing order.
func (r *MockOrderRepository) Save(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.ID]; !ok {
		return apperrors.NotFound("Order not found")
	}
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	return nil
}
