package services

import (
	"errors"
	"log"
	"time"

	"github.com/go-playground/validator/v10"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/pkg/rabbitmq"
)

// OrderService orchestrates order placement, cancellation and status
// updates across the catalog, cart and order repositories.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	cartRepo    repositories.CartRepository
	mqClient    *rabbitmq.Client
	validate    *validator.Validate
}

// NewOrderService creates a new OrderService. mqClient may be nil, in
// which case event publication is skipped.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, cartRepo repositories.CartRepository, mqClient *rabbitmq.Client) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		mqClient:    mqClient,
		validate:    validator.New(),
	}
}

// PlaceOrderRequest is the checkout payload. Total is supplied by the
// client and persisted as-is; it is not recomputed from the line
// prices server-side.
type PlaceOrderRequest struct {
	CustomerName string             `json:"customer_name"`
	Email        string             `json:"email"`
	Address      string             `json:"address"`
	Items        []models.OrderItem `json:"items"`
	Total        float64            `json:"total"`
}

// ListOrders retrieves the user's orders, most recent first.
func (s *OrderService) ListOrders(userID string) ([]models.Order, error) {
	return s.orderRepo.GetAllByUser(userID)
}

// GetOrder retrieves one order scoped to the requesting user.
func (s *OrderService) GetOrder(userID, orderID string) (*models.Order, error) {
	return s.orderRepo.GetByIDAndUser(orderID, userID)
}

// PlaceOrder converts the request into a completed order: it validates
// the customer fields and every line's stock, decrements stock, saves
// the order and clears the user's cart.
//
// The stock check and the decrements are separate, unlocked steps, so
// two concurrent orders for the same last units can both pass the
// check and drive stock negative. A storage fault after the decrement
// loop leaves stock reduced with no order record.
func (s *OrderService) PlaceOrder(userID string, req PlaceOrderRequest) (*models.Order, error) {
	if req.CustomerName == "" || req.Email == "" || req.Address == "" {
		return nil, apperrors.Validation("Missing required customer information")
	}
	if err := s.validate.Var(req.Email, "required,email"); err != nil {
		return nil, apperrors.Validation("Please provide a valid email")
	}
	if len(req.Items) == 0 {
		return nil, apperrors.Validation("Order must contain at least one item")
	}
	if req.Total < 0 {
		return nil, apperrors.Validation("Invalid total amount")
	}

	// Check stock for all lines before mutating anything.
	for _, item := range req.Items {
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.NotFound("Product %s not found", item.Name)
			}
			return nil, err
		}
		if product.Stock < item.Quantity {
			return nil, &apperrors.InsufficientStockError{
				Product:   product.Name,
				Available: product.Stock,
				Requested: item.Quantity,
			}
		}
	}

	// Deduct stock line by line.
	for _, item := range req.Items {
		if _, err := s.productRepo.AdjustStock(item.ProductID, -item.Quantity); err != nil {
			return nil, err
		}
	}

	order := &models.Order{
		UserID:       userID,
		CustomerName: req.CustomerName,
		Email:        req.Email,
		Address:      req.Address,
		Items:        req.Items,
		Total:        req.Total,
		Status:       models.OrderStatusCompleted,
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}

	// Clear the user's cart. Checkout is valid even if no cart exists.
	if cart, err := s.cartRepo.GetByUserID(userID); err == nil {
		cart.Items = []models.CartItem{}
		if err := s.cartRepo.Save(cart); err != nil {
			log.Printf("Warning: failed to clear cart for user %s: %v", userID, err)
		}
	}

	s.publishEvent("order.created", order)
	return order, nil
}

// CancelOrder cancels a pending order, restoring each line's quantity
// to the product's stock. Orders in any other status are rejected.
func (s *OrderService) CancelOrder(userID, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}

	if order.Status != models.OrderStatusPending {
		return nil, apperrors.InvalidTransition("Cannot cancel a completed or already cancelled order")
	}

	// Restore stock, symmetric with the placement decrement.
	for _, item := range order.Items {
		if _, err := s.productRepo.AdjustStock(item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
	}

	order.Status = models.OrderStatusCancelled
	if err := s.orderRepo.Save(order); err != nil {
		return nil, err
	}

	s.publishEvent("order.cancelled", order)
	return order, nil
}

// UpdateOrderStatus overwrites the status with any of the enumerated
// values. Unlike CancelOrder it has no stock side effects.
func (s *OrderService) UpdateOrderStatus(userID, orderID string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperrors.Validation("Invalid order status")
	}

	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}

	order.Status = status
	if err := s.orderRepo.Save(order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) publishEvent(event string, order *models.Order) {
	if s.mqClient == nil {
		return
	}
	err := s.mqClient.PublishOrderEvent(rabbitmq.OrderEvent{
		Event:   event,
		OrderID: order.ID,
		UserID:  order.UserID,
		Status:  string(order.Status),
		Total:   order.Total,
		At:      time.Now(),
	})
	if err != nil {
		log.Printf("Warning: failed to publish %s event for order %s: %v", event, order.ID, err)
	}
}
