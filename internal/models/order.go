package models

import "time"

// OrderStatus enumerates the order state machine.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is one of the enumerated statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderItem is a denormalized snapshot of a product line at purchase
// time. Later edits to the product must not change past orders.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// Order represents a placed order. Items and total are immutable after
// creation; only Status changes afterwards.
type Order struct {
	ID           string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID       string      `json:"user_id" gorm:"index;type:varchar(36)"`
	CustomerName string      `json:"customer_name" validate:"required"`
	Email        string      `json:"email" validate:"required,email"`
	Address      string      `json:"address" validate:"required"`
	Items        []OrderItem `json:"items" gorm:"serializer:json"`
	Total        float64     `json:"total" validate:"gte=0"`
	Status       OrderStatus `json:"status" gorm:"type:varchar(20)"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
