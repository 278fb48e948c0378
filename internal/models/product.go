package models

import "time"

// Product represents a catalog entry. Stock is mutated by order
// placement (decrement) and order cancellation (increment).
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" validate:"required,min=3,max=100"`
	Price       float64   `json:"price" validate:"gte=0"`
	Description string    `json:"description" validate:"required,min=10,max=500"`
	Stock       int       `json:"stock" validate:"gte=0"`
	Category    string    `json:"category" validate:"required"`
	Image       string    `json:"image" validate:"omitempty,url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductUpdate carries a partial update. Nil fields are left unchanged.
type ProductUpdate struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description"`
	Stock       *int     `json:"stock"`
	Category    *string  `json:"category"`
	Image       *string  `json:"image"`
}
