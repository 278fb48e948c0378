package services

import (
	"errors"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// CartService handles the per-user shopping cart.
type CartService struct {
	cartRepo repositories.CartRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository) *CartService {
	return &CartService{cartRepo: cartRepo}
}

// GetCart returns the user's cart, or an empty cart structure if none
// has been created yet. A missing cart is not an error here.
func (s *CartService) GetCart(userID string) (*models.Cart, error) {
	cart, err := s.cartRepo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
		}
		return nil, err
	}
	return cart, nil
}

// AddItem appends a line for the product, or increments the quantity
// of an existing line. The cart is created on first use.
func (s *CartService) AddItem(userID string, item models.CartItem) (*models.Cart, error) {
	if item.ProductID == "" || item.Name == "" || item.Quantity < 1 {
		return nil, apperrors.Validation("Missing required fields")
	}

	cart, err := s.cartRepo.GetByUserID(userID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		cart = &models.Cart{UserID: userID, Items: []models.CartItem{item}}
		if err := s.cartRepo.Create(cart); err != nil {
			return nil, err
		}
		return cart, nil
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == item.ProductID {
			cart.Items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, item)
	}

	if err := s.cartRepo.Save(cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// SetQuantity overwrites the quantity of an existing line. A quantity
// of zero or less removes the line instead of storing it.
func (s *CartService) SetQuantity(userID, productID string, quantity int) (*models.Cart, error) {
	cart, err := s.cartRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, apperrors.NotFound("Item not found in cart")
	}

	if quantity <= 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	} else {
		cart.Items[idx].Quantity = quantity
	}

	if err := s.cartRepo.Save(cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem deletes the line for the product. Removing a line that is
// not present is not an error; a missing cart is.
func (s *CartService) RemoveItem(userID, productID string) (*models.Cart, error) {
	cart, err := s.cartRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}

	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	cart.Items = kept

	if err := s.cartRepo.Save(cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Clear empties the item list. The cart itself is kept.
func (s *CartService) Clear(userID string) (*models.Cart, error) {
	cart, err := s.cartRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}

	cart.Items = []models.CartItem{}
	if err := s.cartRepo.Save(cart); err != nil {
		return nil, err
	}
	return cart, nil
}
