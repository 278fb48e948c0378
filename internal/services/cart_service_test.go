package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
)

func newCartService() *services.CartService {
	return services.NewCartService(repositories.NewMockCartRepository())
}

func TestCartService_GetCartWhenAbsent(t *testing.T) {
	service := newCartService()

	cart, err := service.GetCart("user-1")
	assert.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, "user-1", cart.UserID)
}

func TestCartService_AddItemCreatesAndMerges(t *testing.T) {
	service := newCartService()

	item := models.CartItem{ProductID: "prod-1", Name: "Laptop", Price: 1200, Quantity: 1, Stock: 10}
	cart, err := service.AddItem("user-1", item)
	assert.NoError(t, err)
	assert.Len(t, cart.Items, 1)

	// Adding the same product again increments the existing line.
	cart, err = service.AddItem("user-1", item)
	assert.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)

	// A different product gets its own line.
	cart, err = service.AddItem("user-1", models.CartItem{ProductID: "prod-2", Name: "Mouse", Price: 25, Quantity: 3, Stock: 50})
	assert.NoError(t, err)
	assert.Len(t, cart.Items, 2)
}

func TestCartService_AddItemValidation(t *testing.T) {
	service := newCartService()

	_, err := service.AddItem("user-1", models.CartItem{ProductID: "prod-1", Name: "Laptop", Quantity: 0})
	assert.Error(t, err)

	_, err = service.AddItem("user-1", models.CartItem{Name: "Laptop", Quantity: 1})
	assert.Error(t, err)
}

func TestCartService_SetQuantity(t *testing.T) {
	service := newCartService()

	_, err := service.AddItem("user-1", models.CartItem{ProductID: "prod-1", Name: "Laptop", Price: 1200, Quantity: 5, Stock: 10})
	assert.NoError(t, err)

	cart, err := service.SetQuantity("user-1", "prod-1", 2)
	assert.NoError(t, err)
	assert.Equal(t, 2, cart.Items[0].Quantity)

	// Quantity zero removes the line instead of storing it.
	cart, err = service.SetQuantity("user-1", "prod-1", 0)
	assert.NoError(t, err)
	assert.Empty(t, cart.Items)

	fetched, err := service.GetCart("user-1")
	assert.NoError(t, err)
	assert.Empty(t, fetched.Items)
}

func TestCartService_SetQuantityErrors(t *testing.T) {
	service := newCartService()

	// No cart at all.
	_, err := service.SetQuantity("user-1", "prod-1", 2)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Cart not found")

	// Cart exists but the line does not.
	_, err = service.AddItem("user-1", models.CartItem{ProductID: "prod-1", Name: "Laptop", Price: 1200, Quantity: 1, Stock: 10})
	assert.NoError(t, err)
	_, err = service.SetQuantity("user-1", "prod-2", 2)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Item not found in cart")
}

func TestCartService_AddRemoveRoundTrip(t *testing.T) {
	service := newCartService()

	_, err := service.AddItem("user-1", models.CartItem{ProductID: "prod-1", Name: "Laptop", Price: 1200, Quantity: 1, Stock: 10})
	assert.NoError(t, err)

	cart, err := service.RemoveItem("user-1", "prod-1")
	assert.NoError(t, err)
	assert.Empty(t, cart.Items)

	// Equivalent to a freshly created cart.
	fetched, err := service.GetCart("user-1")
	assert.NoError(t, err)
	assert.Empty(t, fetched.Items)

	// Removing an absent line is not an error.
	_, err = service.RemoveItem("user-1", "prod-1")
	assert.NoError(t, err)

	// Removing from a missing cart is.
	_, err = service.RemoveItem("user-2", "prod-1")
	assert.Error(t, err)
}

func TestCartService_Clear(t *testing.T) {
	service := newCartService()

	_, err := service.Clear("user-1")
	assert.Error(t, err)

	_, err = service.AddItem("user-1", models.CartItem{ProductID: "prod-1", Name: "Laptop", Price: 1200, Quantity: 2, Stock: 10})
	assert.NoError(t, err)

	cart, err := service.Clear("user-1")
	assert.NoError(t, err)
	assert.Empty(t, cart.Items)
}
