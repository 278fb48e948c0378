package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"
)

// CartHandler handles HTTP requests for the caller's own cart. All
// routes require a bearer token.
type CartHandler struct {
	service     *services.CartService
	authService *services.AuthService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService, authService *services.AuthService) *CartHandler {
	return &CartHandler{service: service, authService: authService}
}

// RegisterRoutes registers the cart routes.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart", middleware.AuthRequired(h.authService))
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/add", h.HandleAddItem)
	cartRoutes.Put("/update/:productId", h.HandleUpdateItem)
	cartRoutes.Delete("/remove/:productId", h.HandleRemoveItem)
	cartRoutes.Post("/clear", h.HandleClearCart)
}

// HandleGetCart returns the caller's cart, empty if never created.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	cart, err := h.service.GetCart(middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"items": cart.Items})
}

// AddItemRequest is the payload for adding a line to the cart. Name,
// price and stock are snapshots of the product at add time.
type AddItemRequest struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Stock     int     `json:"stock"`
}

// HandleAddItem appends or merges a line into the caller's cart.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	cart, err := h.service.AddItem(middleware.UserID(c), models.CartItem{
		ProductID: req.ProductID,
		Name:      req.Name,
		Price:     req.Price,
		Quantity:  req.Quantity,
		Stock:     req.Stock,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cart)
}

// HandleUpdateItem overwrites a line's quantity; zero or less removes
// the line.
func (h *CartHandler) HandleUpdateItem(c *fiber.Ctx) error {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	cart, err := h.service.SetQuantity(middleware.UserID(c), c.Params("productId"), req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cart)
}

// HandleRemoveItem removes a line from the caller's cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	cart, err := h.service.RemoveItem(middleware.UserID(c), c.Params("productId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cart)
}

// HandleClearCart empties the caller's cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	cart, err := h.service.Clear(middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cart)
}
