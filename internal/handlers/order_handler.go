package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"
)

// OrderHandler handles HTTP requests for orders. All routes require a
// bearer token and operate only on the caller's own orders.
type OrderHandler struct {
	service     *services.OrderService
	authService *services.AuthService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, authService *services.AuthService) *OrderHandler {
	return &OrderHandler{service: service, authService: authService}
}

// RegisterRoutes registers the order routes.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders", middleware.AuthRequired(h.authService))
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/", h.HandlePlaceOrder)
	orderRoutes.Put("/:id", h.HandleUpdateOrderStatus)
	orderRoutes.Post("/:id/cancel", h.HandleCancelOrder)
}

// HandleGetOrders lists the caller's orders, most recent first.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListOrders(middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves one of the caller's orders.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrder(middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// HandlePlaceOrder runs the checkout workflow for the caller's cart
// contents.
func (h *OrderHandler) HandlePlaceOrder(c *fiber.Ctx) error {
	var req services.PlaceOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	order, err := h.service.PlaceOrder(middleware.UserID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleUpdateOrderStatus overwrites an order's status.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	order, err := h.service.UpdateOrderStatus(middleware.UserID(c), c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// HandleCancelOrder cancels a pending order and restores stock.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	order, err := h.service.CancelOrder(middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}
