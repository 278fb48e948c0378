package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"storefront/internal/handlers"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
)

var dbCounter int64

// setupApp builds a Fiber app backed by a fresh in-memory SQLite
// database with all handlers and services wired.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:itest%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.Cart{}, &models.Order{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	authService := services.NewAuthService(userRepo, cartRepo, "test_jwt_secret")
	productService := services.NewProductService(productRepo)
	cartService := services.NewCartService(cartRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, cartRepo, nil)

	app := fiber.New()
	api := app.Group("/api")
	handlers.NewAuthHandler(authService).RegisterRoutes(api)
	handlers.NewProductHandler(productService).RegisterRoutes(api)
	handlers.NewCartHandler(cartService, authService).RegisterRoutes(api)
	handlers.NewOrderHandler(orderService, authService).RegisterRoutes(api)

	return app
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)

	var decoded map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

// signupAndLogin registers a fresh user and returns a bearer token.
func signupAndLogin(t *testing.T, app *fiber.App, username string) string {
	t.Helper()

	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username":        username,
		"email":           username + "@example.com",
		"password":        "password123",
		"confirmPassword": "password123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	token, _ := body["token"].(string)
	assert.NotEmpty(t, token)
	return token
}

func createProduct(t *testing.T, app *fiber.App, name string, price float64, stock int) string {
	t.Helper()

	resp, body := doJSON(t, app, http.MethodPost, "/api/products/", "", map[string]interface{}{
		"name":        name,
		"price":       price,
		"description": "A product used by the integration tests",
		"stock":       stock,
		"category":    "Testing",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	id, _ := body["id"].(string)
	assert.NotEmpty(t, id)
	return id
}

func TestSignupAndLogin(t *testing.T) {
	app := setupApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username":        "alice",
		"email":           "alice@example.com",
		"password":        "password123",
		"confirmPassword": "password123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])

	// Duplicate signup is rejected.
	resp, body = doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username":        "alice",
		"email":           "alice@example.com",
		"password":        "password123",
		"confirmPassword": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "already exists")

	// Short passwords never reach the database.
	resp, body = doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username":        "bob",
		"email":           "bob@example.com",
		"password":        "abc",
		"confirmPassword": "abc",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "at least 6 characters")

	// Login succeeds with the right credentials.
	resp, body = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	token := body["token"].(string)
	assert.NotEmpty(t, token)

	// Wrong password and unknown email yield the same message.
	resp, wrongPw := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, unknown := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, wrongPw["error"], unknown["error"])

	// The token identifies its user.
	resp, body = doJSON(t, app, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	me := body["user"].(map[string]interface{})
	assert.Equal(t, "alice", me["username"])
}

func TestProductCRUD(t *testing.T) {
	app := setupApp(t)

	// Catalog endpoints are unauthenticated.
	id := createProduct(t, app, "Test Keyboard", 75.0, 25)

	resp, body := doJSON(t, app, http.MethodGet, "/api/products/"+id, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Test Keyboard", body["name"])

	// Partial update keeps unspecified fields.
	resp, body = doJSON(t, app, http.MethodPut, "/api/products/"+id, "", map[string]interface{}{
		"price": 60.0,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 60.0, body["price"])
	assert.Equal(t, "Test Keyboard", body["name"])

	// Constraint violations are rejected.
	resp, body = doJSON(t, app, http.MethodPost, "/api/products/", "", map[string]interface{}{
		"name":        "ab",
		"price":       10.0,
		"description": "A valid description here",
		"category":    "Testing",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body["error"])

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/products/"+id, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/products/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCartRequiresAuth(t *testing.T) {
	app := setupApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/cart/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/orders/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCartFlow(t *testing.T) {
	app := setupApp(t)
	token := signupAndLogin(t, app, "carol")
	productID := createProduct(t, app, "Test Mouse", 25.0, 50)

	// Signup created an empty cart.
	resp, body := doJSON(t, app, http.MethodGet, "/api/cart/", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["items"])

	resp, _ = doJSON(t, app, http.MethodPost, "/api/cart/add", token, map[string]interface{}{
		"productId": productID,
		"name":      "Test Mouse",
		"price":     25.0,
		"quantity":  2,
		"stock":     50,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/api/cart/", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	items := body["items"].([]interface{})
	assert.Len(t, items, 1)

	// Quantity zero removes the line.
	resp, _ = doJSON(t, app, http.MethodPut, "/api/cart/update/"+productID, token, map[string]interface{}{
		"quantity": 0,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/api/cart/", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["items"])

	// Updating a line that no longer exists is NotFound.
	resp, _ = doJSON(t, app, http.MethodPut, "/api/cart/update/"+productID, token, map[string]interface{}{
		"quantity": 1,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCheckoutFlow(t *testing.T) {
	app := setupApp(t)
	token := signupAndLogin(t, app, "dave")
	productID := createProduct(t, app, "Test Laptop", 1200.0, 5)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/cart/add", token, map[string]interface{}{
		"productId": productID,
		"name":      "Test Laptop",
		"price":     1200.0,
		"quantity":  2,
		"stock":     5,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Place the order.
	resp, order := doJSON(t, app, http.MethodPost, "/api/orders/", token, map[string]interface{}{
		"customer_name": "Dave Example",
		"email":         "dave@example.com",
		"address":       "42 Main Street",
		"items": []map[string]interface{}{
			{"product_id": productID, "name": "Test Laptop", "price": 1200.0, "quantity": 2},
		},
		"total": 2400.0,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "completed", order["status"])
	orderID := order["id"].(string)

	// Stock is decremented and the cart cleared.
	resp, product := doJSON(t, app, http.MethodGet, "/api/products/"+productID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3.0, product["stock"])

	resp, cart := doJSON(t, app, http.MethodGet, "/api/cart/", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, cart["items"])

	// The order shows up in the history.
	req := httptest.NewRequest(http.MethodGet, "/api/orders/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	listResp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, listResp.StatusCode)
	var orders []map[string]interface{}
	assert.NoError(t, json.NewDecoder(listResp.Body).Decode(&orders))
	listResp.Body.Close()
	assert.Len(t, orders, 1)
	assert.Equal(t, orderID, orders[0]["id"])

	// Ordering more than the remaining stock fails without side effects.
	resp, body := doJSON(t, app, http.MethodPost, "/api/orders/", token, map[string]interface{}{
		"customer_name": "Dave Example",
		"email":         "dave@example.com",
		"address":       "42 Main Street",
		"items": []map[string]interface{}{
			{"product_id": productID, "name": "Test Laptop", "price": 1200.0, "quantity": 4},
		},
		"total": 4800.0,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "Insufficient stock")
	assert.Contains(t, body["error"], "Available: 3")
	assert.Contains(t, body["error"], "Requested: 4")

	resp, product = doJSON(t, app, http.MethodGet, "/api/products/"+productID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3.0, product["stock"])
}

func TestCancelFlow(t *testing.T) {
	app := setupApp(t)
	token := signupAndLogin(t, app, "erin")
	productID := createProduct(t, app, "Test Webcam", 1299.0, 10)

	resp, order := doJSON(t, app, http.MethodPost, "/api/orders/", token, map[string]interface{}{
		"customer_name": "Erin Example",
		"email":         "erin@example.com",
		"address":       "7 Side Street",
		"items": []map[string]interface{}{
			{"product_id": productID, "name": "Test Webcam", "price": 1299.0, "quantity": 3},
		},
		"total": 3897.0,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	orderID := order["id"].(string)

	// Orders are placed as completed, so cancel is rejected up front.
	resp, body := doJSON(t, app, http.MethodPost, "/api/orders/"+orderID+"/cancel", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "Cannot cancel")

	// Overwrite the status back to pending via the generic update.
	resp, _ = doJSON(t, app, http.MethodPut, "/api/orders/"+orderID, token, map[string]interface{}{
		"status": "pending",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Now the cancel path restores the stock.
	resp, body = doJSON(t, app, http.MethodPost, "/api/orders/"+orderID+"/cancel", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cancelled", body["status"])

	resp, product := doJSON(t, app, http.MethodGet, "/api/products/"+productID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 10.0, product["stock"])

	// Statuses outside the enumeration are rejected.
	resp, _ = doJSON(t, app, http.MethodPut, "/api/orders/"+orderID, token, map[string]interface{}{
		"status": "shipped",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Another user cannot see or touch the order.
	otherToken := signupAndLogin(t, app, "frank")
	resp, _ = doJSON(t, app, http.MethodGet, "/api/orders/"+orderID, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
