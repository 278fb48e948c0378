package services

import (
	"github.com/go-playground/validator/v10"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// ProductService handles business logic related to the catalog.
type ProductService struct {
	repo     repositories.ProductRepository
	validate *validator.Validate
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo:     repo,
		validate: validator.New(),
	}
}

// GetAllProducts retrieves all products, newest first.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct validates the field constraints and persists a new
// product.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if err := s.validateProduct(product); err != nil {
		return err
	}
	return s.repo.Create(product)
}

// UpdateProduct applies a partial update; fields left nil in the
// request keep their current value.
func (s *ProductService) UpdateProduct(id string, update models.ProductUpdate) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		product.Name = *update.Name
	}
	if update.Price != nil {
		product.Price = *update.Price
	}
	if update.Description != nil {
		product.Description = *update.Description
	}
	if update.Stock != nil {
		product.Stock = *update.Stock
	}
	if update.Category != nil {
		product.Category = *update.Category
	}
	if update.Image != nil {
		product.Image = *update.Image
	}

	if err := s.validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.repo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id string) error {
	return s.repo.Delete(id)
}

// AdjustStock applies stock += delta. Sufficiency on decrement is the
// caller's responsibility, not enforced here.
func (s *ProductService) AdjustStock(id string, delta int) (*models.Product, error) {
	return s.repo.AdjustStock(id, delta)
}

func (s *ProductService) validateProduct(product *models.Product) error {
	if err := s.validate.Struct(product); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok || len(validationErrors) == 0 {
			return apperrors.Validation("Invalid product data")
		}
		return apperrors.Validation("%s", productErrorMessage(validationErrors[0]))
	}
	return nil
}

// productErrorMessage maps the first failed constraint to a
// user-facing message.
func productErrorMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Name":
		return "Product name must be at least 3 characters"
	case "Description":
		return "Description must be at least 10 characters"
	case "Price":
		return "Price cannot be negative"
	case "Stock":
		return "Stock cannot be negative"
	case "Category":
		return "Category is required"
	case "Image":
		return "Image must be a valid URL"
	}
	return "Invalid product data"
}
