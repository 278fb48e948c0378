package services

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// AuthService handles signup, login and bearer-token verification.
// The signing secret is injected once at construction and never
// mutated afterwards.
type AuthService struct {
	userRepo  repositories.UserRepository
	cartRepo  repositories.CartRepository
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, cartRepo repositories.CartRepository, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		cartRepo:  cartRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  7 * 24 * time.Hour,
	}
}

// SignupRequest is the payload accepted by Register.
type SignupRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Register creates a new user with a hashed password and, as a side
// effect, an empty cart owned by that user.
func (s *AuthService) Register(req SignupRequest) (*models.User, error) {
	if req.Username == "" || req.Email == "" || req.Password == "" || req.ConfirmPassword == "" {
		return nil, apperrors.Validation("All fields are required")
	}
	if req.Password != req.ConfirmPassword {
		return nil, apperrors.Validation("Passwords do not match")
	}
	if len(req.Password) < 6 {
		return nil, apperrors.Validation("Password must be at least 6 characters")
	}

	if existing, err := s.userRepo.GetByUsername(req.Username); err == nil && existing != nil {
		return nil, apperrors.Conflict("Email or username already exists")
	}
	if existing, err := s.userRepo.GetByEmail(req.Email); err == nil && existing != nil {
		return nil, apperrors.Conflict("Email or username already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashedPassword),
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	cart := &models.Cart{UserID: user.ID, Items: []models.CartItem{}}
	if err := s.cartRepo.Create(cart); err != nil {
		return nil, fmt.Errorf("failed to create cart for user %s: %w", user.ID, err)
	}

	return user, nil
}

// Login authenticates by email and returns the user on success. The
// error message is identical whether the email is unknown or the
// password is wrong.
func (s *AuthService) Login(email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, apperrors.Validation("Email and password are required")
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperrors.Unauthorized("Invalid email or password")
	}
	return user, nil
}

// FindByID looks up a user by ID.
func (s *AuthService) FindByID(id string) (*models.User, error) {
	return s.userRepo.GetByID(id)
}

// IssueToken produces a signed token for the user, valid for 7 days.
func (s *AuthService) IssueToken(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(s.tokenTTL).Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken verifies signature and expiry and returns the user ID
// the token was issued for.
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", apperrors.Unauthorized("Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", apperrors.Unauthorized("Invalid token")
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", apperrors.Unauthorized("Invalid token")
	}
	return userID, nil
}
