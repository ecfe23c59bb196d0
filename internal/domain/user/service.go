// internal/domain/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/farmmarket-backend/internal/config"
	"github.com/your-org/farmmarket-backend/internal/pkg/apperr"
	"github.com/your-org/farmmarket-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// Service handles signup, login and profile business logic
type Service struct {
	db              *gorm.DB
	config          *config.Config
	passwordManager *auth.PasswordManager
	jwtManager      *auth.JWTManager
}

// NewService creates a new user service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:              db,
		config:          cfg,
		passwordManager: auth.NewPasswordManager(cfg),
		jwtManager:      auth.NewJWTManager(cfg),
	}
}

// SignupRequest represents user registration data
type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Location string `json:"location"`
	UserType string `json:"user_type"`
}

// LoginRequest represents a username/password login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// PhoneLoginRequest represents the farmer phone login flow
type PhoneLoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignupResponse is the public view of a freshly created principal
type SignupResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	UserType Role   `json:"user_type"`
}

// Signup creates a new principal. Username, email and phone must each be
// unique; violations surface as Conflict.
func (s *Service) Signup(ctx context.Context, req *SignupRequest) (*SignupResponse, error) {
	role, err := ParseRole(req.UserType)
	if err != nil {
		return nil, fmt.Errorf("unknown user type %q: %w", req.UserType, apperr.ErrConflict)
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		return nil, apperr.FromContext(ctx, err)
	}
	if count > 0 {
		return nil, fmt.Errorf("username already exists: %w", apperr.ErrConflict)
	}

	if req.Email != "" {
		if err := db.Model(&User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
			return nil, apperr.FromContext(ctx, err)
		}
		if count > 0 {
			return nil, fmt.Errorf("email already exists: %w", apperr.ErrConflict)
		}
	}

	if req.Phone != "" {
		if err := db.Model(&User{}).Where("phone = ?", req.Phone).Count(&count).Error; err != nil {
			return nil, apperr.FromContext(ctx, err)
		}
		if count > 0 {
			return nil, fmt.Errorf("phone already exists: %w", apperr.ErrConflict)
		}
	}

	hashedPassword, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser := User{
		Username: req.Username,
		Password: hashedPassword,
		FullName: req.FullName,
		Address:  req.Address,
		Location: req.Location,
		Role:     role,
		IsActive: true,
	}
	if req.Email != "" {
		newUser.Email = &req.Email
	}
	if req.Phone != "" {
		newUser.Phone = &req.Phone
	}

	if err := db.Create(&newUser).Error; err != nil {
		// A concurrent signup can slip past the pre-checks and land on the
		// unique index instead.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("user already exists: %w", apperr.ErrConflict)
		}
		return nil, apperr.FromContext(ctx, fmt.Errorf("failed to create user: %w", err))
	}

	logrus.WithFields(logrus.Fields{
		"user_id":   newUser.ID,
		"user_type": newUser.Role,
	}).Info("user registered")

	return &SignupResponse{
		ID:       newUser.ID,
		Username: newUser.Username,
		UserType: newUser.Role,
	}, nil
}

// Login authenticates by username and issues a token pair. Unknown user and
// bad password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*auth.TokenPair, error) {
	var u User
	err := s.db.WithContext(ctx).Where("username = ? AND is_active = ?", req.Username, true).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrUnauthorized
		}
		return nil, apperr.FromContext(ctx, err)
	}

	if !s.passwordManager.VerifyPassword(req.Password, u.Password) {
		return nil, apperr.ErrUnauthorized
	}

	return s.jwtManager.IssuePair(u.ID, "")
}

// LoginWithPhone authenticates by phone number (farmer flow).
func (s *Service) LoginWithPhone(ctx context.Context, req *PhoneLoginRequest) (*auth.TokenPair, error) {
	var u User
	err := s.db.WithContext(ctx).Where("phone = ? AND is_active = ?", req.Phone, true).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrUnauthorized
		}
		return nil, apperr.FromContext(ctx, err)
	}

	if !s.passwordManager.VerifyPassword(req.Password, u.Password) {
		return nil, apperr.ErrUnauthorized
	}

	return s.jwtManager.IssuePair(u.ID, "")
}

// Refresh validates a refresh token, re-resolves the principal and issues a
// fresh access token. The presented refresh token is reused unless rotation
// is configured.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	var u User
	err = s.db.WithContext(ctx).Where("id = ? AND is_active = ?", claims.UserID, true).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrUnauthorized
		}
		return nil, apperr.FromContext(ctx, err)
	}

	return s.jwtManager.IssuePair(u.ID, refreshToken)
}

// GetProfile gets user profile by ID
func (s *Service) GetProfile(ctx context.Context, userID uint) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", userID, true).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.FromContext(ctx, err)
	}

	u.Password = ""
	return &u, nil
}

// UpdateProfile updates mutable profile fields. Role, password and account
// flags cannot be changed through this path.
func (s *Service) UpdateProfile(ctx context.Context, userID uint, updates map[string]interface{}) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", userID, true).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.FromContext(ctx, err)
	}

	delete(updates, "password")
	delete(updates, "role")
	delete(updates, "user_type")
	delete(updates, "is_active")
	delete(updates, "username")

	if err := s.db.WithContext(ctx).Model(&u).Updates(updates).Error; err != nil {
		return nil, apperr.FromContext(ctx, fmt.Errorf("failed to update profile: %w", err))
	}

	u.Password = ""
	return &u, nil
}

// FindByID resolves a principal for authorization decisions. Called on every
// gated request so role changes take effect immediately.
func (s *Service) FindByID(ctx context.Context, userID uint) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).First(&u, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrUnauthorized
		}
		return nil, apperr.FromContext(ctx, err)
	}
	return &u, nil
}
