package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/campus-studyhub-api/internal/models"
	"github.com/noah-isme/campus-studyhub-api/internal/repository"
	appErrors "github.com/noah-isme/campus-studyhub-api/pkg/errors"
)

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// UserService handles account creation.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// Register creates a STUDENT account. The role is never taken from the request.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.UserInfo, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	user, err := s.create(ctx, req.FullName, req.Email, req.Password, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	return &models.UserInfo{ID: user.ID, Email: user.Email, FullName: user.FullName, Role: user.Role}, nil
}

// EnsureAdmin creates the bootstrap ADMIN account unless the email is already taken.
// It reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password, fullName string) (bool, error) {
	if email == "" || password == "" {
		return false, appErrors.Clone(appErrors.ErrValidation, "admin email and password are required")
	}
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return false, appErrors.Internal(err, "failed to check admin account")
	}

	user, err := s.create(ctx, fullName, email, password, models.RoleAdmin)
	if err != nil {
		if errors.Is(err, appErrors.ErrConflict) {
			return false, nil
		}
		return false, err
	}
	s.logger.Info("admin account created", zap.Int64("user_id", user.ID), zap.String("email", user.Email))
	return true, nil
}

func (s *UserService) create(ctx context.Context, fullName, email, password string, role models.UserRole) (*models.User, error) {
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	user := &models.User{FullName: fullName, Email: email, PasswordHash: string(hash), Role: role}
	if err := s.repo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, appErrors.Internal(err, "failed to create user")
	}
	return user, nil
}
