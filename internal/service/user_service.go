package service

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "novalabs/internal/errors"
	"novalabs/internal/model"
	"novalabs/internal/repository"
)

// CreateUserInput is a manual admin user creation.
type CreateUserInput struct {
	Email    string
	Name     string
	Role     model.UserRole
	Phone    string
	Company  string
	Password string // optional; empty leaves the account without a credential
}

// UserService exposes admin user operations.
type UserService interface {
	List(ctx context.Context) ([]repository.UserWithProjectCount, error)
	Get(ctx context.Context, id uint) (*model.User, error)
	Create(ctx context.Context, input CreateUserInput) (*model.User, error)
}

type userService struct {
	users repository.UserRepository
}

// NewUserService builds a UserService.
func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) List(ctx context.Context) ([]repository.UserWithProjectCount, error) {
	return s.users.ListWithProjectCounts(ctx)
}

func (s *userService) Get(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) Create(ctx context.Context, input CreateUserInput) (*model.User, error) {
	role := input.Role
	if role == "" {
		role = model.RoleUser
	}
	user := &model.User{
		Email:   input.Email,
		Name:    input.Name,
		Role:    role,
		Phone:   input.Phone,
		Company: input.Company,
	}
	if input.Password != "" {
		if len(input.Password) < minPasswordLength {
			return nil, apperrors.ErrPasswordTooShort
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hashed)
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
