package repository

import (
	"context"

	"gorm.io/gorm"

	"novalabs/internal/model"
)

// UserWithProjectCount is a user row joined with how many projects it owns.
type UserWithProjectCount struct {
	model.User
	ProjectCount int64 `json:"project_count"`
}

// UserRepository defines user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindOrCreateByEmail(ctx context.Context, user *model.User) (*model.User, error)
	ListWithProjectCounts(ctx context.Context) ([]UserWithProjectCount, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindOrCreateByEmail returns the existing user for the email or creates the
// given record. Webhook redeliveries hit the existing branch.
func (r *userRepository) FindOrCreateByEmail(ctx context.Context, user *model.User) (*model.User, error) {
	var existing model.User
	err := r.db.WithContext(ctx).Where("email = ?", user.Email).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) ListWithProjectCounts(ctx context.Context) ([]UserWithProjectCount, error) {
	var rows []UserWithProjectCount
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Select("users.*, COUNT(projects.id) AS project_count").
		Joins("LEFT JOIN projects ON projects.user_id = users.id").
		Group("users.id").
		Order("users.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
