package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"novalabs/internal/model"
)

// OnboardingRepository defines onboarding persistence operations.
type OnboardingRepository interface {
	FindByProject(ctx context.Context, projectID uint) (*model.OnboardingResponse, error)
	// Upsert writes the full record keyed by project id. Every step update
	// from the client triggers one of these.
	Upsert(ctx context.Context, response *model.OnboardingResponse) error
	DeleteByProject(ctx context.Context, projectID uint) error
}

type onboardingRepository struct {
	db *gorm.DB
}

// NewOnboardingRepository creates a new onboarding repository.
func NewOnboardingRepository(db *gorm.DB) OnboardingRepository {
	return &onboardingRepository{db: db}
}

func (r *onboardingRepository) FindByProject(ctx context.Context, projectID uint) (*model.OnboardingResponse, error) {
	var response model.OnboardingResponse
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).First(&response).Error; err != nil {
		return nil, err
	}
	return &response, nil
}

func (r *onboardingRepository) Upsert(ctx context.Context, response *model.OnboardingResponse) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "project_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"business_info", "objectives", "content_architecture",
			"brand_design", "technical_setup", "project_planning",
			"completed_steps", "status", "submitted_at", "updated_at",
		}),
	}).Create(response).Error
}

func (r *onboardingRepository) DeleteByProject(ctx context.Context, projectID uint) error {
	return r.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&model.OnboardingResponse{}).Error
}
