package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"novalabs/internal/billing"
	apperrors "novalabs/internal/errors"
	"novalabs/internal/model"
	"novalabs/internal/repository"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ProjectListParams are the admin list query parameters after defaulting.
type ProjectListParams struct {
	Page   int
	Limit  int
	Search string
	Status string // "all" or an exact enum value
	UserID uint
}

// OwnerSummary is the project owner enrichment in list responses.
type OwnerSummary struct {
	ID    uint           `json:"id"`
	Name  string         `json:"name"`
	Email string         `json:"email"`
	Role  model.UserRole `json:"role"`
}

// ProjectView is one project row enriched with its owner.
type ProjectView struct {
	model.Project
	Owner OwnerSummary `json:"owner"`
}

// ProjectStats aggregates status counts over the full filtered set.
type ProjectStats struct {
	Total    int64                         `json:"total"`
	ByStatus map[model.ProjectStatus]int64 `json:"by_status"`
}

// Pagination is the list paging metadata.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// ProjectListResult is the full admin list response body.
type ProjectListResult struct {
	Projects   []ProjectView `json:"projects"`
	Stats      ProjectStats  `json:"stats"`
	Pagination Pagination    `json:"pagination"`
}

// CreateProjectInput carries the required fields for a manual admin create.
type CreateProjectInput struct {
	Name   string
	UserID uint
	Plan   model.PlanType
	Status model.ProjectStatus
}

// UpdateProjectInput applies partial update semantics: nil means "not
// provided"; explicit zero values (progress 0) still update.
type UpdateProjectInput struct {
	Name              *string
	Status            *model.ProjectStatus
	Progress          *int
	CurrentPhase      *string
	EstimatedDelivery *string
	Plan              *model.PlanType
}

// ProjectService exposes the admin project operations.
type ProjectService interface {
	List(ctx context.Context, params ProjectListParams) (*ProjectListResult, error)
	Get(ctx context.Context, id uint) (*model.Project, error)
	Create(ctx context.Context, input CreateProjectInput) (*model.Project, error)
	Update(ctx context.Context, id uint, input UpdateProjectInput) (*model.Project, error)
	Delete(ctx context.Context, id uint) error
}

type projectService struct {
	projects repository.ProjectRepository
	users    repository.UserRepository
}

// NewProjectService builds a ProjectService.
func NewProjectService(projects repository.ProjectRepository, users repository.UserRepository) ProjectService {
	return &projectService{projects: projects, users: users}
}

func (s *projectService) List(ctx context.Context, params ProjectListParams) (*ProjectListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = defaultPageSize
	}
	if params.Limit > maxPageSize {
		params.Limit = maxPageSize
	}

	filter := repository.ProjectFilter{
		Search: params.Search,
		UserID: params.UserID,
		Limit:  params.Limit,
		Offset: (params.Page - 1) * params.Limit,
	}
	if params.Status != "" && params.Status != "all" {
		status := model.ProjectStatus(params.Status)
		if !model.ValidStatus(status) {
			return nil, apperrors.ErrInvalidStatus
		}
		filter.Status = status
	}

	projects, total, err := s.projects.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	counts, err := s.projects.CountByStatus(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}

	views := make([]ProjectView, 0, len(projects))
	for _, p := range projects {
		views = append(views, ProjectView{
			Project: p,
			Owner: OwnerSummary{
				ID:    p.User.ID,
				Name:  p.User.Name,
				Email: p.User.Email,
				Role:  p.User.Role,
			},
		})
	}

	totalPages := int((total + int64(params.Limit) - 1) / int64(params.Limit))
	return &ProjectListResult{
		Projects: views,
		Stats: ProjectStats{
			Total:    total,
			ByStatus: counts,
		},
		Pagination: Pagination{
			Page:       params.Page,
			Limit:      params.Limit,
			TotalCount: total,
			TotalPages: totalPages,
			HasNext:    params.Page < totalPages,
			HasPrev:    params.Page > 1,
		},
	}, nil
}

func (s *projectService) Get(ctx context.Context, id uint) (*model.Project, error) {
	project, err := s.projects.FindByIDWithOwner(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

func (s *projectService) Create(ctx context.Context, input CreateProjectInput) (*model.Project, error) {
	if _, err := s.users.FindByID(ctx, input.UserID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}

	plan := input.Plan
	if plan == "" {
		plan = model.PlanRocket
	}
	if !model.ValidPlan(plan) {
		return nil, apperrors.ErrInvalidPlan
	}
	status := input.Status
	if status == "" {
		status = model.StatusEnDesarrollo
	}
	if !model.ValidStatus(status) {
		return nil, apperrors.ErrInvalidStatus
	}

	// Manual creation bypasses the one-project-per-plan provisioning rule on purpose.
	project := &model.Project{
		Name:              input.Name,
		UserID:            input.UserID,
		Status:            status,
		Progress:          0,
		CurrentPhase:      phaseInitialSetup,
		EstimatedDelivery: billing.PlanForType(plan).EstimatedDelivery,
		Plan:              plan,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return project, nil
}

func (s *projectService) Update(ctx context.Context, id uint, input UpdateProjectInput) (*model.Project, error) {
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, err
	}

	if input.Name != nil {
		project.Name = *input.Name
	}
	if input.Status != nil {
		if !model.ValidStatus(*input.Status) {
			return nil, apperrors.ErrInvalidStatus
		}
		project.Status = *input.Status
	}
	if input.Progress != nil {
		if *input.Progress < 0 || *input.Progress > 100 {
			return nil, apperrors.ErrInvalidProgress
		}
		project.Progress = *input.Progress
	}
	if input.CurrentPhase != nil {
		project.CurrentPhase = *input.CurrentPhase
	}
	if input.EstimatedDelivery != nil {
		project.EstimatedDelivery = *input.EstimatedDelivery
	}
	if input.Plan != nil {
		if !model.ValidPlan(*input.Plan) {
			return nil, apperrors.ErrInvalidPlan
		}
		project.Plan = *input.Plan
	}

	if err := s.projects.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return project, nil
}

func (s *projectService) Delete(ctx context.Context, id uint) error {
	if _, err := s.projects.FindByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.ErrProjectNotFound
		}
		return err
	}
	return s.projects.Delete(ctx, id)
}
