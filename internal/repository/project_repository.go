package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"novalabs/internal/model"
)

// ProjectFilter narrows admin list queries. Zero values mean "no filter".
type ProjectFilter struct {
	Search string
	Status model.ProjectStatus
	UserID uint
	Limit  int
	Offset int
}

// ProjectRepository defines project persistence operations.
type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Project, error)
	FindByIDWithOwner(ctx context.Context, id uint) (*model.Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]model.Project, int64, error)
	CountByStatus(ctx context.Context, filter ProjectFilter) (map[model.ProjectStatus]int64, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	// CreateForPlanIfAbsent creates the project unless one already exists for
	// the (user, plan) pair. The check and the create run in one transaction
	// holding a row lock on the owning user, so concurrent webhook deliveries
	// converge on a single project.
	CreateForPlanIfAbsent(ctx context.Context, project *model.Project) (*model.Project, bool, error)
	// UpdateStatusForUser moves all of a user's projects currently in one of
	// the from statuses to the target status with the given phase label.
	UpdateStatusForUser(ctx context.Context, userID uint, from []model.ProjectStatus, to model.ProjectStatus, phase string) (int64, error)
	// AnnotatePhaseForUser rewrites the phase label without touching status.
	AnnotatePhaseForUser(ctx context.Context, userID uint, statuses []model.ProjectStatus, phase string) (int64, error)
}

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *projectRepository) Update(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}

func (r *projectRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Project{}, id).Error
}

func (r *projectRepository) FindByID(ctx context.Context, id uint) (*model.Project, error) {
	var project model.Project
	if err := r.db.WithContext(ctx).First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) FindByIDWithOwner(ctx context.Context, id uint) (*model.Project, error) {
	var project model.Project
	if err := r.db.WithContext(ctx).Preload("User").First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// escapeLike neutralizes LIKE metacharacters so a search for a literal "100%"
// does not turn into a wildcard match.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// filtered applies the WHERE clause shared by List and CountByStatus. Search
// matches the project name or the owner's name/email, case-insensitively.
func (r *projectRepository) filtered(ctx context.Context, filter ProjectFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Project{}).
		Joins("JOIN users ON users.id = projects.user_id")
	if filter.Search != "" {
		like := "%" + escapeLike(strings.ToLower(filter.Search)) + "%"
		q = q.Where("LOWER(projects.name) LIKE ? OR LOWER(users.name) LIKE ? OR LOWER(users.email) LIKE ?", like, like, like)
	}
	if filter.Status != "" {
		q = q.Where("projects.status = ?", filter.Status)
	}
	if filter.UserID != 0 {
		q = q.Where("projects.user_id = ?", filter.UserID)
	}
	return q
}

func (r *projectRepository) List(ctx context.Context, filter ProjectFilter) ([]model.Project, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []model.Project
	err := r.filtered(ctx, filter).
		Preload("User").
		Order("projects.updated_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&projects).Error
	if err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// CountByStatus aggregates over the full filtered set, not the returned page.
func (r *projectRepository) CountByStatus(ctx context.Context, filter ProjectFilter) (map[model.ProjectStatus]int64, error) {
	type row struct {
		Status model.ProjectStatus
		Count  int64
	}
	var rows []row
	err := r.filtered(ctx, filter).
		Select("projects.status AS status, COUNT(*) AS count").
		Group("projects.status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.ProjectStatus]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}

func (r *projectRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Project{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *projectRepository) CreateForPlanIfAbsent(ctx context.Context, project *model.Project) (*model.Project, bool, error) {
	var out *model.Project
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serialize provisioning per user before the existence check.
		var owner model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&owner, project.UserID).Error; err != nil {
			return err
		}

		var existing model.Project
		err := tx.Where("user_id = ? AND plan = ?", project.UserID, project.Plan).
			First(&existing).Error
		if err == nil {
			out = &existing
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		if err := tx.Create(project).Error; err != nil {
			return err
		}
		out = project
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, created, nil
}

func (r *projectRepository) UpdateStatusForUser(ctx context.Context, userID uint, from []model.ProjectStatus, to model.ProjectStatus, phase string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Project{}).
		Where("user_id = ? AND status IN ?", userID, from).
		Updates(map[string]interface{}{
			"status":        to,
			"current_phase": phase,
		})
	return res.RowsAffected, res.Error
}

func (r *projectRepository) AnnotatePhaseForUser(ctx context.Context, userID uint, statuses []model.ProjectStatus, phase string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Project{}).
		Where("user_id = ? AND status IN ?", userID, statuses).
		Update("current_phase", phase)
	return res.RowsAffected, res.Error
}
