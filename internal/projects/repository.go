package projects

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/apperr"
	"github.com/RudyEaglevanBreda/drone-ops-manager/pkg/workflows"
)

type Repository interface {
	Create(ctx context.Context, project *Project, activity *ProjectActivity) error
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]Project, error)
	UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any, activity *ProjectActivity) error
	// UpdateStatus moves the project from one status to another only if it is
	// still in from. It returns apperr.ErrStatusConflict otherwise.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to workflows.Status, changedBy uuid.UUID) error
	ListStatusHistory(ctx context.Context, id uuid.UUID) ([]ProjectStatusHistory, error)
	ListActivities(ctx context.Context, id uuid.UUID, limit int) ([]ProjectActivity, error)

	ListWithoutFolder(ctx context.Context, limit int) ([]Project, error)
	SetFolder(ctx context.Context, id uuid.UUID, folderID, folderName string) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, project *Project, activity *ProjectActivity) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}
		if activity != nil {
			activity.ProjectID = project.ID
			if err := tx.Create(activity).Error; err != nil {
				return fmt.Errorf("failed to log project activity: %w", err)
			}
		}
		return nil
	})
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	var project Project
	err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.ErrNotFound, "Project not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

func (r *gormRepository) List(ctx context.Context, filter ProjectFilter) ([]Project, error) {
	query := r.db.WithContext(ctx).Model(&Project{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status.String())
	}
	if filter.ClientName != "" {
		query = query.Where("client_name ILIKE ?", "%"+filter.ClientName+"%")
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("project_name ILIKE ? OR code ILIKE ?", like, like)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var projects []Project
	if err := query.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

func (r *gormRepository) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any, activity *ProjectActivity) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		columns := make(map[string]any, len(updates)+1)
		for k, v := range updates {
			columns[k] = v
		}
		columns["updated_at"] = time.Now()

		result := tx.Model(&Project{}).Where("id = ?", id).Updates(columns)
		if result.Error != nil {
			return fmt.Errorf("failed to update project: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperr.New(apperr.ErrNotFound, "Project not found")
		}
		if activity != nil {
			activity.ProjectID = id
			if err := tx.Create(activity).Error; err != nil {
				return fmt.Errorf("failed to log project activity: %w", err)
			}
		}
		return nil
	})
}

func (r *gormRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to workflows.Status, changedBy uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&Project{}).
			Where("id = ? AND status = ?", id, from.String()).
			Updates(map[string]any{
				"status":     to.String(),
				"updated_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update project status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&Project{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check project: %w", err)
			}
			if count == 0 {
				return apperr.New(apperr.ErrNotFound, "Project not found")
			}
			return apperr.ErrStatusConflict
		}

		history := &ProjectStatusHistory{
			ProjectID:  id,
			FromStatus: from,
			ToStatus:   to,
			ChangedAt:  now,
			ChangedBy:  changedBy,
		}
		if err := tx.Create(history).Error; err != nil {
			return fmt.Errorf("failed to record status history: %w", err)
		}

		activity := &ProjectActivity{
			ProjectID:    id,
			ActivityType: ActivityStatusChanged,
			Description:  fmt.Sprintf("Status changed from %s to %s", from, to),
			CreatedAt:    now,
			UserID:       changedBy,
		}
		if err := tx.Create(activity).Error; err != nil {
			return fmt.Errorf("failed to log project activity: %w", err)
		}
		return nil
	})
}

func (r *gormRepository) ListStatusHistory(ctx context.Context, id uuid.UUID) ([]ProjectStatusHistory, error) {
	var history []ProjectStatusHistory
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", id).
		Order("changed_at DESC").
		Find(&history).Error; err != nil {
		return nil, fmt.Errorf("failed to get status history: %w", err)
	}
	return history, nil
}

func (r *gormRepository) ListActivities(ctx context.Context, id uuid.UUID, limit int) ([]ProjectActivity, error) {
	query := r.db.WithContext(ctx).Where("project_id = ?", id).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var activities []ProjectActivity
	if err := query.Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("failed to get project activities: %w", err)
	}
	return activities, nil
}

func (r *gormRepository) ListWithoutFolder(ctx context.Context, limit int) ([]Project, error) {
	var projects []Project
	if err := r.db.WithContext(ctx).
		Where("folder_id = ''").
		Order("created_at ASC").
		Limit(limit).
		Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("failed to list projects without folders: %w", err)
	}
	return projects, nil
}

func (r *gormRepository) SetFolder(ctx context.Context, id uuid.UUID, folderID, folderName string) error {
	result := r.db.WithContext(ctx).Model(&Project{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"folder_id":   folderID,
			"folder_name": folderName,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set project folder: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.ErrNotFound, "Project not found")
	}
	return nil
}
