package projects

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/apperr"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/events"
	"github.com/RudyEaglevanBreda/drone-ops-manager/pkg/workflows"
)

// FolderProvisioner creates the cloud storage folder tree for a new project.
type FolderProvisioner interface {
	ProvisionProject(ctx context.Context, project *Project) error
}

type Service interface {
	CreateProject(ctx context.Context, req CreateProjectRequest, userID uuid.UUID) (*Project, error)
	GetProject(ctx context.Context, id uuid.UUID) (*Project, error)
	ListProjects(ctx context.Context, filter ProjectFilter) ([]Project, error)
	GetStatusHistory(ctx context.Context, id uuid.UUID) ([]ProjectStatusHistory, error)
	GetActivities(ctx context.Context, id uuid.UUID, limit int) ([]ProjectActivity, error)

	Lifecycle() *workflows.Engine
	Statuses() []workflows.StatusDetail
	GetTransitions(ctx context.Context, id uuid.UUID) (*workflows.TransitionsView, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next workflows.Status, userID uuid.UUID) (*Project, error)
	UpdateField(ctx context.Context, id uuid.UUID, field string, value any, userID uuid.UUID) (*Project, []workflows.TransitionOption, error)
}

type service struct {
	repo      Repository
	lifecycle *workflows.Engine
	folders   FolderProvisioner
	events    events.Publisher
	logger    *zap.Logger

	folderTimeout time.Duration
}

// NewService wires the project service. folders may be nil, in which case no
// storage folders are created.
func NewService(repo Repository, folders FolderProvisioner, publisher events.Publisher, logger *zap.Logger) Service {
	if publisher == nil {
		publisher = events.NewNopPublisher()
	}
	return &service{
		repo:          repo,
		lifecycle:     NewLifecycle(),
		folders:       folders,
		events:        publisher,
		logger:        logger,
		folderTimeout: 2 * time.Minute,
	}
}

// newProjectCode returns a short human readable project code.
func newProjectCode() string {
	return "PRJ-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (s *service) CreateProject(ctx context.Context, req CreateProjectRequest, userID uuid.UUID) (*Project, error) {
	name := strings.TrimSpace(req.ProjectName)
	if name == "" {
		return nil, apperr.New(apperr.ErrInvalidValue, "Project name is required")
	}

	now := time.Now()
	project := &Project{
		Code:        newProjectCode(),
		ProjectName: name,
		ClientName:  strings.TrimSpace(req.ClientName),
		Description: req.Description,
		Status:      s.lifecycle.Initial(),
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	activity := &ProjectActivity{
		ActivityType: ActivityCreated,
		Description:  fmt.Sprintf("Project %s created", project.ProjectName),
		CreatedAt:    now,
		UserID:       userID,
	}

	if err := s.repo.Create(ctx, project, activity); err != nil {
		s.logger.Error("Failed to create project", zap.Error(err), zap.String("project_name", name))
		return nil, err
	}

	s.logger.Info("Project created",
		zap.String("project_id", project.ID.String()),
		zap.String("code", project.Code))

	if s.folders != nil {
		snapshot := *project
		go s.provisionFolders(&snapshot)
	}

	return project, nil
}

// provisionFolders runs detached from the request. Failures are logged and
// left to the folder retry worker.
func (s *service) provisionFolders(project *Project) {
	ctx, cancel := context.WithTimeout(context.Background(), s.folderTimeout)
	defer cancel()

	if err := s.folders.ProvisionProject(ctx, project); err != nil {
		s.logger.Warn("Failed to provision project folders",
			zap.Error(err),
			zap.String("project_id", project.ID.String()))
	}
}

func (s *service) GetProject(ctx context.Context, id uuid.UUID) (*Project, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListProjects(ctx context.Context, filter ProjectFilter) ([]Project, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) GetStatusHistory(ctx context.Context, id uuid.UUID) ([]ProjectStatusHistory, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListStatusHistory(ctx, id)
}

func (s *service) GetActivities(ctx context.Context, id uuid.UUID, limit int) ([]ProjectActivity, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListActivities(ctx, id, limit)
}

func (s *service) Lifecycle() *workflows.Engine {
	return s.lifecycle
}

func (s *service) Statuses() []workflows.StatusDetail {
	return s.lifecycle.StatusDetails()
}

func (s *service) GetTransitions(ctx context.Context, id uuid.UUID) (*workflows.TransitionsView, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := s.lifecycle.View(project)
	return &view, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, next workflows.Status, userID uuid.UUID) (*Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := project.Status
	if res := s.lifecycle.ValidateTransition(project, next); !res.Valid {
		return nil, res.Err(from, next)
	}

	if err := s.repo.UpdateStatus(ctx, id, from, next, userID); err != nil {
		s.logger.Error("Failed to update project status",
			zap.Error(err),
			zap.String("project_id", id.String()),
			zap.String("from", from.String()),
			zap.String("to", next.String()))
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Project status updated",
		zap.String("project_id", id.String()),
		zap.String("from", from.String()),
		zap.String("to", next.String()))

	event := events.StatusChanged{
		EntityType: events.EntityProject,
		EntityID:   id,
		From:       from,
		To:         next,
		Terminal:   s.lifecycle.IsTerminal(next),
		ChangedBy:  userID,
		ChangedAt:  updated.UpdatedAt,
	}
	if err := s.events.PublishStatusChanged(ctx, event); err != nil {
		s.logger.Warn("Failed to publish project status event", zap.Error(err), zap.String("project_id", id.String()))
	}

	return updated, nil
}

func (s *service) UpdateField(ctx context.Context, id uuid.UUID, field string, value any, userID uuid.UUID) (*Project, []workflows.TransitionOption, error) {
	if _, ok := updatableFields[field]; !ok {
		return nil, nil, apperr.New(apperr.ErrFieldNotAllowed, "Field '%s' cannot be updated through this endpoint", field)
	}

	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	updates, err := applyField(project, field, value)
	if err != nil {
		return nil, nil, err
	}

	metadata, err := json.Marshal(map[string]any{"field": field, "value": value})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode activity metadata: %w", err)
	}
	activity := &ProjectActivity{
		ActivityType: ActivityFieldUpdated,
		Description:  fmt.Sprintf("Field %s updated", field),
		Metadata:     datatypes.JSON(metadata),
		CreatedAt:    time.Now(),
		UserID:       userID,
	}

	if err := s.repo.UpdateFields(ctx, id, updates, activity); err != nil {
		s.logger.Error("Failed to update project field",
			zap.Error(err),
			zap.String("project_id", id.String()),
			zap.String("field", field))
		return nil, nil, err
	}

	return project, s.lifecycle.BriefOptions(project), nil
}
