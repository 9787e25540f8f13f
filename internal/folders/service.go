package folders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/apperr"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/projects"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/workorders"
	"github.com/RudyEaglevanBreda/drone-ops-manager/pkg/storage"
)

var (
	// ErrStorageUnavailable is returned while the storage circuit is open.
	ErrStorageUnavailable = apperr.New(apperr.ErrUnavailable, "Storage temporarily unavailable")
	// ErrParentFolderMissing is returned when a work order's project has no
	// folder yet.
	ErrParentFolderMissing = apperr.New(apperr.ErrNotReady, "Project folder not provisioned yet")
	// ErrFolderMissing is returned when a record has no folder yet.
	ErrFolderMissing = apperr.New(apperr.ErrNotReady, "Folder not provisioned yet")
)

type Config struct {
	Bucket     string
	RootPrefix string
	LinkExpiry time.Duration

	// Circuit breaker around the storage provider.
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

func DefaultConfig() Config {
	return Config{
		Bucket:           "drone-ops",
		RootPrefix:       "projects",
		LinkExpiry:       15 * time.Minute,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// File is an object inside a subfolder.
type File struct {
	Name         string    `json:"name"`
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	URL          string    `json:"url"`
}

// Subfolder is one of the fixed subfolders of a record folder.
type Subfolder struct {
	Name  string `json:"name"`
	Key   string `json:"key"`
	Files []File `json:"files"`
}

// Listing is the folder tree of a project or work order.
type Listing struct {
	FolderID   string      `json:"folderId"`
	FolderName string      `json:"folderName"`
	Subfolders []Subfolder `json:"subfolders"`
}

// Service provisions and reads the storage folders that mirror projects and
// work orders.
type Service struct {
	storage    storage.S3Client
	breaker    *gobreaker.CircuitBreaker[any]
	projects   projects.Repository
	workOrders workorders.Repository
	config     Config
	logger     *zap.Logger
}

func NewService(store storage.S3Client, projectRepo projects.Repository, workOrderRepo workorders.Repository, config Config, logger *zap.Logger) *Service {
	settings := gobreaker.Settings{
		Name:        "storage",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, storage.ErrObjectNotFound)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Storage circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &Service{
		storage:    store,
		breaker:    gobreaker.NewCircuitBreaker[any](settings),
		projects:   projectRepo,
		workOrders: workOrderRepo,
		config:     config,
		logger:     logger,
	}
}

// call runs fn through the storage circuit breaker.
func (s *Service) call(fn func() (any, error)) (any, error) {
	result, err := s.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrStorageUnavailable
	}
	return result, err
}

func (s *Service) createFolders(ctx context.Context, keys []string) error {
	for _, key := range keys {
		_, err := s.call(func() (any, error) {
			return nil, s.storage.CreateFolder(ctx, s.config.Bucket, key)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ProvisionProject creates the project folder and its subfolders and stores
// the folder on the project.
func (s *Service) ProvisionProject(ctx context.Context, project *projects.Project) error {
	name := ProjectFolderName(project)
	root := join(s.config.RootPrefix, name)

	keys := []string{root}
	for _, sub := range ProjectSubfolders {
		keys = append(keys, join(root, sub))
	}
	if err := s.createFolders(ctx, keys); err != nil {
		return fmt.Errorf("failed to create project folders: %w", err)
	}

	if err := s.projects.SetFolder(ctx, project.ID, root, name); err != nil {
		return err
	}
	project.FolderID, project.FolderName = root, name

	s.logger.Info("Project folders provisioned",
		zap.String("project_id", project.ID.String()),
		zap.String("folder", root))
	return nil
}

// ProvisionWorkOrder creates the work order folder inside its project folder.
func (s *Service) ProvisionWorkOrder(ctx context.Context, workOrder *workorders.WorkOrder) error {
	project, err := s.projects.GetByID(ctx, workOrder.ProjectID)
	if err != nil {
		return err
	}
	if project.FolderID == "" {
		return ErrParentFolderMissing
	}

	name := WorkOrderFolderName(workOrder)
	root := join(project.FolderID, name)

	keys := []string{root}
	for _, sub := range WorkOrderSubfolders {
		keys = append(keys, join(root, sub))
	}
	if err := s.createFolders(ctx, keys); err != nil {
		return fmt.Errorf("failed to create work order folders: %w", err)
	}

	if err := s.workOrders.SetFolder(ctx, workOrder.ID, root, name); err != nil {
		return err
	}
	workOrder.FolderID, workOrder.FolderName = root, name

	s.logger.Info("Work order folders provisioned",
		zap.String("work_order_id", workOrder.ID.String()),
		zap.String("folder", root))
	return nil
}

// PendingProjects returns projects that still have no folder.
func (s *Service) PendingProjects(ctx context.Context, limit int) ([]projects.Project, error) {
	return s.projects.ListWithoutFolder(ctx, limit)
}

// PendingWorkOrders returns work orders that still have no folder.
func (s *Service) PendingWorkOrders(ctx context.Context, limit int) ([]workorders.WorkOrder, error) {
	return s.workOrders.ListWithoutFolder(ctx, limit)
}

// ProjectFolder returns the key of a project subfolder.
func (s *Service) ProjectFolder(ctx context.Context, projectID uuid.UUID, subfolder string) (string, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return "", err
	}
	if project.FolderID == "" {
		return "", ErrFolderMissing
	}
	return join(project.FolderID, subfolder), nil
}

// WorkOrderFolder returns the key of a work order subfolder.
func (s *Service) WorkOrderFolder(ctx context.Context, workOrderID uuid.UUID, subfolder string) (string, error) {
	workOrder, err := s.workOrders.GetByID(ctx, workOrderID)
	if err != nil {
		return "", err
	}
	if workOrder.FolderID == "" {
		return "", ErrFolderMissing
	}
	return join(workOrder.FolderID, subfolder), nil
}

// Upload stores body under key.
func (s *Service) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := s.call(func() (any, error) {
		return nil, s.storage.Upload(ctx, s.config.Bucket, key, body, contentType)
	})
	return err
}

// Download opens the object stored under key.
func (s *Service) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	result, err := s.call(func() (any, error) {
		return s.storage.Download(ctx, s.config.Bucket, key)
	})
	if err != nil {
		return nil, err
	}
	return result.(io.ReadCloser), nil
}

// Delete removes the object stored under key.
func (s *Service) Delete(ctx context.Context, key string) error {
	_, err := s.call(func() (any, error) {
		return nil, s.storage.Delete(ctx, s.config.Bucket, key)
	})
	return err
}

// ListProject lists the subfolders of a project with download links.
func (s *Service) ListProject(ctx context.Context, projectID uuid.UUID) (*Listing, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.FolderID == "" {
		return nil, ErrFolderMissing
	}
	return s.list(ctx, project.FolderID, project.FolderName, ProjectSubfolders)
}

// ListWorkOrder lists the subfolders of a work order with download links.
func (s *Service) ListWorkOrder(ctx context.Context, workOrderID uuid.UUID) (*Listing, error) {
	workOrder, err := s.workOrders.GetByID(ctx, workOrderID)
	if err != nil {
		return nil, err
	}
	if workOrder.FolderID == "" {
		return nil, ErrFolderMissing
	}
	return s.list(ctx, workOrder.FolderID, workOrder.FolderName, WorkOrderSubfolders)
}

func (s *Service) list(ctx context.Context, root, name string, subfolders []string) (*Listing, error) {
	listing := &Listing{FolderID: root, FolderName: name, Subfolders: make([]Subfolder, 0, len(subfolders))}

	for _, sub := range subfolders {
		key := join(root, sub)
		result, err := s.call(func() (any, error) {
			return s.storage.List(ctx, s.config.Bucket, key)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", sub, err)
		}

		folder := Subfolder{Name: sub, Key: key, Files: []File{}}
		for _, obj := range result.([]storage.Object) {
			if obj.IsFolder {
				continue
			}
			url, err := s.storage.GetPresignedURL(ctx, s.config.Bucket, obj.Key, s.config.LinkExpiry)
			if err != nil {
				s.logger.Warn("Failed to presign object", zap.Error(err), zap.String("key", obj.Key))
			}
			folder.Files = append(folder.Files, File{
				Name:         path.Base(strings.TrimSuffix(obj.Key, "/")),
				Key:          obj.Key,
				Size:         obj.Size,
				LastModified: obj.LastModified,
				URL:          url,
			})
		}
		listing.Subfolders = append(listing.Subfolders, folder)
	}
	return listing, nil
}
