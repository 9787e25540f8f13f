package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/apperr"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/projects"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/workorders"
	"github.com/RudyEaglevanBreda/drone-ops-manager/pkg/geospatial"
	"github.com/RudyEaglevanBreda/drone-ops-manager/pkg/storage"
	"github.com/RudyEaglevanBreda/drone-ops-manager/pkg/workflows"
)

// DefaultMaxSize caps a single upload.
const DefaultMaxSize int64 = 200 << 20

// FolderStore resolves record subfolders and stores files in them.
type FolderStore interface {
	ProjectFolder(ctx context.Context, projectID uuid.UUID, subfolder string) (string, error)
	WorkOrderFolder(ctx context.Context, workOrderID uuid.UUID, subfolder string) (string, error)
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type ProjectService interface {
	GetProject(ctx context.Context, id uuid.UUID) (*projects.Project, error)
	UpdateField(ctx context.Context, id uuid.UUID, field string, value any, userID uuid.UUID) (*projects.Project, []workflows.TransitionOption, error)
}

type WorkOrderService interface {
	GetWorkOrder(ctx context.Context, id uuid.UUID) (*workorders.WorkOrder, error)
	UpdateField(ctx context.Context, id uuid.UUID, field string, value any, userID uuid.UUID) (*workorders.WorkOrder, []workflows.TransitionOption, error)
}

type UploadRequest struct {
	Owner        OwnerType
	OwnerID      uuid.UUID
	DocumentType DocumentType
	FileName     string
	Content      io.Reader
	UploadedBy   uuid.UUID
}

// UploadResult is the stored document plus the record it was attached to.
type UploadResult struct {
	Document             *Document                    `json:"document"`
	Project              *projects.Project            `json:"project,omitempty"`
	WorkOrder            *workorders.WorkOrder        `json:"workOrder,omitempty"`
	AvailableTransitions []workflows.TransitionOption `json:"availableTransitions,omitempty"`
}

type Service interface {
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
	List(ctx context.Context, owner OwnerType, ownerID uuid.UUID) ([]Document, error)
	// Open returns a document and a reader over its stored content. The caller
	// closes the reader.
	Open(ctx context.Context, id uuid.UUID) (*Document, io.ReadCloser, error)
}

type service struct {
	repo       Repository
	folders    FolderStore
	projects   ProjectService
	workOrders WorkOrderService
	maxSize    int64
	now        func() time.Time
	logger     *zap.Logger
}

func NewService(repo Repository, folders FolderStore, projectService ProjectService, workOrderService WorkOrderService, maxSize int64, logger *zap.Logger) Service {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &service{
		repo:       repo,
		folders:    folders,
		projects:   projectService,
		workOrders: workOrderService,
		maxSize:    maxSize,
		now:        time.Now,
		logger:     logger,
	}
}

func (s *service) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	kind, ok := KindOf(req.Owner, req.DocumentType)
	if !ok {
		return nil, apperr.New(apperr.ErrInvalidValue, "Unsupported document type: %s", req.DocumentType)
	}

	data, err := io.ReadAll(io.LimitReader(req.Content, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, apperr.New(apperr.ErrInvalidValue, "No file uploaded")
	}
	if int64(len(data)) > s.maxSize {
		return nil, apperr.New(apperr.ErrInvalidValue, "File exceeds the %d MB upload limit", s.maxSize>>20)
	}

	detected := mimetype.Detect(data)
	if !matches(kind.Format, detected) {
		return nil, apperr.New(apperr.ErrInvalidValue, "%s document must be a %s file, got %s",
			kind.Label, strings.ToUpper(string(kind.Format)), detected.String())
	}

	var geometry map[string]any
	if kind.Format == FormatKML {
		shape, err := geospatial.ParseKML(data)
		if err != nil {
			return nil, apperr.New(apperr.ErrInvalidValue, "%s document has no usable geometry: %v", kind.Label, err)
		}
		if kind.RequirePolygon && shape.Polygons == 0 {
			return nil, apperr.New(apperr.ErrInvalidValue, "%s document must contain at least one polygon", kind.Label)
		}
		geometry = shape.Summary()
	}

	var prefix, folder string
	switch req.Owner {
	case OwnerProject:
		project, err := s.projects.GetProject(ctx, req.OwnerID)
		if err != nil {
			return nil, err
		}
		prefix = project.Code
		folder, err = s.folders.ProjectFolder(ctx, req.OwnerID, kind.Subfolder)
		if err != nil {
			return nil, err
		}
	case OwnerWorkOrder:
		if _, err := s.workOrders.GetWorkOrder(ctx, req.OwnerID); err != nil {
			return nil, err
		}
		prefix = req.OwnerID.String()
		folder, err = s.folders.WorkOrderFolder(ctx, req.OwnerID, kind.Subfolder)
		if err != nil {
			return nil, err
		}
	}

	fileName := s.fileName(kind, prefix, req.FileName)
	key := folder + fileName

	meta := map[string]any{
		"originalName": req.FileName,
		"detectedType": detected.String(),
		"subfolder":    kind.Subfolder,
	}
	if geometry != nil {
		meta["geometry"] = geometry
	}
	metadata, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document metadata: %w", err)
	}

	if err := s.folders.Upload(ctx, key, bytes.NewReader(data), detected.String()); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	doc := &Document{
		ID:           uuid.New(),
		OwnerType:    req.Owner,
		OwnerID:      req.OwnerID,
		DocumentType: req.DocumentType,
		FileName:     fileName,
		ContentType:  detected.String(),
		FileSize:     int64(len(data)),
		StorageKey:   key,
		Metadata:     datatypes.JSON(metadata),
		UploadedBy:   req.UploadedBy,
		UploadedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		s.discard(ctx, key, nil)
		return nil, err
	}

	result := &UploadResult{Document: doc}
	if kind.Field != "" {
		switch req.Owner {
		case OwnerProject:
			result.Project, result.AvailableTransitions, err = s.projects.UpdateField(ctx, req.OwnerID, kind.Field, key, req.UploadedBy)
		case OwnerWorkOrder:
			result.WorkOrder, result.AvailableTransitions, err = s.workOrders.UpdateField(ctx, req.OwnerID, kind.Field, key, req.UploadedBy)
		}
		if err != nil {
			s.discard(ctx, key, &doc.ID)
			return nil, err
		}
	}

	s.logger.Info("Document uploaded",
		zap.String("owner_type", string(req.Owner)),
		zap.String("owner_id", req.OwnerID.String()),
		zap.String("document_type", string(req.DocumentType)),
		zap.String("key", key))

	return result, nil
}

func (s *service) List(ctx context.Context, owner OwnerType, ownerID uuid.UUID) ([]Document, error) {
	return s.repo.ListByOwner(ctx, owner, ownerID)
}

func (s *service) Open(ctx context.Context, id uuid.UUID) (*Document, io.ReadCloser, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	body, err := s.folders.Download(ctx, doc.StorageKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, nil, apperr.New(apperr.ErrNotFound, "Stored file for document %s not found", id)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read document: %w", err)
	}
	return doc, body, nil
}

// discard removes what an upload stored before a later step failed. docID is
// nil when no document row was written.
func (s *service) discard(ctx context.Context, key string, docID *uuid.UUID) {
	if docID != nil {
		if err := s.repo.Delete(ctx, *docID); err != nil {
			s.logger.Error("Failed to remove document record", zap.Error(err), zap.String("document_id", docID.String()))
		}
	}
	if err := s.folders.Delete(ctx, key); err != nil {
		s.logger.Error("Failed to remove stored document", zap.Error(err), zap.String("key", key))
	}
}

// fileName is "<prefix>_<Label>_<yyyy-mm-dd><ext>", or the uploaded name for
// kinds that keep it.
func (s *service) fileName(kind Kind, prefix, original string) string {
	date := s.now().UTC().Format("2006-01-02")
	if kind.KeepName {
		if name := path.Base(strings.ReplaceAll(original, "\\", "/")); name != "." && name != "/" {
			return name
		}
	}
	return fmt.Sprintf("%s_%s_%s%s", prefix, kind.Label, date, kind.Extension)
}

func matches(format Format, detected *mimetype.MIME) bool {
	switch format {
	case FormatPDF:
		return detected.Is("application/pdf")
	case FormatKML:
		for m := detected; m != nil; m = m.Parent() {
			if m.Is("application/vnd.google-earth.kml+xml") || m.Is("text/xml") {
				return true
			}
		}
		return false
	default:
		return true
	}
}
