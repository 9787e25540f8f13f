package workorders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/apperr"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/events"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/fieldvalue"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/projects"
	"github.com/RudyEaglevanBreda/drone-ops-manager/pkg/workflows"
)

// ProjectReader resolves the parent project of a work order.
type ProjectReader interface {
	GetProject(ctx context.Context, id uuid.UUID) (*projects.Project, error)
}

// FolderProvisioner creates the cloud storage folder tree for a new work order.
type FolderProvisioner interface {
	ProvisionWorkOrder(ctx context.Context, workOrder *WorkOrder) error
}

// TransitionsView adds the external tools for the current status.
type TransitionsView struct {
	workflows.TransitionsView
	ExternalTools []ExternalTool `json:"externalTools"`
}

type Service interface {
	CreateWorkOrder(ctx context.Context, req CreateWorkOrderRequest, userID uuid.UUID) (*WorkOrder, error)
	GetWorkOrder(ctx context.Context, id uuid.UUID) (*WorkOrder, error)
	ListWorkOrders(ctx context.Context, filter WorkOrderFilter) ([]WorkOrder, error)
	GetStatusHistory(ctx context.Context, id uuid.UUID) ([]WorkOrderStatusHistory, error)
	GetFinancialSummary(ctx context.Context, projectID uuid.UUID) (*FinancialSummary, error)

	Lifecycle() *Lifecycle
	Statuses() []workflows.StatusDetail
	GetTransitions(ctx context.Context, id uuid.UUID) (*TransitionsView, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next workflows.Status, userID uuid.UUID) (*WorkOrder, error)
	UpdateField(ctx context.Context, id uuid.UUID, field string, value any, userID uuid.UUID) (*WorkOrder, []workflows.TransitionOption, error)
	UpdateQuote(ctx context.Context, id uuid.UUID, update QuoteUpdate) (*WorkOrder, error)
	UpdateInvoice(ctx context.Context, id uuid.UUID, update InvoiceUpdate) (*WorkOrder, error)
}

type service struct {
	repo        Repository
	projects    ProjectReader
	lifecycle   *Lifecycle
	sideEffects SideEffects
	folders     FolderProvisioner
	events      events.Publisher
	logger      *zap.Logger

	folderTimeout time.Duration
}

// ServiceOption customises a work order service.
type ServiceOption func(*service)

// WithSideEffects replaces the default side effect table.
func WithSideEffects(effects SideEffects) ServiceOption {
	return func(s *service) { s.sideEffects = effects }
}

// WithFolders enables folder provisioning on create.
func WithFolders(folders FolderProvisioner) ServiceOption {
	return func(s *service) { s.folders = folders }
}

// WithPublisher publishes status change events.
func WithPublisher(publisher events.Publisher) ServiceOption {
	return func(s *service) { s.events = publisher }
}

func NewService(repo Repository, projectReader ProjectReader, logger *zap.Logger, opts ...ServiceOption) Service {
	s := &service{
		repo:          repo,
		projects:      projectReader,
		lifecycle:     NewLifecycle(),
		sideEffects:   DefaultSideEffects(),
		events:        events.NewNopPublisher(),
		logger:        logger,
		folderTimeout: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) CreateWorkOrder(ctx context.Context, req CreateWorkOrderRequest, userID uuid.UUID) (*WorkOrder, error) {
	name := strings.TrimSpace(req.WorkOrderName)
	if name == "" {
		return nil, apperr.New(apperr.ErrInvalidValue, "Work order name is required")
	}

	if _, err := s.projects.GetProject(ctx, req.ProjectID); err != nil {
		return nil, err
	}

	scheduled, err := fieldvalue.Date(FieldScheduledDate, nilIfEmpty(req.ScheduledDate))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	workOrder := &WorkOrder{
		ProjectID:         req.ProjectID,
		WorkOrderName:     name,
		Description:       req.Description,
		Status:            s.lifecycle.Initial(),
		ServicesRequested: pq.StringArray(req.ServicesRequested),
		ScheduledDate:     scheduled,
		QuoteStatus:       QuoteDraft,
		InvoiceStatus:     InvoiceDraft,
		CreatedBy:         userID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, workOrder); err != nil {
		s.logger.Error("Failed to create work order", zap.Error(err), zap.String("project_id", req.ProjectID.String()))
		return nil, err
	}

	s.logger.Info("Work order created",
		zap.String("work_order_id", workOrder.ID.String()),
		zap.String("project_id", workOrder.ProjectID.String()))

	if s.folders != nil {
		snapshot := *workOrder
		go s.provisionFolders(&snapshot)
	}

	return workOrder, nil
}

func (s *service) provisionFolders(workOrder *WorkOrder) {
	ctx, cancel := context.WithTimeout(context.Background(), s.folderTimeout)
	defer cancel()

	if err := s.folders.ProvisionWorkOrder(ctx, workOrder); err != nil {
		s.logger.Warn("Failed to provision work order folders",
			zap.Error(err),
			zap.String("work_order_id", workOrder.ID.String()))
	}
}

func (s *service) GetWorkOrder(ctx context.Context, id uuid.UUID) (*WorkOrder, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListWorkOrders(ctx context.Context, filter WorkOrderFilter) ([]WorkOrder, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) GetStatusHistory(ctx context.Context, id uuid.UUID) ([]WorkOrderStatusHistory, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListStatusHistory(ctx, id)
}

func (s *service) GetFinancialSummary(ctx context.Context, projectID uuid.UUID) (*FinancialSummary, error) {
	if _, err := s.projects.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.repo.FinancialSummary(ctx, projectID)
}

func (s *service) Lifecycle() *Lifecycle {
	return s.lifecycle
}

func (s *service) Statuses() []workflows.StatusDetail {
	return s.lifecycle.StatusDetails()
}

func (s *service) GetTransitions(ctx context.Context, id uuid.UUID) (*TransitionsView, error) {
	workOrder, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TransitionsView{
		TransitionsView: s.lifecycle.View(workOrder),
		ExternalTools:   s.lifecycle.ExternalToolsFor(workOrder.Status),
	}, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, next workflows.Status, userID uuid.UUID) (*WorkOrder, error) {
	workOrder, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := workOrder.Status
	if res := s.lifecycle.ValidateTransition(workOrder, next); !res.Valid {
		return nil, res.Err(from, next)
	}

	extra := s.sideEffects.Apply(workOrder, next)
	if err := s.repo.UpdateStatus(ctx, id, from, next, extra, userID); err != nil {
		s.logger.Error("Failed to update work order status",
			zap.Error(err),
			zap.String("work_order_id", id.String()),
			zap.String("from", from.String()),
			zap.String("to", next.String()))
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Work order status updated",
		zap.String("work_order_id", id.String()),
		zap.String("from", from.String()),
		zap.String("to", next.String()),
		zap.Int("side_effect_columns", len(extra)))

	parentID := updated.ProjectID
	event := events.StatusChanged{
		EntityType: events.EntityWorkOrder,
		EntityID:   id,
		ParentID:   &parentID,
		From:       from,
		To:         next,
		Terminal:   s.lifecycle.IsTerminal(next),
		ChangedBy:  userID,
		ChangedAt:  updated.UpdatedAt,
	}
	if err := s.events.PublishStatusChanged(ctx, event); err != nil {
		s.logger.Warn("Failed to publish work order status event", zap.Error(err), zap.String("work_order_id", id.String()))
	}

	return updated, nil
}

func (s *service) UpdateField(ctx context.Context, id uuid.UUID, field string, value any, userID uuid.UUID) (*WorkOrder, []workflows.TransitionOption, error) {
	if _, ok := updatableFields[field]; !ok {
		return nil, nil, apperr.New(apperr.ErrFieldNotAllowed, "Field '%s' cannot be updated through this endpoint", field)
	}

	workOrder, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	updates, err := applyField(workOrder, field, value)
	if err != nil {
		return nil, nil, err
	}

	if err := s.repo.UpdateFields(ctx, id, updates); err != nil {
		s.logger.Error("Failed to update work order field",
			zap.Error(err),
			zap.String("work_order_id", id.String()),
			zap.String("field", field),
			zap.String("user_id", userID.String()))
		return nil, nil, err
	}

	return workOrder, s.lifecycle.BriefOptions(workOrder), nil
}

func (s *service) UpdateQuote(ctx context.Context, id uuid.UUID, update QuoteUpdate) (*WorkOrder, error) {
	workOrder, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if update.Amount != nil {
		amount, err := fieldvalue.Amount(FieldQuoteAmount, update.Amount)
		if err != nil {
			return nil, err
		}
		workOrder.QuoteAmount = amount
		updates["quote_amount"] = amount
	}
	if update.PDFPath != nil {
		workOrder.QuotePDFPath = *update.PDFPath
		updates["quote_pdf_path"] = *update.PDFPath
	}
	if update.Status != nil {
		if !validQuoteStatus(*update.Status) {
			return nil, apperr.New(apperr.ErrInvalidValue, "Invalid quote status '%s'", *update.Status)
		}
		workOrder.QuoteStatus = *update.Status
		updates["quote_status"] = string(*update.Status)
	}
	if len(updates) == 0 {
		return workOrder, nil
	}

	if err := s.repo.UpdateFields(ctx, id, updates); err != nil {
		return nil, err
	}
	return workOrder, nil
}

func (s *service) UpdateInvoice(ctx context.Context, id uuid.UUID, update InvoiceUpdate) (*WorkOrder, error) {
	workOrder, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if update.Amount != nil {
		amount, err := fieldvalue.Amount(FieldInvoiceAmount, update.Amount)
		if err != nil {
			return nil, err
		}
		workOrder.InvoiceAmount = amount
		updates["invoice_amount"] = amount
	}
	if update.PDFPath != nil {
		workOrder.InvoicePDFPath = *update.PDFPath
		updates["invoice_pdf_path"] = *update.PDFPath
	}
	if update.Status != nil {
		if !validInvoiceStatus(*update.Status) {
			return nil, apperr.New(apperr.ErrInvalidValue, "Invalid invoice status '%s'", *update.Status)
		}
		workOrder.InvoiceStatus = *update.Status
		updates["invoice_status"] = string(*update.Status)
	}
	if len(updates) == 0 {
		return workOrder, nil
	}

	if err := s.repo.UpdateFields(ctx, id, updates); err != nil {
		return nil, err
	}
	return workOrder, nil
}

func validQuoteStatus(s QuoteStatus) bool {
	switch s {
	case QuoteDraft, QuoteSent, QuoteAccepted, QuoteRejected:
		return true
	}
	return false
}

func validInvoiceStatus(s InvoiceStatus) bool {
	switch s {
	case InvoiceDraft, InvoiceSent, InvoiceOverdue, InvoicePaid:
		return true
	}
	return false
}

func nilIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
