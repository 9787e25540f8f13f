package workorders

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
	Create(ctx context.Context, workOrder *WorkOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*WorkOrder, error)
	List(ctx context.Context, filter WorkOrderFilter) ([]WorkOrder, error)
	UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error
	// UpdateStatus moves the work order from one status to another only if it
	// is still in from, writing extra in the same statement. It returns
	// apperr.ErrStatusConflict otherwise.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to workflows.Status, extra map[string]any, changedBy uuid.UUID) error
	ListStatusHistory(ctx context.Context, id uuid.UUID) ([]WorkOrderStatusHistory, error)
	FinancialSummary(ctx context.Context, projectID uuid.UUID) (*FinancialSummary, error)

	ListWithoutFolder(ctx context.Context, limit int) ([]WorkOrder, error)
	SetFolder(ctx context.Context, id uuid.UUID, folderID, folderName string) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func notFound() error {
	return apperr.New(apperr.ErrNotFound, "Work order not found")
}

func (r *gormRepository) Create(ctx context.Context, workOrder *WorkOrder) error {
	if err := r.db.WithContext(ctx).Create(workOrder).Error; err != nil {
		return fmt.Errorf("failed to create work order: %w", err)
	}
	return nil
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (*WorkOrder, error) {
	var workOrder WorkOrder
	err := r.db.WithContext(ctx).First(&workOrder, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get work order: %w", err)
	}
	return &workOrder, nil
}

func (r *gormRepository) List(ctx context.Context, filter WorkOrderFilter) ([]WorkOrder, error) {
	query := r.db.WithContext(ctx).Model(&WorkOrder{})

	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status.String())
	}
	if filter.Search != "" {
		query = query.Where("work_order_name ILIKE ?", "%"+filter.Search+"%")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var workOrders []WorkOrder
	if err := query.Order("created_at DESC").Find(&workOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to list work orders: %w", err)
	}
	return workOrders, nil
}

func (r *gormRepository) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	columns := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		columns[k] = v
	}
	columns["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).Model(&WorkOrder{}).Where("id = ?", id).Updates(columns)
	if result.Error != nil {
		return fmt.Errorf("failed to update work order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound()
	}
	return nil
}

func (r *gormRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to workflows.Status, extra map[string]any, changedBy uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		columns := map[string]any{
			"status":     to.String(),
			"updated_at": now,
		}
		for k, v := range extra {
			columns[k] = v
		}

		result := tx.Model(&WorkOrder{}).
			Where("id = ? AND status = ?", id, from.String()).
			Updates(columns)
		if result.Error != nil {
			return fmt.Errorf("failed to update work order status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&WorkOrder{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check work order: %w", err)
			}
			if count == 0 {
				return notFound()
			}
			return apperr.ErrStatusConflict
		}

		history := &WorkOrderStatusHistory{
			WorkOrderID: id,
			FromStatus:  from,
			ToStatus:    to,
			ChangedAt:   now,
			ChangedBy:   changedBy,
		}
		if err := tx.Create(history).Error; err != nil {
			return fmt.Errorf("failed to record status history: %w", err)
		}
		return nil
	})
}

func (r *gormRepository) ListStatusHistory(ctx context.Context, id uuid.UUID) ([]WorkOrderStatusHistory, error) {
	var history []WorkOrderStatusHistory
	if err := r.db.WithContext(ctx).
		Where("work_order_id = ?", id).
		Order("changed_at DESC").
		Find(&history).Error; err != nil {
		return nil, fmt.Errorf("failed to get status history: %w", err)
	}
	return history, nil
}

func (r *gormRepository) FinancialSummary(ctx context.Context, projectID uuid.UUID) (*FinancialSummary, error) {
	var summary FinancialSummary
	err := r.db.WithContext(ctx).Model(&WorkOrder{}).
		Select(`COALESCE(SUM(invoice_amount), 0) AS total_invoiced,
			COALESCE(SUM(CASE WHEN invoice_status = ? THEN invoice_amount ELSE 0 END), 0) AS total_paid,
			COALESCE(SUM(CASE WHEN invoice_status IN ? THEN invoice_amount ELSE 0 END), 0) AS total_outstanding`,
			string(InvoicePaid), []string{string(InvoiceSent), string(InvoiceOverdue)}).
		Where("project_id = ?", projectID).
		Scan(&summary).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute financial summary: %w", err)
	}
	return &summary, nil
}

func (r *gormRepository) ListWithoutFolder(ctx context.Context, limit int) ([]WorkOrder, error) {
	var workOrders []WorkOrder
	if err := r.db.WithContext(ctx).
		Where("folder_id = ''").
		Order("created_at ASC").
		Limit(limit).
		Find(&workOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to list work orders without folders: %w", err)
	}
	return workOrders, nil
}

func (r *gormRepository) SetFolder(ctx context.Context, id uuid.UUID, folderID, folderName string) error {
	result := r.db.WithContext(ctx).Model(&WorkOrder{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"folder_id":   folderID,
			"folder_name": folderName,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set work order folder: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound()
	}
	return nil
}
