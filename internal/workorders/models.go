package workorders

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/RudyEaglevanBreda/drone-ops-manager/pkg/workflows"
)

type QuoteStatus string

const (
	QuoteDraft    QuoteStatus = "Draft"
	QuoteSent     QuoteStatus = "Sent"
	QuoteAccepted QuoteStatus = "Accepted"
	QuoteRejected QuoteStatus = "Rejected"
)

type InvoiceStatus string

const (
	InvoiceDraft   InvoiceStatus = "Draft"
	InvoiceSent    InvoiceStatus = "Sent"
	InvoiceOverdue InvoiceStatus = "Overdue"
	InvoicePaid    InvoiceStatus = "Paid"
)

// WorkOrder is a unit of field work under a project.
type WorkOrder struct {
	ID                 uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID          uuid.UUID        `gorm:"type:uuid;not null;index" json:"project_id"`
	WorkOrderName      string           `gorm:"not null" json:"work_order_name"`
	Description        string           `json:"description"`
	Status             workflows.Status `gorm:"type:text;not null;default:'Planning';index" json:"status"`
	ServicesRequested  pq.StringArray   `gorm:"type:text[]" json:"services_requested"`
	OperationalKMLPath string           `gorm:"column:operational_kml_path" json:"operational_kml_path"`
	QuoteAmount        *float64         `gorm:"type:numeric(12,2)" json:"quote_amount"`
	QuotePDFPath       string           `gorm:"column:quote_pdf_path" json:"quote_pdf_path"`
	QuoteStatus        QuoteStatus      `gorm:"type:text" json:"quote_status"`
	ScheduledDate      *time.Time       `json:"scheduled_date"`
	InvoiceAmount      *float64         `gorm:"type:numeric(12,2)" json:"invoice_amount"`
	InvoicePDFPath     string           `gorm:"column:invoice_pdf_path" json:"invoice_pdf_path"`
	InvoiceStatus      InvoiceStatus    `gorm:"type:text" json:"invoice_status"`
	FolderID           string           `json:"folder_id"`
	FolderName         string           `json:"folder_name"`
	CreatedBy          uuid.UUID        `gorm:"type:uuid" json:"created_by"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
	DeletedAt          gorm.DeletedAt   `gorm:"index" json:"-"`
}

// WorkOrderStatusHistory records one applied transition.
type WorkOrderStatusHistory struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkOrderID uuid.UUID        `gorm:"type:uuid;not null;index" json:"work_order_id"`
	FromStatus  workflows.Status `gorm:"type:text;not null" json:"from_status"`
	ToStatus    workflows.Status `gorm:"type:text;not null" json:"to_status"`
	ChangedAt   time.Time        `json:"changed_at"`
	ChangedBy   uuid.UUID        `gorm:"type:uuid" json:"changed_by"`
}

type WorkOrderFilter struct {
	ProjectID *uuid.UUID
	Status    workflows.Status
	Search    string
	Limit     int
	Offset    int
}

// FinancialSummary totals invoice amounts for a project.
type FinancialSummary struct {
	TotalInvoiced    float64 `json:"totalInvoiced"`
	TotalPaid        float64 `json:"totalPaid"`
	TotalOutstanding float64 `json:"totalOutstanding"`
}

type CreateWorkOrderRequest struct {
	ProjectID         uuid.UUID `json:"projectId" binding:"required"`
	WorkOrderName     string    `json:"workOrderName" binding:"required"`
	Description       string    `json:"description"`
	ServicesRequested []string  `json:"servicesRequested"`
	ScheduledDate     string    `json:"scheduledDate"`
}

type UpdateStatusRequest struct {
	NextStatus string `json:"nextStatus"`
}

type UpdateFieldRequest struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// QuoteUpdate sets quote information. Nil members are left unchanged.
type QuoteUpdate struct {
	Amount  any          `json:"quoteAmount"`
	PDFPath *string      `json:"quotePdfPath"`
	Status  *QuoteStatus `json:"quoteStatus"`
}

// InvoiceUpdate sets invoice information. Nil members are left unchanged.
type InvoiceUpdate struct {
	Amount  any            `json:"invoiceAmount"`
	PDFPath *string        `json:"invoicePdfPath"`
	Status  *InvoiceStatus `json:"invoiceStatus"`
}
