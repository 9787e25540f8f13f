package documents

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/folders"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/projects"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/workorders"
)

type OwnerType string

const (
	OwnerProject   OwnerType = "project"
	OwnerWorkOrder OwnerType = "workorder"
)

type DocumentType string

const (
	TypeContract    DocumentType = "contract"
	TypeBoundary    DocumentType = "boundary"
	TypeQuote       DocumentType = "quote"
	TypeInvoice     DocumentType = "invoice"
	TypeOperational DocumentType = "operational"
	TypeRawData     DocumentType = "rawData"
	TypeDeliverable DocumentType = "deliverable"
)

// Format is the content a document type must sniff as.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatKML Format = "kml"
	FormatAny Format = "any"
)

// Kind describes where a document type goes and which gating field it fills.
type Kind struct {
	Owner     OwnerType
	Label     string
	Subfolder string
	Format    Format
	Extension string
	// Field is the lifecycle field set to the stored key; empty when the
	// document gates nothing.
	Field string
	// KeepName stores the file under its uploaded name.
	KeepName bool
	// RequirePolygon rejects KML files without at least one Polygon.
	RequirePolygon bool
}

var kinds = map[DocumentType]Kind{
	TypeContract:    {Owner: OwnerProject, Label: "Contract", Subfolder: folders.ProjectContracts, Format: FormatPDF, Extension: ".pdf", Field: projects.FieldContractDocumentPath},
	TypeBoundary:    {Owner: OwnerProject, Label: "Boundary", Subfolder: folders.ProjectBoundary, Format: FormatKML, Extension: ".kml", Field: projects.FieldProjectBoundaryKMLPath, RequirePolygon: true},
	TypeQuote:       {Owner: OwnerWorkOrder, Label: "Quote", Subfolder: folders.WorkOrderQuote, Format: FormatPDF, Extension: ".pdf", Field: workorders.FieldQuotePDFPath},
	TypeInvoice:     {Owner: OwnerWorkOrder, Label: "Invoice", Subfolder: folders.WorkOrderInvoice, Format: FormatPDF, Extension: ".pdf", Field: workorders.FieldInvoicePDFPath},
	TypeOperational: {Owner: OwnerWorkOrder, Label: "FlightPlan", Subfolder: folders.WorkOrderFlightPlans, Format: FormatKML, Extension: ".kml", Field: workorders.FieldOperationalKMLPath},
	TypeRawData:     {Owner: OwnerWorkOrder, Label: "RawData", Subfolder: folders.WorkOrderRawData, Format: FormatAny, Extension: ".zip", KeepName: true},
	TypeDeliverable: {Owner: OwnerWorkOrder, Label: "Deliverable", Subfolder: folders.WorkOrderDeliverables, Format: FormatAny, Extension: ".zip", KeepName: true},
}

// KindOf returns the kind of t if it can be attached to owner.
func KindOf(owner OwnerType, t DocumentType) (Kind, bool) {
	kind, ok := kinds[t]
	if !ok || kind.Owner != owner {
		return Kind{}, false
	}
	return kind, true
}

// Document records a file uploaded against a project or work order.
type Document struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerType    OwnerType      `gorm:"not null;index:idx_documents_owner" json:"owner_type"`
	OwnerID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_documents_owner" json:"owner_id"`
	DocumentType DocumentType   `gorm:"not null" json:"document_type"`
	FileName     string         `gorm:"not null" json:"file_name"`
	ContentType  string         `json:"content_type"`
	FileSize     int64          `json:"file_size"`
	StorageKey   string         `gorm:"not null" json:"storage_key"`
	Metadata     datatypes.JSON `json:"metadata,omitempty"`
	UploadedBy   uuid.UUID      `gorm:"type:uuid" json:"uploaded_by"`
	UploadedAt   time.Time      `json:"uploaded_at"`
}
