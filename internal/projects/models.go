package projects

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/RudyEaglevanBreda/drone-ops-manager/pkg/workflows"
)

// Project is a client engagement. Its status only changes through the lifecycle
// engine.
type Project struct {
	ID                     uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code                   string           `gorm:"uniqueIndex;not null" json:"code"`
	ProjectName            string           `gorm:"not null" json:"project_name"`
	ClientName             string           `gorm:"index" json:"client_name"`
	Description            string           `json:"description"`
	Status                 workflows.Status `gorm:"type:text;not null;default:'Planning';index" json:"status"`
	MeetingNotes           string           `json:"meeting_notes"`
	ContractDocumentPath   string           `json:"contract_document_path"`
	ProjectBoundaryKMLPath string           `gorm:"column:project_boundary_kml_path" json:"project_boundary_kml_path"`
	FolderID               string           `json:"folder_id"`
	FolderName             string           `json:"folder_name"`
	CreatedBy              uuid.UUID        `gorm:"type:uuid" json:"created_by"`
	CreatedAt              time.Time        `json:"created_at"`
	UpdatedAt              time.Time        `json:"updated_at"`
	DeletedAt              gorm.DeletedAt   `gorm:"index" json:"-"`
}

// ProjectStatusHistory records one applied transition.
type ProjectStatusHistory struct {
	ID         uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID  uuid.UUID        `gorm:"type:uuid;not null;index" json:"project_id"`
	FromStatus workflows.Status `gorm:"type:text;not null" json:"from_status"`
	ToStatus   workflows.Status `gorm:"type:text;not null" json:"to_status"`
	ChangedAt  time.Time        `json:"changed_at"`
	ChangedBy  uuid.UUID        `gorm:"type:uuid" json:"changed_by"`
}

// ProjectActivity logs activities on the project
type ProjectActivity struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"project_id"`
	ActivityType string         `gorm:"not null" json:"activity_type"`
	Description  string         `json:"description"`
	Metadata     datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UserID       uuid.UUID      `gorm:"type:uuid" json:"user_id"`
}

const (
	ActivityCreated       = "CREATED"
	ActivityStatusChanged = "STATUS_CHANGED"
	ActivityFieldUpdated  = "FIELD_UPDATED"
)

// ProjectFilter narrows ListProjects. Zero values match everything.
type ProjectFilter struct {
	Status     workflows.Status
	ClientName string
	Search     string
	Limit      int
	Offset     int
}

type CreateProjectRequest struct {
	ProjectName string `json:"projectName" binding:"required"`
	ClientName  string `json:"clientName"`
	Description string `json:"description"`
}

type UpdateStatusRequest struct {
	NextStatus string `json:"nextStatus"`
}

type UpdateFieldRequest struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}
