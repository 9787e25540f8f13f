package projects

import (
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/apperr"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/fieldvalue"
	"github.com/RudyEaglevanBreda/drone-ops-manager/pkg/workflows"
)

// Logical field names used by requirements and the field update endpoint.
const (
	FieldProjectName            = "projectName"
	FieldClientName             = "clientName"
	FieldDescription            = "description"
	FieldMeetingNotes           = "meetingNotes"
	FieldContractDocumentPath   = "contractDocumentPath"
	FieldProjectBoundaryKMLPath = "projectBoundaryKmlPath"
	FieldFolderID               = "folderId"
)

var projectFields = workflows.NewFieldRegistry(map[string]func(*Project) any{
	FieldProjectName:            func(p *Project) any { return p.ProjectName },
	FieldClientName:             func(p *Project) any { return p.ClientName },
	FieldDescription:            func(p *Project) any { return p.Description },
	FieldMeetingNotes:           func(p *Project) any { return p.MeetingNotes },
	FieldContractDocumentPath:   func(p *Project) any { return p.ContractDocumentPath },
	FieldProjectBoundaryKMLPath: func(p *Project) any { return p.ProjectBoundaryKMLPath },
	FieldFolderID:               func(p *Project) any { return p.FolderID },
})

// CurrentStatus implements workflows.Record.
func (p *Project) CurrentStatus() workflows.Status {
	return p.Status
}

// Field implements workflows.Record.
func (p *Project) Field(name string) (any, bool) {
	return projectFields.Lookup(p, name)
}

// gatingField is a field that may be set through the field update endpoint.
type gatingField struct {
	column string
	set    func(p *Project, v any) (any, error)
}

func stringField(field, column string, assign func(*Project, string)) gatingField {
	return gatingField{
		column: column,
		set: func(p *Project, v any) (any, error) {
			s, err := fieldvalue.String(field, v)
			if err != nil {
				return nil, err
			}
			assign(p, s)
			return s, nil
		},
	}
}

// updatableFields is the allow-list. Matching is exact.
var updatableFields = map[string]gatingField{
	FieldMeetingNotes: stringField(FieldMeetingNotes, "meeting_notes",
		func(p *Project, s string) { p.MeetingNotes = s }),
	FieldContractDocumentPath: stringField(FieldContractDocumentPath, "contract_document_path",
		func(p *Project, s string) { p.ContractDocumentPath = s }),
	FieldProjectBoundaryKMLPath: stringField(FieldProjectBoundaryKMLPath, "project_boundary_kml_path",
		func(p *Project, s string) { p.ProjectBoundaryKMLPath = s }),
}

// applyField sets field on p and returns the column update to persist.
func applyField(p *Project, field string, value any) (map[string]any, error) {
	f, ok := updatableFields[field]
	if !ok {
		return nil, apperr.New(apperr.ErrFieldNotAllowed, "Field '%s' cannot be updated through this endpoint", field)
	}
	stored, err := f.set(p, value)
	if err != nil {
		return nil, err
	}
	return map[string]any{f.column: stored}, nil
}
