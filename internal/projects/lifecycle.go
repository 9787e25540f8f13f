package projects

import "github.com/RudyEaglevanBreda/drone-ops-manager/pkg/workflows"

const (
	StatusPlanning         workflows.Status = "Planning"
	StatusDiscovery        workflows.Status = "Discovery/Meeting"
	StatusDrafting         workflows.Status = "Proposal/Contract Drafting"
	StatusSent             workflows.Status = "Proposal/Contract Sent"
	StatusAgreementPending workflows.Status = "Client Agreement Pending"
	StatusApproved         workflows.Status = "Project Approved"
	StatusActive           workflows.Status = "Active - Ongoing"
	StatusReview           workflows.Status = "Project Review"
	StatusArchiving        workflows.Status = "Archiving"
	StatusCompleted        workflows.Status = "Completed"
	StatusOnHold           workflows.Status = "On Hold"
	StatusLost             workflows.Status = "Lost"
	StatusCancelled        workflows.Status = "Cancelled"
)

// Definition returns the project lifecycle table. Each call builds a fresh
// value, so callers may modify it before handing it to workflows.NewEngine.
func Definition() workflows.Definition {
	return workflows.Definition{
		Kind:    "project",
		Initial: StatusPlanning,
		Statuses: []workflows.Status{
			StatusPlanning, StatusDiscovery, StatusDrafting, StatusSent,
			StatusAgreementPending, StatusApproved, StatusActive, StatusReview,
			StatusArchiving, StatusCompleted, StatusOnHold, StatusLost, StatusCancelled,
		},
		Transitions: map[workflows.Status][]workflows.Status{
			StatusPlanning:         {StatusDiscovery, StatusCancelled, StatusOnHold, StatusLost},
			StatusDiscovery:        {StatusDrafting, StatusPlanning, StatusCancelled, StatusOnHold, StatusLost},
			StatusDrafting:         {StatusSent, StatusDiscovery, StatusCancelled, StatusOnHold, StatusLost},
			StatusSent:             {StatusAgreementPending, StatusDrafting, StatusCancelled, StatusOnHold, StatusLost},
			StatusAgreementPending: {StatusApproved, StatusDrafting, StatusCancelled, StatusOnHold, StatusLost},
			StatusApproved:         {StatusActive, StatusCancelled, StatusOnHold},
			StatusActive:           {StatusReview, StatusCancelled, StatusOnHold},
			StatusReview:           {StatusArchiving, StatusActive, StatusCancelled, StatusOnHold},
			StatusArchiving:        {StatusCompleted, StatusReview, StatusCancelled},
			StatusOnHold: {
				StatusPlanning, StatusDiscovery, StatusDrafting, StatusSent, StatusAgreementPending,
				StatusApproved, StatusActive, StatusReview, StatusCancelled, StatusLost,
			},
			StatusCompleted: {},
			StatusLost:      {},
			StatusCancelled: {},
		},
		Requirements: map[workflows.Transition]workflows.Requirement{
			{From: StatusPlanning, To: StatusDiscovery}: {
				RequiredFields: []string{FieldProjectName, FieldClientName},
				Message:        "Project and client names are required to proceed to Discovery/Meeting phase.",
			},
			{From: StatusDiscovery, To: StatusDrafting}: {
				RequiredFields: []string{FieldMeetingNotes},
				Message:        "Meeting notes are required to proceed to Proposal/Contract Drafting phase.",
			},
			{From: StatusDrafting, To: StatusSent}: {
				RequiredFields: []string{FieldContractDocumentPath},
				Message:        "Contract document must be uploaded to proceed to Proposal/Contract Sent phase.",
			},
			{From: StatusSent, To: StatusAgreementPending}:     {},
			{From: StatusAgreementPending, To: StatusApproved}: {},
			{From: StatusApproved, To: StatusActive}: {
				RequiredFields: []string{FieldProjectBoundaryKMLPath},
				Message:        "Project boundary KML file must be uploaded to proceed to Active phase.",
			},
			{From: StatusActive, To: StatusReview}:       {},
			{From: StatusReview, To: StatusArchiving}:    {},
			{From: StatusArchiving, To: StatusCompleted}: {},
		},
		Guidance: map[workflows.Status]string{
			StatusPlanning:         "Initial project planning stage. Define project scope, objectives, and target client. Once details are finalized, move to Discovery/Meeting phase.",
			StatusDiscovery:        "Schedule and conduct initial client meetings. Document requirements, expectations, and any special considerations. Complete meeting notes before progressing.",
			StatusDrafting:         "Draft a detailed proposal and contract for the client. Include scope, timeline, deliverables, and pricing. Upload the final contract before proceeding.",
			StatusSent:             "Contract has been sent to the client. Follow up as needed and update status when client responds.",
			StatusAgreementPending: "Client is reviewing the proposal. Stay in contact and address any questions or concerns.",
			StatusApproved:         "Client has approved the project. Prepare for execution by uploading the project boundary file.",
			StatusActive:           "Project is in active execution. Create work orders, assign resources, and track progress.",
			StatusReview:           "All work orders are complete. Review deliverables, gather feedback, and prepare final documentation.",
			StatusArchiving:        "Organize and archive all project materials. Ensure all client deliverables have been provided.",
			StatusCompleted:        "Project is successfully completed and closed. No further actions required.",
			StatusOnHold:           "Project temporarily paused. Document the reason and expected resumption date.",
			StatusLost:             "Client has decided not to proceed. Document reasons if known for future reference.",
			StatusCancelled:        "Project cancelled. Document reasons and lessons learned.",
		},
	}
}

// NewLifecycle builds the project lifecycle engine.
func NewLifecycle() *workflows.Engine {
	return workflows.MustEngine(Definition())
}
