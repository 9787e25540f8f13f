package workflows

import "fmt"

// TransitionOption describes one next status offered to the operator.
type TransitionOption struct {
	Status              Status `json:"status"`
	RequirementsMet     bool   `json:"requirementsMet"`
	RequirementsMessage string `json:"requirementsMessage"`
	ButtonLabel         string `json:"buttonLabel,omitempty"`
	Description         string `json:"description,omitempty"`
}

// StatusDetail pairs a status with its guidance.
type StatusDetail struct {
	Status   Status `json:"status"`
	Guidance string `json:"guidance"`
}

// Options validates record against every available next status, in offer order.
func (e *Engine) Options(record Record) []TransitionOption {
	next := e.AvailableNextStatuses(record.CurrentStatus())
	options := make([]TransitionOption, 0, len(next))
	for _, status := range next {
		res := e.ValidateTransition(record, status)
		options = append(options, TransitionOption{
			Status:              status,
			RequirementsMet:     res.Valid,
			RequirementsMessage: res.Message,
			ButtonLabel:         fmt.Sprintf("Move to %s", status),
			Description:         e.GuidanceFor(status),
		})
	}
	return options
}

// BriefOptions is Options without the presentation fields.
func (e *Engine) BriefOptions(record Record) []TransitionOption {
	options := e.Options(record)
	for i := range options {
		options[i].ButtonLabel = ""
		options[i].Description = ""
	}
	return options
}

// StatusDetails lists every status with its guidance, in declared order.
func (e *Engine) StatusDetails() []StatusDetail {
	details := make([]StatusDetail, 0, len(e.statuses))
	for _, s := range e.statuses {
		details = append(details, StatusDetail{Status: s, Guidance: e.GuidanceFor(s)})
	}
	return details
}

// TransitionsView is what an operator sees for a record: where it is, what to
// do there, and where it can go next.
type TransitionsView struct {
	CurrentStatus        Status             `json:"currentStatus"`
	CurrentGuidance      string             `json:"currentGuidance"`
	AvailableTransitions []TransitionOption `json:"availableTransitions"`
}

// View builds the TransitionsView for record.
func (e *Engine) View(record Record) TransitionsView {
	current := record.CurrentStatus()
	return TransitionsView{
		CurrentStatus:        current,
		CurrentGuidance:      e.GuidanceFor(current),
		AvailableTransitions: e.Options(record),
	}
}
