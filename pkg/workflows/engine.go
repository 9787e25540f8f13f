package workflows

import (
	"fmt"
)

// Status is a named stage in an entity's lifecycle.
type Status string

func (s Status) String() string {
	return string(s)
}

// Transition is an ordered (from, to) pair of statuses.
type Transition struct {
	From Status
	To   Status
}

// Requirement lists the record fields that must be present before a transition
// is allowed, and the message shown when one is missing.
type Requirement struct {
	RequiredFields []string
	Message        string
}

// Definition is the static configuration of one lifecycle.
type Definition struct {
	Kind         string
	Initial      Status
	Statuses     []Status
	Transitions  map[Status][]Status
	Requirements map[Transition]Requirement
	Guidance     map[Status]string
}

// Result is the outcome of ValidateTransition. A failed validation is a value,
// not an error.
type Result struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// NoGuidance is returned by GuidanceFor for statuses without guidance text.
const NoGuidance = "No guidance available for this status."

// Engine enforces status transitions for one entity kind. It holds a private
// copy of its Definition and is safe for concurrent use.
type Engine struct {
	kind         string
	initial      Status
	statuses     []Status
	transitions  map[Status][]Status
	requirements map[Transition]Requirement
	guidance     map[Status]string
}

// NewEngine validates def and builds an engine from a copy of it.
func NewEngine(def Definition) (*Engine, error) {
	if def.Initial == "" {
		return nil, fmt.Errorf("%s lifecycle: initial status is required", def.Kind)
	}
	if _, ok := def.Transitions[def.Initial]; !ok {
		return nil, fmt.Errorf("%s lifecycle: initial status %q has no transition entry", def.Kind, def.Initial)
	}

	e := &Engine{
		kind:         def.Kind,
		initial:      def.Initial,
		statuses:     append([]Status(nil), def.Statuses...),
		transitions:  make(map[Status][]Status, len(def.Transitions)),
		requirements: make(map[Transition]Requirement, len(def.Requirements)),
		guidance:     make(map[Status]string, len(def.Guidance)),
	}

	for from, targets := range def.Transitions {
		seen := make(map[Status]bool, len(targets))
		for _, to := range targets {
			if to == from {
				return nil, fmt.Errorf("%s lifecycle: self-loop on %q", def.Kind, from)
			}
			if seen[to] {
				return nil, fmt.Errorf("%s lifecycle: duplicate edge %q -> %q", def.Kind, from, to)
			}
			seen[to] = true
		}
		e.transitions[from] = append([]Status(nil), targets...)
	}

	for _, s := range e.Reachable() {
		if _, ok := e.transitions[s]; !ok {
			return nil, fmt.Errorf("%s lifecycle: reachable status %q has no transition entry", def.Kind, s)
		}
	}

	for t, req := range def.Requirements {
		e.requirements[t] = Requirement{
			RequiredFields: append([]string(nil), req.RequiredFields...),
			Message:        req.Message,
		}
	}
	for s, text := range def.Guidance {
		e.guidance[s] = text
	}

	return e, nil
}

// MustEngine is like NewEngine but panics on an invalid definition. It is meant
// for the compiled-in lifecycles.
func MustEngine(def Definition) *Engine {
	e, err := NewEngine(def)
	if err != nil {
		panic(err)
	}
	return e
}

// Kind returns the entity kind this engine governs.
func (e *Engine) Kind() string {
	return e.kind
}

// Initial returns the status assigned to new records.
func (e *Engine) Initial() Status {
	return e.initial
}

// Statuses returns every status in declared order.
func (e *Engine) Statuses() []Status {
	return append([]Status(nil), e.statuses...)
}

// AvailableNextStatuses returns the statuses reachable in one step from current.
// Unknown statuses have no next statuses.
func (e *Engine) AvailableNextStatuses(current Status) []Status {
	next, ok := e.transitions[current]
	if !ok {
		return []Status{}
	}
	return append([]Status{}, next...)
}

// IsValidTransition reports whether to is directly reachable from from.
func (e *Engine) IsValidTransition(from, to Status) bool {
	for _, s := range e.transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether status is a known status with no outgoing edges.
func (e *Engine) IsTerminal(status Status) bool {
	next, ok := e.transitions[status]
	return ok && len(next) == 0
}

// RequirementsFor returns the requirement configured for a transition, or an
// empty requirement.
func (e *Engine) RequirementsFor(from, to Status) Requirement {
	req, ok := e.requirements[Transition{From: from, To: to}]
	if !ok {
		return Requirement{}
	}
	return Requirement{
		RequiredFields: append([]string(nil), req.RequiredFields...),
		Message:        req.Message,
	}
}

// ValidateTransition checks that record may move to next. It stops at the
// first missing field, in declared order.
func (e *Engine) ValidateTransition(record Record, next Status) Result {
	current := record.CurrentStatus()

	if !e.IsValidTransition(current, next) {
		return Result{
			Valid:   false,
			Message: fmt.Sprintf("Cannot transition from '%s' to '%s'", current, next),
		}
	}

	req := e.requirements[Transition{From: current, To: next}]
	for _, field := range req.RequiredFields {
		value, ok := record.Field(field)
		if ok && IsPresent(value) {
			continue
		}
		message := req.Message
		if message == "" {
			message = fmt.Sprintf("Field '%s' is required for this transition", field)
		}
		return Result{Valid: false, Message: message}
	}

	return Result{Valid: true, Message: ""}
}

// GuidanceFor returns the operator guidance for status.
func (e *Engine) GuidanceFor(status Status) string {
	if text, ok := e.guidance[status]; ok {
		return text
	}
	return NoGuidance
}

// Reachable returns every status reachable from the initial status, in
// breadth-first order.
func (e *Engine) Reachable() []Status {
	visited := map[Status]bool{e.initial: true}
	order := []Status{e.initial}
	for i := 0; i < len(order); i++ {
		for _, next := range e.transitions[order[i]] {
			if !visited[next] {
				visited[next] = true
				order = append(order, next)
			}
		}
	}
	return order
}
