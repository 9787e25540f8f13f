package projects

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RudyEaglevanBreda/drone-ops-manager/pkg/workflows"
)

func TestLifecycle_ReachabilityConsistency(t *testing.T) {
	lc := NewLifecycle()

	for _, from := range lc.Statuses() {
		next := lc.AvailableNextStatuses(from)
		for _, to := range lc.Statuses() {
			assert.Equal(t, slices.Contains(next, to), lc.IsValidTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestLifecycle_NoSelfLoops(t *testing.T) {
	lc := NewLifecycle()

	for _, s := range lc.Statuses() {
		assert.False(t, lc.IsValidTransition(s, s), "self-loop on %s", s)
	}
}

func TestLifecycle_TerminalStatuses(t *testing.T) {
	lc := NewLifecycle()

	for _, s := range []workflows.Status{StatusCompleted, StatusLost, StatusCancelled} {
		assert.Empty(t, lc.AvailableNextStatuses(s), s)
		assert.True(t, lc.IsTerminal(s), s)
	}

	var terminal []workflows.Status
	for _, s := range lc.Statuses() {
		if lc.IsTerminal(s) {
			terminal = append(terminal, s)
		}
	}
	assert.ElementsMatch(t, []workflows.Status{StatusCompleted, StatusLost, StatusCancelled}, terminal)
}

func TestLifecycle_AllStatusesReachable(t *testing.T) {
	lc := NewLifecycle()

	assert.Len(t, lc.Statuses(), 13)
	assert.ElementsMatch(t, lc.Statuses(), lc.Reachable())
	assert.Equal(t, StatusPlanning, lc.Initial())
}

func TestLifecycle_Graph(t *testing.T) {
	lc := NewLifecycle()

	tests := []struct {
		from workflows.Status
		want []workflows.Status
	}{
		{StatusPlanning, []workflows.Status{StatusDiscovery, StatusCancelled, StatusOnHold, StatusLost}},
		{StatusApproved, []workflows.Status{StatusActive, StatusCancelled, StatusOnHold}},
		{StatusArchiving, []workflows.Status{StatusCompleted, StatusReview, StatusCancelled}},
		{StatusOnHold, []workflows.Status{
			StatusPlanning, StatusDiscovery, StatusDrafting, StatusSent, StatusAgreementPending,
			StatusApproved, StatusActive, StatusReview, StatusCancelled, StatusLost,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.from.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, lc.AvailableNextStatuses(tt.from))
		})
	}
}

func TestLifecycle_GuidanceIsStable(t *testing.T) {
	lc := NewLifecycle()

	for _, s := range lc.Statuses() {
		first := lc.GuidanceFor(s)
		assert.NotEqual(t, workflows.NoGuidance, first, s)
		assert.Equal(t, first, lc.GuidanceFor(s))
	}
}

func TestLifecycle_UnknownStatus(t *testing.T) {
	lc := NewLifecycle()

	assert.Equal(t, []workflows.Status{}, lc.AvailableNextStatuses("NotARealStatus"))
	assert.Equal(t, "No guidance available for this status.", lc.GuidanceFor("NotARealStatus"))
}

func TestLifecycle_ValidateTransition(t *testing.T) {
	lc := NewLifecycle()

	tests := []struct {
		name    string
		project *Project
		next    workflows.Status
		want    workflows.Result
	}{
		{
			name:    "planning with names",
			project: &Project{Status: StatusPlanning, ProjectName: "Harbour survey", ClientName: "Port Authority"},
			next:    StatusDiscovery,
			want:    workflows.Result{Valid: true, Message: ""},
		},
		{
			name:    "planning missing both names reports one message",
			project: &Project{Status: StatusPlanning},
			next:    StatusDiscovery,
			want:    workflows.Result{Message: "Project and client names are required to proceed to Discovery/Meeting phase."},
		},
		{
			name:    "empty meeting notes",
			project: &Project{Status: StatusDiscovery, MeetingNotes: ""},
			next:    StatusDrafting,
			want:    workflows.Result{Message: "Meeting notes are required to proceed to Proposal/Contract Drafting phase."},
		},
		{
			name:    "whitespace meeting notes",
			project: &Project{Status: StatusDiscovery, MeetingNotes: "   "},
			next:    StatusDrafting,
			want:    workflows.Result{Message: "Meeting notes are required to proceed to Proposal/Contract Drafting phase."},
		},
		{
			name:    "contract missing",
			project: &Project{Status: StatusDrafting},
			next:    StatusSent,
			want:    workflows.Result{Message: "Contract document must be uploaded to proceed to Proposal/Contract Sent phase."},
		},
		{
			name:    "boundary present",
			project: &Project{Status: StatusApproved, ProjectBoundaryKMLPath: "PRJ-1/02_Site_Boundary_KML/b.kml"},
			next:    StatusActive,
			want:    workflows.Result{Valid: true},
		},
		{
			name:    "empty requirement entry",
			project: &Project{Status: StatusSent},
			next:    StatusAgreementPending,
			want:    workflows.Result{Valid: true},
		},
		{
			name:    "not connected",
			project: &Project{Status: StatusPlanning, ProjectName: "a", ClientName: "b"},
			next:    StatusCompleted,
			want:    workflows.Result{Message: "Cannot transition from 'Planning' to 'Completed'"},
		},
		{
			name:    "terminal",
			project: &Project{Status: StatusCompleted},
			next:    StatusArchiving,
			want:    workflows.Result{Message: "Cannot transition from 'Completed' to 'Archiving'"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lc.ValidateTransition(tt.project, tt.next))
		})
	}
}

func TestDefinition_IsFreshCopy(t *testing.T) {
	def := Definition()
	def.Transitions[StatusPlanning] = nil

	assert.NotEmpty(t, NewLifecycle().AvailableNextStatuses(StatusPlanning))
}

func TestProjectRecord_FieldLookup(t *testing.T) {
	p := &Project{Status: StatusDiscovery, MeetingNotes: "notes", ProjectBoundaryKMLPath: "b.kml"}

	v, ok := p.Field("MEETINGNOTES")
	require.True(t, ok)
	assert.Equal(t, "notes", v)

	v, ok = p.Field("projectBoundaryKmlPath")
	require.True(t, ok)
	assert.Equal(t, "b.kml", v)

	_, ok = p.Field("quoteAmount")
	assert.False(t, ok)
	assert.Equal(t, StatusDiscovery, p.CurrentStatus())
}
