package workflows

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	status Status
	fields map[string]any
}

func (r testRecord) CurrentStatus() Status { return r.status }

func (r testRecord) Field(name string) (any, bool) {
	for k, v := range r.fields {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

func testDefinition() Definition {
	return Definition{
		Kind:     "ticket",
		Initial:  "Draft",
		Statuses: []Status{"Draft", "Review", "Done", "Parked"},
		Transitions: map[Status][]Status{
			"Draft":  {"Review", "Parked"},
			"Review": {"Done", "Draft", "Parked"},
			"Parked": {"Draft", "Review"},
			"Done":   {},
		},
		Requirements: map[Transition]Requirement{
			{From: "Draft", To: "Review"}: {
				RequiredFields: []string{"title", "body"},
				Message:        "Title and body are required for review.",
			},
			{From: "Review", To: "Done"}: {
				RequiredFields: []string{"approver"},
			},
		},
		Guidance: map[Status]string{
			"Draft":  "Write it.",
			"Review": "Check it.",
		},
	}
}

func TestNewEngine_RejectsSelfLoop(t *testing.T) {
	def := testDefinition()
	def.Transitions["Review"] = []Status{"Done", "Review"}

	_, err := NewEngine(def)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "self-loop")
}

func TestNewEngine_RejectsUnkeyedReachableStatus(t *testing.T) {
	def := testDefinition()
	def.Transitions["Review"] = []Status{"Done", "Shipped"}

	_, err := NewEngine(def)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Shipped"`)
}

func TestNewEngine_RejectsDuplicateEdge(t *testing.T) {
	def := testDefinition()
	def.Transitions["Draft"] = []Status{"Review", "Review"}

	_, err := NewEngine(def)
	assert.Error(t, err)
}

func TestNewEngine_RequiresInitial(t *testing.T) {
	def := testDefinition()
	def.Initial = ""

	_, err := NewEngine(def)
	assert.Error(t, err)
}

func TestNewEngine_CopiesDefinition(t *testing.T) {
	def := testDefinition()
	e := MustEngine(def)

	def.Transitions["Draft"][0] = "Done"
	def.Guidance["Draft"] = "changed"

	assert.Equal(t, []Status{"Review", "Parked"}, e.AvailableNextStatuses("Draft"))
	assert.Equal(t, "Write it.", e.GuidanceFor("Draft"))
}

func TestMustEngine_Panics(t *testing.T) {
	def := testDefinition()
	def.Transitions["Done"] = []Status{"Done"}

	assert.Panics(t, func() { MustEngine(def) })
}

func TestAvailableNextStatuses(t *testing.T) {
	e := MustEngine(testDefinition())

	assert.Equal(t, []Status{"Review", "Parked"}, e.AvailableNextStatuses("Draft"))
	assert.Equal(t, []Status{"Done", "Draft", "Parked"}, e.AvailableNextStatuses("Review"))
	assert.Empty(t, e.AvailableNextStatuses("Done"))
	assert.NotNil(t, e.AvailableNextStatuses("Nope"))
	assert.Empty(t, e.AvailableNextStatuses("Nope"))

	// callers cannot mutate the engine's tables
	next := e.AvailableNextStatuses("Draft")
	next[0] = "Done"
	assert.Equal(t, Status("Review"), e.AvailableNextStatuses("Draft")[0])
}

func TestIsValidTransition_AgreesWithAvailable(t *testing.T) {
	e := MustEngine(testDefinition())

	for _, from := range e.Statuses() {
		next := e.AvailableNextStatuses(from)
		for _, to := range e.Statuses() {
			want := false
			for _, s := range next {
				if s == to {
					want = true
				}
			}
			assert.Equal(t, want, e.IsValidTransition(from, to), "%s -> %s", from, to)
		}
		assert.False(t, e.IsValidTransition(from, from))
	}
}

func TestIsValidTransition_ExactMatch(t *testing.T) {
	e := MustEngine(testDefinition())

	assert.True(t, e.IsValidTransition("Draft", "Review"))
	assert.False(t, e.IsValidTransition("Draft", "review"))
	assert.False(t, e.IsValidTransition("draft", "Review"))
}

func TestIsTerminal(t *testing.T) {
	e := MustEngine(testDefinition())

	assert.True(t, e.IsTerminal("Done"))
	assert.False(t, e.IsTerminal("Draft"))
	assert.False(t, e.IsTerminal("Unknown"))
}

func TestValidateTransition(t *testing.T) {
	e := MustEngine(testDefinition())

	tests := []struct {
		name    string
		record  testRecord
		next    Status
		valid   bool
		message string
	}{
		{
			name:    "not connected",
			record:  testRecord{status: "Draft"},
			next:    "Done",
			message: "Cannot transition from 'Draft' to 'Done'",
		},
		{
			name:    "unknown current status",
			record:  testRecord{status: "Legacy"},
			next:    "Draft",
			message: "Cannot transition from 'Legacy' to 'Draft'",
		},
		{
			name:    "configured message",
			record:  testRecord{status: "Draft", fields: map[string]any{"title": "x"}},
			next:    "Review",
			message: "Title and body are required for review.",
		},
		{
			name:    "generated message",
			record:  testRecord{status: "Review"},
			next:    "Done",
			message: "Field 'approver' is required for this transition",
		},
		{
			name:    "whitespace is missing",
			record:  testRecord{status: "Review", fields: map[string]any{"approver": "   "}},
			next:    "Done",
			message: "Field 'approver' is required for this transition",
		},
		{
			name:   "case-insensitive field lookup",
			record: testRecord{status: "Review", fields: map[string]any{"APPROVER": "kim"}},
			next:   "Done",
			valid:  true,
		},
		{
			name:   "no requirements",
			record: testRecord{status: "Draft"},
			next:   "Parked",
			valid:  true,
		},
		{
			name:   "all present",
			record: testRecord{status: "Draft", fields: map[string]any{"title": "t", "body": "b"}},
			next:   "Review",
			valid:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.ValidateTransition(tt.record, tt.next)
			assert.Equal(t, tt.valid, res.Valid)
			assert.Equal(t, tt.message, res.Message)
		})
	}
}

type countingRecord struct {
	testRecord
	asked []string
}

func (r *countingRecord) Field(name string) (any, bool) {
	r.asked = append(r.asked, name)
	return r.testRecord.Field(name)
}

func TestValidateTransition_FailsFast(t *testing.T) {
	def := testDefinition()
	def.Requirements[Transition{From: "Draft", To: "Review"}] = Requirement{
		RequiredFields: []string{"title", "body"},
	}
	e := MustEngine(def)

	rec := &countingRecord{testRecord: testRecord{status: "Draft"}}
	res := e.ValidateTransition(rec, "Review")

	assert.False(t, res.Valid)
	assert.Equal(t, "Field 'title' is required for this transition", res.Message)
	assert.Equal(t, []string{"title"}, rec.asked)
}

func TestGuidanceFor(t *testing.T) {
	e := MustEngine(testDefinition())

	assert.Equal(t, "Write it.", e.GuidanceFor("Draft"))
	assert.Equal(t, e.GuidanceFor("Draft"), e.GuidanceFor("Draft"))
	assert.Equal(t, NoGuidance, e.GuidanceFor("Parked"))
	assert.Equal(t, NoGuidance, e.GuidanceFor("NotARealStatus"))
}

func TestRequirementsFor(t *testing.T) {
	e := MustEngine(testDefinition())

	req := e.RequirementsFor("Draft", "Review")
	assert.Equal(t, []string{"title", "body"}, req.RequiredFields)
	assert.Empty(t, e.RequirementsFor("Draft", "Parked").RequiredFields)
}

func TestReachable(t *testing.T) {
	e := MustEngine(testDefinition())

	assert.ElementsMatch(t, []Status{"Draft", "Review", "Parked", "Done"}, e.Reachable())
	assert.Equal(t, Status("Draft"), e.Reachable()[0])
}

func TestOptions(t *testing.T) {
	e := MustEngine(testDefinition())

	opts := e.Options(testRecord{status: "Draft", fields: map[string]any{"title": "t"}})
	require.Len(t, opts, 2)

	assert.Equal(t, Status("Review"), opts[0].Status)
	assert.False(t, opts[0].RequirementsMet)
	assert.Equal(t, "Title and body are required for review.", opts[0].RequirementsMessage)
	assert.Equal(t, "Move to Review", opts[0].ButtonLabel)
	assert.Equal(t, "Check it.", opts[0].Description)

	assert.Equal(t, Status("Parked"), opts[1].Status)
	assert.True(t, opts[1].RequirementsMet)
	assert.Equal(t, NoGuidance, opts[1].Description)

	brief := e.BriefOptions(testRecord{status: "Draft"})
	assert.Empty(t, brief[0].ButtonLabel)
	assert.Empty(t, brief[0].Description)
}

func TestView(t *testing.T) {
	e := MustEngine(testDefinition())

	view := e.View(testRecord{status: "Review", fields: map[string]any{"approver": "kim"}})

	assert.Equal(t, Status("Review"), view.CurrentStatus)
	assert.Equal(t, "Check it.", view.CurrentGuidance)
	require.Len(t, view.AvailableTransitions, 3)
	assert.True(t, view.AvailableTransitions[0].RequirementsMet)

	unknown := e.View(testRecord{status: "Lost"})
	assert.Equal(t, NoGuidance, unknown.CurrentGuidance)
	assert.Empty(t, unknown.AvailableTransitions)
}

func TestStatusDetails(t *testing.T) {
	e := MustEngine(testDefinition())

	details := e.StatusDetails()
	require.Len(t, details, 4)
	assert.Equal(t, StatusDetail{Status: "Draft", Guidance: "Write it."}, details[0])
	assert.Equal(t, StatusDetail{Status: "Parked", Guidance: NoGuidance}, details[3])
}

func TestEngine_ConcurrentUse(t *testing.T) {
	e := MustEngine(testDefinition())
	rec := testRecord{status: "Draft", fields: map[string]any{"title": "t", "body": "b"}}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.True(t, e.ValidateTransition(rec, "Review").Valid)
				_ = e.Options(rec)
			}
		}()
	}
	wg.Wait()
}

func TestIsPresent(t *testing.T) {
	empty := ""
	text := "notes"
	amount := 0.0
	now := time.Now()
	var nilTime *time.Time
	var nilSlice []string

	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"nil", nil, false},
		{"empty string", "", false},
		{"blank string", " \t\n", false},
		{"string", "x", true},
		{"nil string pointer", (*string)(nil), false},
		{"empty string pointer", &empty, false},
		{"string pointer", &text, true},
		{"nil slice", nilSlice, false},
		{"empty slice", []string{}, false},
		{"slice", []string{"mapping"}, true},
		{"named slice type", namedSlice{"a"}, true},
		{"empty named slice", namedSlice{}, false},
		{"nil float pointer", (*float64)(nil), false},
		{"zero amount", &amount, true},
		{"nil time", nilTime, false},
		{"time pointer", &now, true},
		{"zero time", time.Time{}, false},
		{"empty map", map[string]string{}, false},
		{"int", 3, true},
		{"bool", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPresent(tt.value))
		})
	}
}

type namedSlice []string

func TestFieldRegistry(t *testing.T) {
	type thing struct{ Notes string }
	reg := NewFieldRegistry(map[string]func(thing) any{
		"meetingNotes": func(th thing) any { return th.Notes },
	})

	v, ok := reg.Lookup(thing{Notes: "n"}, "MeetingNotes")
	assert.True(t, ok)
	assert.Equal(t, "n", v)

	v, ok = reg.Lookup(thing{}, "meetingnotes")
	assert.True(t, ok)
	assert.Equal(t, "", v)

	_, ok = reg.Lookup(thing{}, "other")
	assert.False(t, ok)
	assert.True(t, reg.Has("MEETINGNOTES"))
}

func TestResultErr(t *testing.T) {
	assert.NoError(t, Result{Valid: true}.Err("A", "B"))

	err := Result{Message: "nope"}.Err("A", "B")
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "nope", te.Error())
	assert.Equal(t, Status("B"), te.To)
}
