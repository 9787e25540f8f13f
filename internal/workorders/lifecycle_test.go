package workorders

import (
	"encoding/json"
	"slices"
	"testing"
	"time"

	"github.com/lib/pq"
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
		assert.False(t, lc.IsValidTransition(from, from), "self-loop on %s", from)
	}
}

func TestLifecycle_TerminalStatuses(t *testing.T) {
	lc := NewLifecycle()

	var terminal []workflows.Status
	for _, s := range lc.Statuses() {
		if lc.IsTerminal(s) {
			terminal = append(terminal, s)
		}
	}

	assert.Equal(t, []workflows.Status{StatusCompleted, StatusCancelled}, terminal)
	assert.Empty(t, lc.AvailableNextStatuses(StatusCompleted))
	assert.Empty(t, lc.AvailableNextStatuses(StatusCancelled))
}

func TestLifecycle_AllStatusesReachable(t *testing.T) {
	lc := NewLifecycle()

	assert.Len(t, lc.Statuses(), 19)
	assert.ElementsMatch(t, lc.Statuses(), lc.Reachable())
}

func TestLifecycle_QuoteSentOptions(t *testing.T) {
	lc := NewLifecycle()

	assert.Equal(t,
		[]workflows.Status{StatusClientApproved, StatusClientRejected, StatusQuoting, StatusOnHold, StatusCancelled},
		lc.AvailableNextStatuses(StatusQuoteSent))
}

func TestLifecycle_OnHoldReturns(t *testing.T) {
	lc := NewLifecycle()

	next := lc.AvailableNextStatuses(StatusOnHold)

	assert.NotContains(t, next, StatusOnHold)
	assert.NotContains(t, next, StatusClientRejected)
	assert.NotContains(t, next, StatusPaid)
	assert.Equal(t, StatusPlanning, next[0])
	assert.Equal(t, StatusCancelled, next[len(next)-1])
	assert.Len(t, next, 15)
}

func TestLifecycle_PaidOnlyCompletes(t *testing.T) {
	lc := NewLifecycle()

	assert.Equal(t, []workflows.Status{StatusCompleted}, lc.AvailableNextStatuses(StatusPaid))
}

func TestLifecycle_GuidanceAndUnknown(t *testing.T) {
	lc := NewLifecycle()

	for _, s := range lc.Statuses() {
		assert.NotEqual(t, workflows.NoGuidance, lc.GuidanceFor(s), s)
		assert.Equal(t, lc.GuidanceFor(s), lc.GuidanceFor(s))
	}
	assert.Equal(t, []workflows.Status{}, lc.AvailableNextStatuses("NotARealStatus"))
	assert.Equal(t, workflows.NoGuidance, lc.GuidanceFor("NotARealStatus"))
}

func TestLifecycle_ScheduledRequiresDate(t *testing.T) {
	lc := NewLifecycle()
	wo := &WorkOrder{Status: StatusClientApproved}

	res := lc.ValidateTransition(wo, StatusScheduled)
	assert.Equal(t, workflows.Result{Valid: false, Message: "Scheduled date must be provided to proceed to Scheduled phase."}, res)

	date := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	wo.ScheduledDate = &date
	assert.Equal(t, workflows.Result{Valid: true}, lc.ValidateTransition(wo, StatusScheduled))
}

func TestLifecycle_ValidateTransition(t *testing.T) {
	lc := NewLifecycle()
	zero := 0.0
	amount := 1800.0

	tests := []struct {
		name string
		wo   *WorkOrder
		next workflows.Status
		want workflows.Result
	}{
		{
			name: "planning missing both reports one message",
			wo:   &WorkOrder{Status: StatusPlanning},
			next: StatusQuoting,
			want: workflows.Result{Message: "Services requested and operational KML file must be provided to proceed to Quoting phase."},
		},
		{
			name: "empty services array",
			wo:   &WorkOrder{Status: StatusPlanning, ServicesRequested: pq.StringArray{}, OperationalKMLPath: "ops.kml"},
			next: StatusQuoting,
			want: workflows.Result{Message: "Services requested and operational KML file must be provided to proceed to Quoting phase."},
		},
		{
			name: "planning ready",
			wo:   &WorkOrder{Status: StatusPlanning, ServicesRequested: pq.StringArray{"Mapping"}, OperationalKMLPath: "ops.kml"},
			next: StatusQuoting,
			want: workflows.Result{Valid: true},
		},
		{
			name: "zero quote amount counts as present",
			wo:   &WorkOrder{Status: StatusQuoting, QuoteAmount: &zero, QuotePDFPath: "quote.pdf"},
			next: StatusQuoteSent,
			want: workflows.Result{Valid: true},
		},
		{
			name: "quote pdf missing",
			wo:   &WorkOrder{Status: StatusQuoting, QuoteAmount: &amount},
			next: StatusQuoteSent,
			want: workflows.Result{Message: "Quote amount and quote PDF document must be provided to proceed to Quote Sent phase."},
		},
		{
			name: "invoice missing amount",
			wo:   &WorkOrder{Status: StatusInvoicing, InvoicePDFPath: "invoice.pdf"},
			next: StatusInvoiceSent,
			want: workflows.Result{Message: "Invoice amount and invoice PDF document must be provided to proceed to Invoice Sent phase."},
		},
		{
			name: "approval has no requirements",
			wo:   &WorkOrder{Status: StatusQuoteSent},
			next: StatusClientApproved,
			want: workflows.Result{Valid: true},
		},
		{
			name: "rejected cannot schedule",
			wo:   &WorkOrder{Status: StatusClientRejected},
			next: StatusScheduled,
			want: workflows.Result{Message: "Cannot transition from 'Client Rejected' to 'Scheduled'"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lc.ValidateTransition(tt.wo, tt.next))
		})
	}
}

func TestExternalToolsFor(t *testing.T) {
	lc := NewLifecycle()

	quoting := lc.ExternalToolsFor(StatusQuoting)
	require.Len(t, quoting, 1)
	assert.Equal(t, ExternalTool{Name: "QuickBooks", Description: "Create quote in QuickBooks", URL: "https://quickbooks.intuit.com"}, quoting[0])

	invoicing := lc.ExternalToolsFor(StatusInvoicing)
	require.Len(t, invoicing, 1)
	assert.Equal(t, "Create invoice in QuickBooks", invoicing[0].Description)

	assert.Equal(t, []ExternalTool{}, lc.ExternalToolsFor(StatusScheduled))

	quoting[0].URL = "changed"
	assert.Equal(t, "https://quickbooks.intuit.com", lc.ExternalToolsFor(StatusQuoting)[0].URL)
}

func TestExternalToolsFor_JSON(t *testing.T) {
	data, err := json.Marshal(NewLifecycle().ExternalToolsFor(StatusInvoicing))
	require.NoError(t, err)

	assert.JSONEq(t, `[{"name":"QuickBooks","description":"Create invoice in QuickBooks","url":"https://quickbooks.intuit.com"}]`, string(data))
}

func TestLifecycle_NoSelfLoops(t *testing.T) {
	lc := NewLifecycle()

	for _, s := range lc.Statuses() {
		assert.False(t, lc.IsValidTransition(s, s), "self-loop on %s", s)
	}
}

func TestSideEffects(t *testing.T) {
	effects := DefaultSideEffects()

	tests := []struct {
		to      workflows.Status
		columns map[string]any
		check   func(t *testing.T, wo *WorkOrder)
	}{
		{StatusClientApproved, map[string]any{"quote_status": "Accepted"}, func(t *testing.T, wo *WorkOrder) {
			assert.Equal(t, QuoteAccepted, wo.QuoteStatus)
		}},
		{StatusClientRejected, map[string]any{"quote_status": "Rejected"}, func(t *testing.T, wo *WorkOrder) {
			assert.Equal(t, QuoteRejected, wo.QuoteStatus)
		}},
		{StatusPaid, map[string]any{"invoice_status": "Paid"}, func(t *testing.T, wo *WorkOrder) {
			assert.Equal(t, InvoicePaid, wo.InvoiceStatus)
		}},
		{StatusScheduled, nil, func(t *testing.T, wo *WorkOrder) {
			assert.Equal(t, QuoteSent, wo.QuoteStatus)
			assert.Equal(t, InvoiceDraft, wo.InvoiceStatus)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.to.String(), func(t *testing.T) {
			wo := &WorkOrder{QuoteStatus: QuoteSent, InvoiceStatus: InvoiceDraft}
			assert.Equal(t, tt.columns, effects.Apply(wo, tt.to))
			tt.check(t, wo)
		})
	}
}

func TestWorkOrderRecord_FieldLookup(t *testing.T) {
	wo := &WorkOrder{Status: StatusPlanning, ServicesRequested: pq.StringArray{"Mapping"}}

	v, ok := wo.Field("servicesrequested")
	require.True(t, ok)
	assert.Equal(t, []string{"Mapping"}, v)

	v, ok = wo.Field("quoteAmount")
	require.True(t, ok)
	assert.False(t, workflows.IsPresent(v))

	_, ok = wo.Field("meetingNotes")
	assert.False(t, ok)
}
