package workorders

import "github.com/RudyEaglevanBreda/drone-ops-manager/pkg/workflows"

// SideEffect adjusts a work order that is entering a status and returns the
// extra columns to write alongside the status change.
type SideEffect func(w *WorkOrder) map[string]any

// SideEffects maps a target status to the side effect run when a work order
// enters it. They are applied in the same transaction as the status update.
type SideEffects map[workflows.Status]SideEffect

// DefaultSideEffects keeps quote and invoice state in step with the lifecycle.
func DefaultSideEffects() SideEffects {
	return SideEffects{
		StatusClientApproved: setQuoteStatus(QuoteAccepted),
		StatusClientRejected: setQuoteStatus(QuoteRejected),
		StatusPaid:           setInvoiceStatus(InvoicePaid),
	}
}

func setQuoteStatus(status QuoteStatus) SideEffect {
	return func(w *WorkOrder) map[string]any {
		w.QuoteStatus = status
		return map[string]any{"quote_status": string(status)}
	}
}

func setInvoiceStatus(status InvoiceStatus) SideEffect {
	return func(w *WorkOrder) map[string]any {
		w.InvoiceStatus = status
		return map[string]any{"invoice_status": string(status)}
	}
}

// Apply runs the side effect bound to to, if any.
func (s SideEffects) Apply(w *WorkOrder, to workflows.Status) map[string]any {
	effect, ok := s[to]
	if !ok {
		return nil
	}
	return effect(w)
}
