package workorders

import (
	"github.com/lib/pq"

	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/apperr"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/fieldvalue"
	"github.com/RudyEaglevanBreda/drone-ops-manager/pkg/workflows"
)

// Logical field names used by requirements and the field update endpoint.
const (
	FieldWorkOrderName      = "workOrderName"
	FieldServicesRequested  = "servicesRequested"
	FieldOperationalKMLPath = "operationalKmlPath"
	FieldQuoteAmount        = "quoteAmount"
	FieldQuotePDFPath       = "quotePdfPath"
	FieldQuoteStatus        = "quoteStatus"
	FieldScheduledDate      = "scheduledDate"
	FieldInvoiceAmount      = "invoiceAmount"
	FieldInvoicePDFPath     = "invoicePdfPath"
	FieldInvoiceStatus      = "invoiceStatus"
	FieldFolderID           = "folderId"
)

var workOrderFields = workflows.NewFieldRegistry(map[string]func(*WorkOrder) any{
	FieldWorkOrderName:      func(w *WorkOrder) any { return w.WorkOrderName },
	FieldServicesRequested:  func(w *WorkOrder) any { return []string(w.ServicesRequested) },
	FieldOperationalKMLPath: func(w *WorkOrder) any { return w.OperationalKMLPath },
	FieldQuoteAmount:        func(w *WorkOrder) any { return w.QuoteAmount },
	FieldQuotePDFPath:       func(w *WorkOrder) any { return w.QuotePDFPath },
	FieldQuoteStatus:        func(w *WorkOrder) any { return string(w.QuoteStatus) },
	FieldScheduledDate:      func(w *WorkOrder) any { return w.ScheduledDate },
	FieldInvoiceAmount:      func(w *WorkOrder) any { return w.InvoiceAmount },
	FieldInvoicePDFPath:     func(w *WorkOrder) any { return w.InvoicePDFPath },
	FieldInvoiceStatus:      func(w *WorkOrder) any { return string(w.InvoiceStatus) },
	FieldFolderID:           func(w *WorkOrder) any { return w.FolderID },
})

// CurrentStatus implements workflows.Record.
func (w *WorkOrder) CurrentStatus() workflows.Status {
	return w.Status
}

// Field implements workflows.Record.
func (w *WorkOrder) Field(name string) (any, bool) {
	return workOrderFields.Lookup(w, name)
}

// fieldSetter assigns a decoded value and returns the column updates to persist.
type fieldSetter func(w *WorkOrder, v any) (map[string]any, error)

func stringSetter(field, column string, assign func(*WorkOrder, string)) fieldSetter {
	return func(w *WorkOrder, v any) (map[string]any, error) {
		s, err := fieldvalue.String(field, v)
		if err != nil {
			return nil, err
		}
		assign(w, s)
		return map[string]any{column: s}, nil
	}
}

func amountSetter(field, column string, assign func(*WorkOrder, *float64)) fieldSetter {
	return func(w *WorkOrder, v any) (map[string]any, error) {
		amount, err := fieldvalue.Amount(field, v)
		if err != nil {
			return nil, err
		}
		assign(w, amount)
		return map[string]any{column: amount}, nil
	}
}

// updatableFields is the allow-list. Matching is exact.
var updatableFields = map[string]fieldSetter{
	FieldServicesRequested: func(w *WorkOrder, v any) (map[string]any, error) {
		services, err := fieldvalue.Strings(FieldServicesRequested, v)
		if err != nil {
			return nil, err
		}
		w.ServicesRequested = pq.StringArray(services)
		return map[string]any{"services_requested": w.ServicesRequested}, nil
	},
	FieldOperationalKMLPath: stringSetter(FieldOperationalKMLPath, "operational_kml_path",
		func(w *WorkOrder, s string) { w.OperationalKMLPath = s }),
	FieldQuoteAmount: amountSetter(FieldQuoteAmount, "quote_amount",
		func(w *WorkOrder, a *float64) { w.QuoteAmount = a }),
	FieldQuotePDFPath: stringSetter(FieldQuotePDFPath, "quote_pdf_path",
		func(w *WorkOrder, s string) { w.QuotePDFPath = s }),
	FieldScheduledDate: func(w *WorkOrder, v any) (map[string]any, error) {
		date, err := fieldvalue.Date(FieldScheduledDate, v)
		if err != nil {
			return nil, err
		}
		w.ScheduledDate = date
		return map[string]any{"scheduled_date": date}, nil
	},
	FieldInvoiceAmount: amountSetter(FieldInvoiceAmount, "invoice_amount",
		func(w *WorkOrder, a *float64) { w.InvoiceAmount = a }),
	FieldInvoicePDFPath: stringSetter(FieldInvoicePDFPath, "invoice_pdf_path",
		func(w *WorkOrder, s string) { w.InvoicePDFPath = s }),
}

func applyField(w *WorkOrder, field string, value any) (map[string]any, error) {
	set, ok := updatableFields[field]
	if !ok {
		return nil, apperr.New(apperr.ErrFieldNotAllowed, "Field '%s' cannot be updated through this endpoint", field)
	}
	return set(w, value)
}
