package workorders

import "github.com/RudyEaglevanBreda/drone-ops-manager/pkg/workflows"

const (
	StatusPlanning          workflows.Status = "Planning"
	StatusQuoting           workflows.Status = "Quoting"
	StatusQuoteSent         workflows.Status = "Quote Sent"
	StatusClientApproved    workflows.Status = "Client Approved"
	StatusClientRejected    workflows.Status = "Client Rejected"
	StatusScheduled         workflows.Status = "Scheduled"
	StatusFieldworkActive   workflows.Status = "Fieldwork In Progress"
	StatusFieldworkComplete workflows.Status = "Fieldwork Complete"
	StatusDataProcessing    workflows.Status = "Data Processing"
	StatusQAReview          workflows.Status = "Internal QA/Review"
	StatusReadyForDelivery  workflows.Status = "Ready for Delivery"
	StatusDataDelivered     workflows.Status = "Data Delivered"
	StatusInvoicing         workflows.Status = "Invoicing"
	StatusInvoiceSent       workflows.Status = "Invoice Sent"
	StatusPaymentPending    workflows.Status = "Payment Pending"
	StatusPaid              workflows.Status = "Paid"
	StatusCompleted         workflows.Status = "Completed"
	StatusOnHold            workflows.Status = "On Hold"
	StatusCancelled         workflows.Status = "Cancelled"
)

// ExternalTool is a third-party application surfaced to the operator while a
// work order sits in a status. It has no effect on the workflow.
type ExternalTool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

const quickBooksURL = "https://quickbooks.intuit.com"

// Definition returns the work order lifecycle table.
func Definition() workflows.Definition {
	return workflows.Definition{
		Kind:    "workorder",
		Initial: StatusPlanning,
		Statuses: []workflows.Status{
			StatusPlanning, StatusQuoting, StatusQuoteSent, StatusClientApproved, StatusClientRejected,
			StatusScheduled, StatusFieldworkActive, StatusFieldworkComplete, StatusDataProcessing,
			StatusQAReview, StatusReadyForDelivery, StatusDataDelivered, StatusInvoicing,
			StatusInvoiceSent, StatusPaymentPending, StatusPaid, StatusCompleted, StatusOnHold,
			StatusCancelled,
		},
		Transitions: map[workflows.Status][]workflows.Status{
			StatusPlanning:          {StatusQuoting, StatusOnHold, StatusCancelled},
			StatusQuoting:           {StatusQuoteSent, StatusPlanning, StatusOnHold, StatusCancelled},
			StatusQuoteSent:         {StatusClientApproved, StatusClientRejected, StatusQuoting, StatusOnHold, StatusCancelled},
			StatusClientRejected:    {StatusQuoting, StatusCancelled},
			StatusClientApproved:    {StatusScheduled, StatusOnHold, StatusCancelled},
			StatusScheduled:         {StatusFieldworkActive, StatusOnHold, StatusCancelled},
			StatusFieldworkActive:   {StatusFieldworkComplete, StatusOnHold, StatusCancelled},
			StatusFieldworkComplete: {StatusDataProcessing, StatusOnHold, StatusCancelled},
			StatusDataProcessing:    {StatusQAReview, StatusOnHold, StatusCancelled},
			StatusQAReview:          {StatusReadyForDelivery, StatusDataProcessing, StatusOnHold, StatusCancelled},
			StatusReadyForDelivery:  {StatusDataDelivered, StatusOnHold, StatusCancelled},
			StatusDataDelivered:     {StatusInvoicing, StatusOnHold, StatusCancelled},
			StatusInvoicing:         {StatusInvoiceSent, StatusOnHold, StatusCancelled},
			StatusInvoiceSent:       {StatusPaymentPending, StatusOnHold, StatusCancelled},
			StatusPaymentPending:    {StatusPaid, StatusOnHold, StatusCancelled},
			StatusPaid:              {StatusCompleted},
			StatusOnHold: {
				StatusPlanning, StatusQuoting, StatusQuoteSent, StatusClientApproved, StatusScheduled,
				StatusFieldworkActive, StatusFieldworkComplete, StatusDataProcessing, StatusQAReview,
				StatusReadyForDelivery, StatusDataDelivered, StatusInvoicing, StatusInvoiceSent,
				StatusPaymentPending, StatusCancelled,
			},
			StatusCompleted: {},
			StatusCancelled: {},
		},
		Requirements: map[workflows.Transition]workflows.Requirement{
			{From: StatusPlanning, To: StatusQuoting}: {
				RequiredFields: []string{FieldServicesRequested, FieldOperationalKMLPath},
				Message:        "Services requested and operational KML file must be provided to proceed to Quoting phase.",
			},
			{From: StatusQuoting, To: StatusQuoteSent}: {
				RequiredFields: []string{FieldQuoteAmount, FieldQuotePDFPath},
				Message:        "Quote amount and quote PDF document must be provided to proceed to Quote Sent phase.",
			},
			{From: StatusQuoteSent, To: StatusClientApproved}: {},
			{From: StatusClientApproved, To: StatusScheduled}: {
				RequiredFields: []string{FieldScheduledDate},
				Message:        "Scheduled date must be provided to proceed to Scheduled phase.",
			},
			{From: StatusDataDelivered, To: StatusInvoicing}: {},
			{From: StatusInvoicing, To: StatusInvoiceSent}: {
				RequiredFields: []string{FieldInvoiceAmount, FieldInvoicePDFPath},
				Message:        "Invoice amount and invoice PDF document must be provided to proceed to Invoice Sent phase.",
			},
		},
		Guidance: map[workflows.Status]string{
			StatusPlanning:          "Define the scope of work, including services needed and operational area. Outline specific requirements for the drone operation.",
			StatusQuoting:           "Calculate costs based on services requested, flight time, equipment, and personnel. Prepare a quote document to send to the client.",
			StatusQuoteSent:         "Quote has been sent to the client. Follow up as needed and update status when client responds.",
			StatusClientRejected:    "Client has rejected the quote. Consider revising and resubmitting or cancelling the work order.",
			StatusClientApproved:    "Client has approved the quote. Proceed with scheduling the fieldwork.",
			StatusScheduled:         "Work order is scheduled. Prepare equipment, personnel, and confirm weather conditions for the planned date.",
			StatusFieldworkActive:   "Drone operations are currently in progress. Monitor progress and address any issues that arise.",
			StatusFieldworkComplete: "Fieldwork has been completed. Organize raw data and prepare for processing.",
			StatusDataProcessing:    "Raw data is being processed. Generate deliverables according to client requirements.",
			StatusQAReview:          "Reviewing processed data for quality assurance. Ensure all deliverables meet quality standards.",
			StatusReadyForDelivery:  "Data is ready for delivery to client. Prepare delivery package and documentation.",
			StatusDataDelivered:     "Deliverables have been provided to the client. Prepare for invoicing.",
			StatusInvoicing:         "Generate an invoice for completed work. Include all relevant details and payment terms.",
			StatusInvoiceSent:       "Invoice has been sent to client. Monitor for payment.",
			StatusPaymentPending:    "Payment is pending. Follow up with client if payment is delayed.",
			StatusPaid:              "Payment has been received. Finalize work order documentation.",
			StatusCompleted:         "Work order is complete. No further action required.",
			StatusOnHold:            "Work order is temporarily on hold. Document the reason and expected resumption date.",
			StatusCancelled:         "Work order has been cancelled. Document the reason for cancellation.",
		},
	}
}

// Lifecycle is the work order engine plus the external tools shown per status.
type Lifecycle struct {
	*workflows.Engine
	tools map[workflows.Status][]ExternalTool
}

// NewLifecycle builds the work order lifecycle.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		Engine: workflows.MustEngine(Definition()),
		tools: map[workflows.Status][]ExternalTool{
			StatusQuoting: {
				{Name: "QuickBooks", Description: "Create quote in QuickBooks", URL: quickBooksURL},
			},
			StatusInvoicing: {
				{Name: "QuickBooks", Description: "Create invoice in QuickBooks", URL: quickBooksURL},
			},
		},
	}
}

// ExternalToolsFor returns the tools for status, or an empty list.
func (l *Lifecycle) ExternalToolsFor(status workflows.Status) []ExternalTool {
	return append([]ExternalTool{}, l.tools[status]...)
}
