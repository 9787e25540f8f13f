package folders

import (
	"path"
	"strings"

	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/projects"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/workorders"
)

const (
	ProjectContracts    = "01_Contracts_Agreements"
	ProjectBoundary     = "02_Site_Boundary_KML"
	ProjectZoneKMLs     = "03_Zone_Reference_KMLs"
	ProjectDeliverables = "04_Project_Wide_Deliverables"
	ProjectClientShared = "05_Client_Shared"

	WorkOrderQuote        = "01_Quote_WO"
	WorkOrderInvoice      = "02_Invoice_WO"
	WorkOrderFlightPlans  = "03_Operational_Flight_Plans_WO"
	WorkOrderRawData      = "04_Raw_Flight_Data_WO"
	WorkOrderDeliverables = "05_Processed_Deliverables_WO"
	WorkOrderReports      = "06_WorkOrder_Reports_WO"
)

// ProjectSubfolders are created under every project folder, in order.
var ProjectSubfolders = []string{
	ProjectContracts, ProjectBoundary, ProjectZoneKMLs, ProjectDeliverables, ProjectClientShared,
}

// WorkOrderSubfolders are created under every work order folder, in order.
var WorkOrderSubfolders = []string{
	WorkOrderQuote, WorkOrderInvoice, WorkOrderFlightPlans, WorkOrderRawData, WorkOrderDeliverables, WorkOrderReports,
}

var unsafeChars = strings.NewReplacer("/", "-", "\\", "-", "\n", " ", "\r", " ", "\t", " ")

// clean makes name usable as a single key segment. Empty and dot-only names
// would resolve to the parent folder, so they are replaced.
func clean(name string) string {
	name = strings.Join(strings.Fields(unsafeChars.Replace(name)), " ")
	switch {
	case name == "":
		return "Untitled"
	case strings.Trim(name, ".") == "":
		return strings.ReplaceAll(name, ".", "_")
	}
	return name
}

// ProjectFolderName is "<code> - <name>".
func ProjectFolderName(p *projects.Project) string {
	return clean(p.Code + " - " + p.ProjectName)
}

// WorkOrderFolderName is "<yyyy-mm-dd> - <name>" when the work order is
// scheduled, otherwise just the name.
func WorkOrderFolderName(wo *workorders.WorkOrder) string {
	if wo.ScheduledDate != nil && !wo.ScheduledDate.IsZero() {
		return clean(wo.ScheduledDate.Format("2006-01-02") + " - " + wo.WorkOrderName)
	}
	return clean(wo.WorkOrderName)
}

// join builds a folder key ending in a slash.
func join(elem ...string) string {
	return strings.TrimLeft(path.Join(elem...), "/") + "/"
}
