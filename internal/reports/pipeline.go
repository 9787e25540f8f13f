package reports

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/projects"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/reports/export"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/workorders"
	"github.com/RudyEaglevanBreda/drone-ops-manager/pkg/workflows"
)

type ProjectSource interface {
	ListProjects(ctx context.Context, filter projects.ProjectFilter) ([]projects.Project, error)
	Lifecycle() *workflows.Engine
}

type WorkOrderSource interface {
	ListWorkOrders(ctx context.Context, filter workorders.WorkOrderFilter) ([]workorders.WorkOrder, error)
	Lifecycle() *workorders.Lifecycle
}

// Service builds the pipeline workbook: one sheet of projects, one of work
// orders and a per-status summary.
type Service struct {
	projects   ProjectSource
	workOrders WorkOrderSource
	logger     *zap.Logger
}

func NewService(projectSource ProjectSource, workOrderSource WorkOrderSource, logger *zap.Logger) *Service {
	return &Service{projects: projectSource, workOrders: workOrderSource, logger: logger}
}

var (
	projectColumns = []export.Column{
		{Header: "Code", Width: 16},
		{Header: "Project", Width: 32},
		{Header: "Client", Width: 24},
		{Header: "Status", Width: 26},
		{Header: "Terminal", Width: 10},
		{Header: "Guidance", Width: 60},
		{Header: "Updated", Width: 14},
	}
	workOrderColumns = []export.Column{
		{Header: "Work Order", Width: 32},
		{Header: "Project", Width: 16},
		{Header: "Status", Width: 26},
		{Header: "Terminal", Width: 10},
		{Header: "Scheduled", Width: 14},
		{Header: "Quote", Width: 14},
		{Header: "Invoice", Width: 14},
		{Header: "Invoice Status", Width: 14},
		{Header: "Guidance", Width: 60},
	}
	summaryColumns = []export.Column{
		{Header: "Entity", Width: 14},
		{Header: "Status", Width: 26},
		{Header: "Count", Width: 10},
	}
)

// WritePipeline writes the xlsx workbook to out.
func (s *Service) WritePipeline(ctx context.Context, out io.Writer) error {
	projectList, err := s.projects.ListProjects(ctx, projects.ProjectFilter{})
	if err != nil {
		return err
	}
	workOrderList, err := s.workOrders.ListWorkOrders(ctx, workorders.WorkOrderFilter{})
	if err != nil {
		return err
	}

	projectEngine := s.projects.Lifecycle()
	workOrderEngine := s.workOrders.Lifecycle()

	codes := make(map[string]string, len(projectList))
	projectRows := make([][]any, 0, len(projectList))
	projectCounts := map[workflows.Status]int{}
	for _, p := range projectList {
		codes[p.ID.String()] = p.Code
		projectCounts[p.Status]++
		projectRows = append(projectRows, []any{
			p.Code,
			p.ProjectName,
			p.ClientName,
			p.Status.String(),
			yesNo(projectEngine.IsTerminal(p.Status)),
			projectEngine.GuidanceFor(p.Status),
			p.UpdatedAt,
		})
	}

	workOrderRows := make([][]any, 0, len(workOrderList))
	workOrderCounts := map[workflows.Status]int{}
	for _, wo := range workOrderList {
		workOrderCounts[wo.Status]++
		project := codes[wo.ProjectID.String()]
		if project == "" {
			project = wo.ProjectID.String()
		}
		workOrderRows = append(workOrderRows, []any{
			wo.WorkOrderName,
			project,
			wo.Status.String(),
			yesNo(workOrderEngine.IsTerminal(wo.Status)),
			wo.ScheduledDate,
			wo.QuoteAmount,
			wo.InvoiceAmount,
			string(wo.InvoiceStatus),
			workOrderEngine.GuidanceFor(wo.Status),
		})
	}

	var summaryRows [][]any
	for _, st := range projectEngine.Statuses() {
		summaryRows = append(summaryRows, []any{"Project", st.String(), projectCounts[st]})
	}
	for _, st := range workOrderEngine.Statuses() {
		summaryRows = append(summaryRows, []any{"Work Order", st.String(), workOrderCounts[st]})
	}

	book, err := export.NewWorkbook()
	if err != nil {
		return err
	}
	defer book.Close()

	if err := book.AddSheet("Projects", projectColumns, projectRows); err != nil {
		return fmt.Errorf("failed to write projects sheet: %w", err)
	}
	if err := book.AddSheet("Work Orders", workOrderColumns, workOrderRows); err != nil {
		return fmt.Errorf("failed to write work orders sheet: %w", err)
	}
	if err := book.AddSheet("Summary", summaryColumns, summaryRows); err != nil {
		return fmt.Errorf("failed to write summary sheet: %w", err)
	}

	if _, err := book.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Pipeline report generated",
		zap.Int("projects", len(projectRows)),
		zap.Int("work_orders", len(workOrderRows)))
	return nil
}

// FileName is the download name for a report generated at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("pipeline_%s.xlsx", t.UTC().Format("2006-01-02"))
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
