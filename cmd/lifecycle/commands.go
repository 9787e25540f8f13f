package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/auth"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/config"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/projects"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/workorders"
	"github.com/RudyEaglevanBreda/drone-ops-manager/pkg/workflows"
)

func newRootCmd(out io.Writer) *cobra.Command {
	var entity string

	root := &cobra.Command{
		Use:   "lifecycle",
		Short: "Inspect the project and work order lifecycles",
		Long: `Inspect the project and work order lifecycles without a running server.

Examples:
  lifecycle statuses --entity workorder
  lifecycle transitions "Quoting" --entity workorder
  lifecycle check --entity project --from "Proposal/Contract Drafting" --to "Proposal/Contract Sent" --field contractDocumentPath=contract.pdf
  lifecycle graph --entity project > project.dot`,
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&entity, "entity", "e", "project", "lifecycle to use (project, workorder)")

	engine := func() (*workflows.Engine, error) {
		switch strings.ToLower(entity) {
		case "project", "projects":
			return projects.NewLifecycle(), nil
		case "workorder", "workorders", "work-order":
			return workorders.NewLifecycle().Engine, nil
		default:
			return nil, fmt.Errorf("unknown entity %q (want project or workorder)", entity)
		}
	}

	root.AddCommand(
		newStatusesCmd(engine),
		newTransitionsCmd(engine),
		newGraphCmd(engine),
		newCheckCmd(engine),
		newTokenCmd(),
	)
	return root
}

type engineFunc func() (*workflows.Engine, error)

func newStatusesCmd(engine engineFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "statuses",
		Short: "List every status with its guidance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := engine()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STATUS\tTERMINAL\tGUIDANCE")
			for _, d := range e.StatusDetails() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", d.Status, yesNo(e.IsTerminal(d.Status)), d.Guidance)
			}
			return w.Flush()
		},
	}
}

func newTransitionsCmd(engine engineFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "transitions <status>",
		Short: "List the statuses reachable from a status and their required fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := engine()
			if err != nil {
				return err
			}

			from := workflows.Status(args[0])
			next := e.AvailableNextStatuses(from)
			if len(next) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No transitions available from '%s'\n", from)
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TO\tREQUIRED FIELDS")
			for _, to := range next {
				req := e.RequirementsFor(from, to)
				fields := "-"
				if len(req.RequiredFields) > 0 {
					fields = strings.Join(req.RequiredFields, ", ")
				}
				fmt.Fprintf(w, "%s\t%s\n", to, fields)
			}
			return w.Flush()
		},
	}
}

func newGraphCmd(engine engineFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Print the lifecycle as a Graphviz digraph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := engine()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "digraph %q {\n", e.Kind())
			fmt.Fprintln(out, "  rankdir=LR;")
			for _, s := range e.Statuses() {
				shape := "box"
				if e.IsTerminal(s) {
					shape = "doublecircle"
				}
				fmt.Fprintf(out, "  %q [shape=%s];\n", s, shape)
			}
			for _, from := range e.Statuses() {
				for _, to := range e.AvailableNextStatuses(from) {
					if req := e.RequirementsFor(from, to); len(req.RequiredFields) > 0 {
						fmt.Fprintf(out, "  %q -> %q [label=%q];\n", from, to, strings.Join(req.RequiredFields, ", "))
						continue
					}
					fmt.Fprintf(out, "  %q -> %q;\n", from, to)
				}
			}
			fmt.Fprintln(out, "}")
			return nil
		},
	}
}

// fieldRecord is a record assembled from command line flags.
type fieldRecord struct {
	status workflows.Status
	fields map[string]string
}

func (r fieldRecord) CurrentStatus() workflows.Status {
	return r.status
}

func (r fieldRecord) Field(name string) (any, bool) {
	v, ok := r.fields[strings.ToLower(name)]
	return v, ok
}

func newCheckCmd(engine engineFunc) *cobra.Command {
	var from, to string
	var fields []string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a transition for a record with the given fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := engine()
			if err != nil {
				return err
			}

			record := fieldRecord{status: workflows.Status(from), fields: map[string]string{}}
			for _, kv := range fields {
				k, v, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("invalid --field %q, want name=value", kv)
				}
				record.fields[strings.ToLower(strings.TrimSpace(k))] = v
			}

			res := e.ValidateTransition(record, workflows.Status(to))
			if !res.Valid {
				return fmt.Errorf("invalid: %s", res.Message)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "valid: '%s' -> '%s'\n", from, to)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "current status")
	cmd.Flags().StringVar(&to, "to", "", "requested status")
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "record field as name=value (repeatable)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var configPath, userID, email, role string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			id := uuid.New()
			if userID != "" {
				if id, err = uuid.Parse(userID); err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
			}

			token, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL).Issue(id, email, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "config.json", "path to the JSON config file")
	cmd.Flags().StringVar(&userID, "user", "", "user ID (random when empty)")
	cmd.Flags().StringVar(&email, "email", "operator@example.com", "email claim")
	cmd.Flags().StringVar(&role, "role", "operator", "role claim")
	return cmd
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
