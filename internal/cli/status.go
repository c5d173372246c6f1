package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/five82/marquee/internal/app"
	"github.com/five82/marquee/internal/kometa"
)

type statusReport struct {
	URL       string                  `json:"url"`
	Health    *kometa.Health          `json:"health"`
	Run       *kometa.RunStatus       `json:"run,omitempty"`
	Scheduler *kometa.SchedulerStatus `json:"scheduler,omitempty"`
}

func newStatusCmd(a *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show backend health, the current run and the scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.services(func(svc *app.Services) error {
				ctx := cmd.Context()
				report := statusReport{URL: svc.Client.BaseURL()}

				health, err := svc.Client.Health(ctx)
				if err != nil {
					return fmt.Errorf("health: %w", err)
				}
				report.Health = health
				if report.Run, err = svc.Client.RunStatus(ctx); err != nil {
					return fmt.Errorf("run status: %w", err)
				}
				// Older backends have no scheduler.
				if report.Scheduler, err = svc.Client.SchedulerStatus(ctx); err != nil {
					var apiErr *kometa.APIError
					if !errors.As(err, &apiErr) {
						return fmt.Errorf("scheduler status: %w", err)
					}
					report.Scheduler = nil
				}

				if a.jsonOutput() {
					return writeJSON(cmd.OutOrStdout(), report)
				}
				return printStatus(cmd, report)
			})
		},
	}
}

func printStatus(cmd *cobra.Command, r statusReport) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Backend\t%s (%s)\n", r.URL, r.Health.Status)
	mode := "dry run only"
	if r.Health.ApplyEnabled {
		mode = "apply enabled"
	}
	fmt.Fprintf(w, "Mode\t%s\n", mode)
	if r.Health.ConfigDir != "" {
		fmt.Fprintf(w, "Config dir\t%s\n", r.Health.ConfigDir)
	}

	switch {
	case r.Run == nil:
	case r.Run.Running:
		kind := "apply"
		if r.Run.DryRun {
			kind = "dry run"
		}
		since := ""
		if t := r.Run.Started(); !t.IsZero() {
			since = ", started " + humanize.Time(t)
		}
		fmt.Fprintf(w, "Run\t%s %s (%s%s)\n", kind, r.Run.RunID, r.Run.Status, since)
	default:
		fmt.Fprintf(w, "Run\tidle\n")
	}

	if s := r.Scheduler; s != nil {
		state := "disabled"
		if s.Enabled {
			state = "enabled, " + s.Schedule
			if next := s.NextRunAt(); !next.IsZero() {
				state += ", next " + humanize.Time(next)
			}
		}
		fmt.Fprintf(w, "Scheduler\t%s\n", state)
	}
	return w.Flush()
}
