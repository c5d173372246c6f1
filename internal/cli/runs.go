package cli

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/five82/marquee/internal/app"
	"github.com/five82/marquee/internal/kometa"
)

func newRunsCmd(a *cliApp) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			return a.services(func(svc *app.Services) error {
				runs, err := svc.Query.Runs(cmd.Context(), limit, 0)
				if err != nil {
					return fmt.Errorf("list runs: %w", err)
				}
				if a.jsonOutput() {
					return writeJSON(cmd.OutOrStdout(), runs)
				}
				return printRuns(cmd, runs, time.Now())
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "number of runs to show")
	return cmd
}

func printRuns(cmd *cobra.Command, runs []kometa.Run, now time.Time) error {
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs yet.")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tKIND\tSTARTED\tDURATION\tLIBRARIES")
	for _, r := range runs {
		kind := "apply"
		if r.DryRun {
			kind = "dry run"
		}
		started := "-"
		if t := r.Started(); !t.IsZero() {
			started = humanize.RelTime(t, now, "ago", "from now")
		}
		libs := "all"
		if len(r.Libraries) > 0 {
			libs = strings.Join(r.Libraries, ", ")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Status, kind, started, r.Duration(now).Round(time.Second), libs)
	}
	return w.Flush()
}

func newDiffCmd(a *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <run-id>",
		Short: "Show what a dry run would change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.services(func(svc *app.Services) error {
				d, err := svc.Query.RunDiff(cmd.Context(), args[0])
				var apiErr *kometa.APIError
				if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
					fmt.Fprintf(cmd.OutOrStdout(), "No diff recorded for run %s.\n", args[0])
					return nil
				}
				if err != nil {
					return fmt.Errorf("run diff: %w", err)
				}
				if a.jsonOutput() {
					return writeJSON(cmd.OutOrStdout(), d)
				}
				return printDiff(cmd, d)
			})
		},
	}
}

func printDiff(cmd *cobra.Command, d *kometa.RunDiff) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s\n", d.RunID)
	if d.Message != "" {
		fmt.Fprintln(out, d.Message)
	}
	if s := d.Summary; s != nil {
		fmt.Fprintf(out, "\n%s operations across %s collections: +%d -%d ~%d\n",
			humanize.Comma(int64(s.TotalOperations)), humanize.Comma(int64(s.CollectionsAffected)),
			s.TotalAdded, s.TotalRemoved, s.TotalUpdated)
		types := make([]string, 0, len(s.OperationsByType))
		for t := range s.OperationsByType {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Fprintf(out, "  %-20s %d\n", t, s.OperationsByType[t])
		}
	}
	if len(d.Collections) > 0 {
		fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "COLLECTION\tADDED\tREMOVED\tUPDATED")
		for _, c := range d.Collections {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", c.Name, c.Added, c.Removed, c.Updated)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	if len(d.Operations) > 0 {
		fmt.Fprintln(out)
		for _, op := range d.Operations {
			line := op.Operation + " " + op.Target
			if op.Details != "" {
				line += " (" + op.Details + ")"
			}
			fmt.Fprintln(out, "  "+line)
		}
	}
	return nil
}
