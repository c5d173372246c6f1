package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/marquee/internal/app"
	"github.com/five82/marquee/internal/forms"
)

func newTestCmd(a *cliApp) *cobra.Command {
	var fields map[string]string
	cmd := &cobra.Command{
		Use:   "test <service>",
		Short: "Run a connection test against a service",
		Long: "Run a connection test through the backend using the section's values " +
			"from config.yml. --field overrides single values.\n\nServices: " +
			strings.Join(testServices(), ", ") + ".",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sec, ok := testSection(args[0])
			if !ok {
				return fmt.Errorf("unknown service %q (want one of %s)", args[0], strings.Join(testServices(), ", "))
			}
			return a.services(func(svc *app.Services) error {
				ctx := cmd.Context()
				st := forms.NewState(nil)
				if cfg, err := svc.Query.Config(ctx); err != nil {
					return fmt.Errorf("load config: %w", err)
				} else if cfg.Exists {
					doc, err := forms.Parse(cfg.Content)
					if err != nil {
						return fmt.Errorf("parse config.yml: %w", err)
					}
					st = doc.Read(sec)
				}
				for k, v := range fields {
					if _, ok := sec.Field(k); !ok {
						return fmt.Errorf("%s has no field %q", sec.Title, k)
					}
					st = forms.Reduce(sec, st, forms.SetField{Key: k, Value: v})
				}

				payload, err := forms.TestPayload(sec, st)
				if err != nil {
					return err
				}
				service := string(sec.Service)
				res, err := svc.Query.TestConnection(ctx, service, payload)
				if err != nil {
					return fmt.Errorf("test %s: %w", service, err)
				}
				if a.jsonOutput() {
					if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
						return err
					}
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", service, res.Text())
				}
				if !res.Success {
					return fmt.Errorf("test %s failed", service)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringToStringVar(&fields, "field", nil, "override a section field as key=value (repeatable)")
	return cmd
}

func testSection(service string) (forms.Section, bool) {
	for _, sec := range forms.Catalog() {
		if sec.Testable() && string(sec.Service) == service {
			return sec, true
		}
	}
	return forms.Section{}, false
}

func testServices() []string {
	var out []string
	for _, sec := range forms.Catalog() {
		if sec.Testable() {
			out = append(out, string(sec.Service))
		}
	}
	return out
}
