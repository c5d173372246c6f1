package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/five82/marquee/internal/app"
	"github.com/five82/marquee/internal/kometa"
	"github.com/five82/marquee/internal/yamlview"
)

// errInvalid marks a document that failed validation. The details are
// already printed.
var errInvalid = errors.New("validation failed")

func newValidateCmd(a *cliApp) *cobra.Command {
	var localOnly bool
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a YAML file locally, then with the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			out := cmd.OutOrStdout()
			if err := yamlview.Validate(string(data)); err != nil {
				fmt.Fprintf(out, "%s: %v\n", args[0], err)
				return errInvalid
			}
			if localOnly {
				fmt.Fprintf(out, "%s: syntax ok\n", args[0])
				return nil
			}

			return a.services(func(svc *app.Services) error {
				res, err := svc.Query.ValidateConfig(cmd.Context(), string(data))
				if err != nil {
					return fmt.Errorf("validate: %w", err)
				}
				if a.jsonOutput() {
					if err := writeJSON(out, res); err != nil {
						return err
					}
				} else {
					printValidation(cmd, args[0], res)
				}
				if !res.Valid {
					return errInvalid
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&localOnly, "local", false, "only check YAML syntax")
	return cmd
}

func printValidation(cmd *cobra.Command, name string, v *kometa.Validation) {
	out := cmd.OutOrStdout()
	if v.Valid {
		fmt.Fprintf(out, "%s: valid\n", name)
	} else {
		fmt.Fprintf(out, "%s: invalid\n", name)
	}
	for _, e := range v.Errors {
		fmt.Fprintf(out, "  error: %s\n", e)
	}
	for _, w := range v.Warnings {
		fmt.Fprintf(out, "  warning: %s\n", w)
	}
}
