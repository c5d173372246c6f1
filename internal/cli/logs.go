package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/marquee/internal/config"
	"github.com/five82/marquee/internal/logger"
)

func newLogsCmd(a *cliApp) *cobra.Command {
	var lines int
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the end of marquee's own log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v.GetString(keyConfig))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			tail, err := logger.Tail(cfg.LogFile, lines)
			if err != nil {
				return err
			}
			for _, line := range tail {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines")
	return cmd
}
