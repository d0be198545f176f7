package commands

import (
	"runtime"

	"github.com/spf13/cobra"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [targets...]",
		Short: "Run the given tasks and everything they depend on",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			parallelism, err := cmd.Flags().GetInt("parallel")
			if err != nil {
				return err
			}
			if parallelism < 1 {
				parallelism = runtime.NumCPU()
			}
			return c.app.Run(cmd.Context(), args, parallelism)
		},
	}
	cmd.Flags().IntP("parallel", "p", runtime.NumCPU(), "Number of tasks to run concurrently")
	return cmd
}
