package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop finished jobs, keeping running ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := newEngine()
			if err != nil {
				return err
			}

			eng.ClearJobs()
			if !jsonOut {
				fmt.Printf("%s Cleared finished jobs\n", green("✓"))
			}
			return nil
		},
	}
}
