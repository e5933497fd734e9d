package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRefreshCmd() *cobra.Command {
	var manager string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Drop cached listings so the next read refetches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := newEngine()
			if err != nil {
				return err
			}
			scope, err := currentScope()
			if err != nil {
				return err
			}

			if err := eng.Refresh(manager, scope); err != nil {
				return err
			}
			if !jsonOut {
				fmt.Printf("%s Cache refreshed\n", green("✓"))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&manager, "manager", "m", "", "Limit to one manager")
	return cmd
}
