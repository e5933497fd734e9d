package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newOutdatedCmd() *cobra.Command {
	var manager string

	cmd := &cobra.Command{
		Use:   "outdated",
		Short: "List packages with a newer published version",
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

			ctx := cmd.Context()
			stop := withSpinner(ctx, "Checking for updates...")
			pkgs, perManager, err := eng.Outdated(ctx, manager, scope)
			stop()
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(pkgs)
			}

			for _, res := range perManager {
				if res.Err != nil {
					fmt.Printf(" %s %s: %v\n", red("✗"), res.Manager, res.Err)
				}
			}
			if len(pkgs) == 0 {
				fmt.Printf("%s Everything is up to date\n", green("✓"))
				return nil
			}
			printPackages(pkgs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&manager, "manager", "m", "", "Limit to one manager")
	return cmd
}
