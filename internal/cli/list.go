package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var manager string
	var force bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed packages",
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
			stop := withSpinner(ctx, "Listing packages...")
			pkgs, perManager, err := eng.Packages(ctx, manager, scope, force)
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
				fmt.Printf("%s No packages installed\n", dim("○"))
				return nil
			}
			printPackages(pkgs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&manager, "manager", "m", "", "Limit to one manager")
	cmd.Flags().BoolVar(&force, "force", false, "Bypass the listing cache")
	return cmd
}
