package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var manager string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search package indexes",
		Args:  cobra.ExactArgs(1),
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
			stop := withSpinner(ctx, fmt.Sprintf("Searching for %s...", args[0]))
			pkgs, err := eng.Search(ctx, manager, args[0], scope)
			stop()
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(pkgs)
			}
			if len(pkgs) == 0 {
				fmt.Printf("%s No matches for %s\n", dim("○"), bold(args[0]))
				return nil
			}
			printPackages(pkgs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&manager, "manager", "m", "", "Limit to one manager")
	return cmd
}
