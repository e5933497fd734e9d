package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUpdateCmd() *cobra.Command {
	var manager string
	var all bool

	cmd := &cobra.Command{
		Use:   "update [name]",
		Short: "Update a package, or --all outdated packages of a manager",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				cmd.Root().SilenceUsage = false
				return fmt.Errorf("update requires a package name or --all")
			}

			eng, _, err := newEngine()
			if err != nil {
				return err
			}
			scope, err := currentScope()
			if err != nil {
				return err
			}

			var id string
			if all {
				id, err = eng.UpdateAllOutdated(cmd.Context(), manager, scope)
			} else {
				id, err = eng.Update(cmd.Context(), manager, args[0], scope)
			}
			if err != nil {
				return err
			}
			return submitAndReport(eng, id)
		},
	}

	cmd.Flags().StringVarP(&manager, "manager", "m", "", "Manager to update with (required)")
	cmd.MarkFlagRequired("manager")
	cmd.Flags().BoolVar(&all, "all", false, "Update every outdated package")
	return cmd
}
