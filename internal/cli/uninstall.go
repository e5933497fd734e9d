package cli

import (
	"github.com/spf13/cobra"
)

func newUninstallCmd() *cobra.Command {
	var manager string
	var force bool

	cmd := &cobra.Command{
		Use:   "uninstall <name>",
		Short: "Uninstall a package",
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

			id, err := eng.Uninstall(cmd.Context(), manager, args[0], force, scope)
			if err != nil {
				return err
			}
			return submitAndReport(eng, id)
		},
	}

	cmd.Flags().StringVarP(&manager, "manager", "m", "", "Manager to uninstall with (required)")
	cmd.MarkFlagRequired("manager")
	cmd.Flags().BoolVar(&force, "force", false, "Force removal")
	return cmd
}
