package cli

import (
	"github.com/spf13/cobra"
)

func newInstallCmd() *cobra.Command {
	var manager string
	var version string
	var force bool

	cmd := &cobra.Command{
		Use:   "install <name>",
		Short: "Install a package",
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

			id, err := eng.Install(cmd.Context(), manager, args[0], version, force, scope)
			if err != nil {
				return err
			}
			return submitAndReport(eng, id)
		},
	}

	cmd.Flags().StringVarP(&manager, "manager", "m", "", "Manager to install with (required)")
	cmd.MarkFlagRequired("manager")
	cmd.Flags().StringVar(&version, "version", "", "Pin to a specific version")
	cmd.Flags().BoolVar(&force, "force", false, "Force reinstall")
	return cmd
}
