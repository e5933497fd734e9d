package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ljiulong/boxyy/internal/domain"
)

func newInfoCmd() *cobra.Command {
	var manager string
	var deps bool

	cmd := &cobra.Command{
		Use:   "info <name>",
		Short: "Show package details",
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
			stop := withSpinner(ctx, fmt.Sprintf("Fetching %s...", args[0]))
			pkg, err := eng.Info(ctx, manager, args[0], scope)
			var dependencies []domain.Package
			if err == nil && deps {
				dependencies, _ = eng.Dependencies(ctx, manager, args[0], scope)
			}
			stop()
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(struct {
					domain.Package
					Dependencies []domain.Package `json:"dependencies,omitempty"`
				}{*pkg, dependencies})
			}

			fmt.Printf("%s %s  %s\n", bold(pkg.Name), pkg.Version, dim(pkg.Manager))
			if pkg.Description != "" {
				fmt.Printf("  %s\n", pkg.Description)
			}
			if pkg.Homepage != "" {
				fmt.Printf("  %s %s\n", dim("homepage"), cyan(pkg.Homepage))
			}
			if pkg.License != "" {
				fmt.Printf("  %s %s\n", dim("license"), pkg.License)
			}
			if pkg.InstalledPath != "" {
				fmt.Printf("  %s %s\n", dim("path"), pkg.InstalledPath)
			}
			if len(dependencies) > 0 {
				fmt.Printf("  %s\n", dim("dependencies"))
				for _, d := range dependencies {
					fmt.Printf("    %s %s\n", d.Name, dim(d.Version))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&manager, "manager", "m", "", "Manager to query (required)")
	cmd.MarkFlagRequired("manager")
	cmd.Flags().BoolVar(&deps, "deps", false, "Include direct dependencies")
	return cmd
}
