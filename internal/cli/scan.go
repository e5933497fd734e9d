package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Detect available package managers",
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
			stop := withSpinner(ctx, "Scanning package managers...")
			statuses := eng.Scan(ctx, scope)
			stop()

			if jsonOut {
				return printJSON(statuses)
			}

			for _, st := range statuses {
				if !st.Available {
					fmt.Printf(" %s %s\n", dim("○"), dim(st.Name))
					continue
				}
				line := fmt.Sprintf(" %s %s  %d packages", green("●"), bold(st.Name), st.PackageCount)
				if st.OutdatedCount > 0 {
					line += fmt.Sprintf("  %s", yellow(fmt.Sprintf("%d outdated", st.OutdatedCount)))
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}
