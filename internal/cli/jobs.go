package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ljiulong/boxyy/internal/domain"
)

func newJobsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List jobs tracked in this session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := newEngine()
			if err != nil {
				return err
			}

			jobs := eng.Jobs()
			if jsonOut {
				return printJSON(jobs)
			}
			if len(jobs) == 0 {
				fmt.Printf("%s No jobs\n", dim("○"))
				return nil
			}
			for _, job := range jobs {
				marker := cyan("●")
				switch job.Status {
				case domain.JobSucceeded:
					marker = green("✓")
				case domain.JobFailed:
					marker = red("✗")
				case domain.JobCanceled:
					marker = dim("○")
				}
				fmt.Printf(" %s %s  %s %s  %s  %.0f%%\n",
					marker, dim(job.ID[:8]), job.Operation, bold(job.Target),
					dim(job.Manager), job.Progress)
			}
			return nil
		},
	}
}

func newLogsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logs <job-id>",
		Short: "Print a job's log trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := newEngine()
			if err != nil {
				return err
			}

			if _, ok := eng.Job(args[0]); !ok {
				return fmt.Errorf("job not found: %s", args[0])
			}
			lines := eng.JobLogs(args[0])
			if jsonOut {
				return printJSON(lines)
			}
			for _, line := range lines {
				fmt.Println(line)
			}
			return nil
		},
	}
}

func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a running job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := newEngine()
			if err != nil {
				return err
			}

			if _, ok := eng.Job(args[0]); !ok {
				return fmt.Errorf("job not found: %s", args[0])
			}
			eng.CancelJob(args[0])
			if !jsonOut {
				fmt.Printf("%s Canceled %s\n", green("✓"), dim(args[0]))
			}
			return nil
		},
	}
}
