package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/ljiulong/boxyy/internal/domain"
	"github.com/ljiulong/boxyy/internal/engine"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

func printError(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", red("✗"), err)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func withSpinner(ctx context.Context, desc string) (stop func()) {
	spinner := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				spinner.Finish()
				return
			default:
				spinner.Add(1)
				time.Sleep(100 * time.Millisecond)
			}
		}
	}()
	return func() {
		close(done)
		spinner.Finish()
	}
}

func printPackages(pkgs []domain.Package) {
	for _, pkg := range pkgs {
		line := fmt.Sprintf(" %s %s", bold(pkg.Name), pkg.Version)
		if pkg.Outdated && pkg.LatestVersion != "" {
			line += fmt.Sprintf("  %s", yellow("↑ "+pkg.LatestVersion))
		}
		line += fmt.Sprintf("  %s", dim(pkg.Manager))
		if pkg.Description != "" {
			line += fmt.Sprintf("  %s", dim(pkg.Description))
		}
		fmt.Println(line)
	}
}

// followJob polls the job until it reaches a terminal state, rendering its
// progress estimate, then replays the job log. A failed or canceled job is
// the command's failure.
func followJob(eng *engine.Engine, id string) error {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription(dim(id[:8])),
		progressbar.OptionClearOnFinish(),
	)

	var job domain.Job
	for {
		var ok bool
		job, ok = eng.Job(id)
		if !ok {
			return fmt.Errorf("job %s disappeared", id)
		}
		bar.Set(int(job.Progress))
		if job.Status.Terminal() {
			break
		}
		time.Sleep(150 * time.Millisecond)
	}
	bar.Finish()

	for _, line := range eng.JobLogs(id) {
		fmt.Printf(" %s %s\n", dim("·"), line)
	}

	switch job.Status {
	case domain.JobSucceeded:
		fmt.Printf("%s %s %s %s\n", green("✓"), job.Operation, bold(job.Target), dim("("+job.Manager+")"))
		return nil
	case domain.JobCanceled:
		return fmt.Errorf("%s %s canceled", job.Operation, job.Target)
	default:
		return fmt.Errorf("%s %s failed: %s", job.Operation, job.Target, job.Error)
	}
}

// submitAndReport handles the shared tail of the mutating commands. Jobs
// only live for the process lifetime, so the command always waits for its
// job: interactively with a progress bar, or silently in JSON mode before
// emitting the terminal job record.
func submitAndReport(eng *engine.Engine, id string) error {
	if jsonOut {
		eng.WaitJobs()
		job, _ := eng.Job(id)
		out := struct {
			domain.Job
			Logs []string `json:"logs"`
		}{job, eng.JobLogs(id)}
		if err := printJSON(out); err != nil {
			return err
		}
		if job.Status != domain.JobSucceeded {
			return fmt.Errorf("%s %s: %s", job.Operation, job.Target, job.Error)
		}
		return nil
	}
	return followJob(eng, id)
}
