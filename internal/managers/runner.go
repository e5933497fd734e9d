package managers

import (
	"context"
	"errors"
	"strings"
	"time"

	jexec "github.com/jmgilman/go/exec"
	"github.com/rs/zerolog"

	"github.com/ljiulong/boxyy/internal/domain"
)

const (
	// commandTimeout bounds substantive native commands.
	commandTimeout = 5 * time.Minute
	// probeTimeout bounds availability checks, which gate everything else
	// for a manager and so must answer fast.
	probeTimeout = 800 * time.Millisecond
)

// runner shells out to one native tool, mapping timeouts, interrupts and
// non-zero exits onto the domain error taxonomy.
type runner struct {
	name    string
	exec    jexec.Executor
	workdir string
	log     zerolog.Logger
}

func newRunner(name string, ex jexec.Executor, workdir string, logger zerolog.Logger) *runner {
	return &runner{
		name:    name,
		exec:    ex,
		workdir: workdir,
		log:     logger.With().Str("manager", name).Logger(),
	}
}

func (r *runner) execute(ctx context.Context, timeout time.Duration, args ...string) (*jexec.Result, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r.log.Debug().Strs("args", args).Msg("running command")

	ex := r.exec.WithContext(cctx).WithInheritEnv().WithDisableColors()
	if r.workdir != "" {
		ex = ex.WithDir(r.workdir)
	}

	res, err := ex.Run(args...)
	if err != nil {
		switch {
		case errors.Is(cctx.Err(), context.DeadlineExceeded):
			return res, domain.ErrCommandTimeout
		case errors.Is(ctx.Err(), context.Canceled):
			return res, domain.ErrCommandInterrupted
		}
		exitCode := -1
		var xerr *jexec.ExecError
		if errors.As(err, &xerr) {
			exitCode = xerr.ExitCode
		}
		return res, &domain.CommandFailedError{
			Manager:  r.name,
			Command:  strings.Join(args, " "),
			ExitCode: exitCode,
		}
	}
	return res, nil
}

// run executes the command and returns its stdout; any non-zero exit is an
// error.
func (r *runner) run(ctx context.Context, args ...string) (string, error) {
	res, err := r.execute(ctx, commandTimeout, args...)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// output is run for tools that exit non-zero while still printing a usable
// report (npm ls with peer conflicts, npm outdated with findings). Stdout
// wins over the exit code when present.
func (r *runner) output(ctx context.Context, args ...string) (string, error) {
	res, err := r.execute(ctx, commandTimeout, args...)
	if err != nil {
		if res != nil && strings.TrimSpace(res.Stdout) != "" &&
			!errors.Is(err, domain.ErrCommandTimeout) && !errors.Is(err, domain.ErrCommandInterrupted) {
			return res.Stdout, nil
		}
		return "", err
	}
	return res.Stdout, nil
}

// probe reports whether the tool responds at all. An unreachable tool is
// not an error, just an unavailable manager.
func (r *runner) probe(ctx context.Context, args ...string) (bool, error) {
	if _, err := r.execute(ctx, probeTimeout, args...); err != nil {
		return false, nil
	}
	return true, nil
}
