package managers

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	jexec "github.com/jmgilman/go/exec"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ljiulong/boxyy/internal/cache"
	"github.com/ljiulong/boxyy/internal/domain"
)

type response struct {
	result *jexec.Result
	err    error
}

// fakeExec satisfies exec.Executor with canned responses keyed by the
// joined command line. Unknown commands fail like a missing binary.
type fakeExec struct {
	mu        sync.Mutex
	responses map[string]response
	calls     []string
	dir       string
}

func newFakeExec() *fakeExec {
	return &fakeExec{responses: map[string]response{}}
}

func (f *fakeExec) stub(cmd, stdout string) {
	f.responses[cmd] = response{result: &jexec.Result{Stdout: stdout}}
}

func (f *fakeExec) stubFail(cmd string, exitCode int, stdout string) {
	f.responses[cmd] = response{
		result: &jexec.Result{Stdout: stdout, ExitCode: exitCode},
		err:    &jexec.ExecError{Command: strings.Fields(cmd), ExitCode: exitCode, Stdout: stdout},
	}
}

func (f *fakeExec) called(cmd string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == cmd {
			n++
		}
	}
	return n
}

func (f *fakeExec) WithEnv(map[string]string) jexec.Executor { return f }
func (f *fakeExec) WithDir(dir string) jexec.Executor        { f.dir = dir; return f }
func (f *fakeExec) WithContext(context.Context) jexec.Executor { return f }
func (f *fakeExec) WithDisableColors() jexec.Executor        { return f }
func (f *fakeExec) WithTimeout(string) jexec.Executor        { return f }
func (f *fakeExec) WithInheritEnv() jexec.Executor           { return f }
func (f *fakeExec) WithStdout(io.Writer) jexec.Executor      { return f }
func (f *fakeExec) WithStderr(io.Writer) jexec.Executor      { return f }
func (f *fakeExec) WithPassthrough() jexec.Executor          { return f }
func (f *fakeExec) Clone() jexec.Executor                    { return f }

func (f *fakeExec) Run(args ...string) (*jexec.Result, error) {
	cmd := strings.Join(args, " ")
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	resp, ok := f.responses[cmd]
	f.mu.Unlock()
	if !ok {
		return nil, &jexec.ExecError{Command: args, ExitCode: 127, Err: errors.New("command not found")}
	}
	return resp.result, resp.err
}

func testDeps(t *testing.T, fx *fakeExec) Deps {
	t.Helper()
	return Deps{
		Cache:  cache.New(t.TempDir(), cache.DefaultTTL, zerolog.Nop()),
		Exec:   fx,
		Logger: zerolog.Nop(),
	}
}

func TestRunnerRunReturnsStdout(t *testing.T) {
	fx := newFakeExec()
	fx.stub("brew --version", "Homebrew 4.2.0")
	r := newRunner("brew", fx, "", zerolog.Nop())

	out, err := r.run(context.Background(), "brew", "--version")
	require.NoError(t, err)
	assert.Equal(t, "Homebrew 4.2.0", out)
}

func TestRunnerRunMapsExitCode(t *testing.T) {
	fx := newFakeExec()
	fx.stubFail("brew install nope", 1, "")
	r := newRunner("brew", fx, "", zerolog.Nop())

	_, err := r.run(context.Background(), "brew", "install", "nope")
	var cfe *domain.CommandFailedError
	require.ErrorAs(t, err, &cfe)
	assert.Equal(t, 1, cfe.ExitCode)
	assert.Equal(t, "brew", cfe.Manager)
	assert.Equal(t, "brew install nope", cfe.Command)
}

func TestRunnerOutputToleratesNonZeroExitWithStdout(t *testing.T) {
	fx := newFakeExec()
	fx.stubFail("npm outdated --json", 1, `{"typescript":{"current":"5.3.0","latest":"5.4.2"}}`)
	r := newRunner("npm", fx, "", zerolog.Nop())

	out, err := r.output(context.Background(), "npm", "outdated", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, "typescript")
}

func TestRunnerOutputStillFailsWithoutStdout(t *testing.T) {
	fx := newFakeExec()
	fx.stubFail("npm outdated --json", 2, "  ")
	r := newRunner("npm", fx, "", zerolog.Nop())

	_, err := r.output(context.Background(), "npm", "outdated", "--json")
	var cfe *domain.CommandFailedError
	require.ErrorAs(t, err, &cfe)
}

func TestRunnerProbe(t *testing.T) {
	fx := newFakeExec()
	fx.stub("pip --version", "pip 24.0")
	r := newRunner("pip", fx, "", zerolog.Nop())

	ok, err := r.probe(context.Background(), "pip", "--version")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.probe(context.Background(), "mas", "version")
	require.NoError(t, err, "an unreachable tool is not an error")
	assert.False(t, ok)
}

func TestRunnerCanceledContext(t *testing.T) {
	fx := newFakeExec()
	fx.stubFail("cargo search x", 1, "")
	r := newRunner("cargo", fx, "", zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.run(ctx, "cargo", "search", "x")
	assert.ErrorIs(t, err, domain.ErrCommandInterrupted)
}
