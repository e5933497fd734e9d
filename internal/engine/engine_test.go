package engine

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

	"github.com/ljiulong/boxyy/internal/config"
	"github.com/ljiulong/boxyy/internal/domain"
	"github.com/ljiulong/boxyy/internal/jobs"
)

// stubExec answers canned command lines; everything else fails like a
// missing binary, which reads as an unavailable manager.
type stubExec struct {
	mu        sync.Mutex
	responses map[string]string
}

func newStubExec() *stubExec {
	return &stubExec{responses: map[string]string{}}
}

func (s *stubExec) stub(cmd, stdout string) {
	s.responses[cmd] = stdout
}

func (s *stubExec) WithEnv(map[string]string) jexec.Executor   { return s }
func (s *stubExec) WithDir(string) jexec.Executor              { return s }
func (s *stubExec) WithContext(context.Context) jexec.Executor { return s }
func (s *stubExec) WithDisableColors() jexec.Executor          { return s }
func (s *stubExec) WithTimeout(string) jexec.Executor          { return s }
func (s *stubExec) WithInheritEnv() jexec.Executor             { return s }
func (s *stubExec) WithStdout(io.Writer) jexec.Executor        { return s }
func (s *stubExec) WithStderr(io.Writer) jexec.Executor        { return s }
func (s *stubExec) WithPassthrough() jexec.Executor            { return s }
func (s *stubExec) Clone() jexec.Executor                      { return s }

func (s *stubExec) Run(args ...string) (*jexec.Result, error) {
	cmd := strings.Join(args, " ")
	s.mu.Lock()
	out, ok := s.responses[cmd]
	s.mu.Unlock()
	if !ok {
		return nil, &jexec.ExecError{Command: args, ExitCode: 127, Err: errors.New("command not found")}
	}
	return &jexec.Result{Stdout: out}, nil
}

func newTestEngine(t *testing.T, fx *stubExec) (*Engine, *jobs.MemoryPublisher) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.CacheDir = t.TempDir()
	cfg.RetryAttempts = 1
	cfg.RetryBaseMs = 1
	cfg.HeartbeatMs = 5
	cfg.OutdatedSecs = 1

	pub := jobs.NewMemoryPublisher()
	eng := New(cfg, Options{
		Logger:    zerolog.Nop(),
		Exec:      fx,
		Publisher: pub,
	})
	return eng, pub
}

func stubBrew(fx *stubExec) {
	fx.stub("brew --version", "Homebrew 4.2.0")
	fx.stub("brew list --versions", "ripgrep 14.1.0\nnode 20.11.0\n")
	fx.stub("brew list --cask --versions", "")
	fx.stub("brew outdated --verbose", "node (20.11.0) < 21.6.1\n")
}

func TestScanReportsAvailabilityAndCounts(t *testing.T) {
	fx := newStubExec()
	stubBrew(fx)
	eng, _ := newTestEngine(t, fx)

	statuses := eng.Scan(context.Background(), domain.GlobalScope)
	require.Len(t, statuses, 10)

	byName := map[string]domain.ManagerStatus{}
	for _, st := range statuses {
		byName[st.Name] = st
	}
	brew := byName["brew"]
	assert.True(t, brew.Available)
	assert.Equal(t, 2, brew.PackageCount)
	assert.Equal(t, 1, brew.OutdatedCount)
	assert.False(t, byName["cargo"].Available, "a missing tool reads as unavailable, never as a scan failure")
}

func TestPackagesSingleManagerMarksOutdated(t *testing.T) {
	fx := newStubExec()
	stubBrew(fx)
	eng, _ := newTestEngine(t, fx)

	pkgs, perManager, err := eng.Packages(context.Background(), "brew", domain.GlobalScope, false)
	require.NoError(t, err)
	assert.Nil(t, perManager)
	require.Len(t, pkgs, 2)

	byName := map[string]domain.Package{}
	for _, p := range pkgs {
		byName[p.Name] = p
	}
	assert.False(t, byName["ripgrep"].Outdated)
	assert.True(t, byName["node"].Outdated)
	assert.Equal(t, "21.6.1", byName["node"].LatestVersion)
}

func TestPackagesUnavailableManagerPropagates(t *testing.T) {
	eng, _ := newTestEngine(t, newStubExec())

	_, _, err := eng.Packages(context.Background(), "cargo", domain.GlobalScope, false)
	var unavailable *domain.ManagerUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "cargo", unavailable.Name)
}

func TestPackagesUnknownManagerPropagates(t *testing.T) {
	eng, _ := newTestEngine(t, newStubExec())

	_, _, err := eng.Packages(context.Background(), "apt", domain.GlobalScope, false)
	var notFound *domain.ManagerNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestPackagesAllManagersNeverHardFails(t *testing.T) {
	fx := newStubExec()
	stubBrew(fx)
	eng, _ := newTestEngine(t, fx)

	pkgs, perManager, err := eng.Packages(context.Background(), "", domain.GlobalScope, false)
	require.NoError(t, err)
	assert.Len(t, perManager, 10)
	assert.Len(t, pkgs, 2, "only the reachable manager contributes packages")
}

func TestSearchFanoutDropsFailures(t *testing.T) {
	fx := newStubExec()
	fx.stub("npm --version", "10.5.0")
	fx.stub("npm search --json chalk", `[{"name":"chalk","version":"5.3.0"}]`)
	eng, _ := newTestEngine(t, fx)

	pkgs, err := eng.Search(context.Background(), "", "chalk", domain.GlobalScope)
	require.NoError(t, err)
	require.NotEmpty(t, pkgs)
	assert.Equal(t, "chalk", pkgs[0].Name)
}

func TestInfoRequiresManager(t *testing.T) {
	fx := newStubExec()
	fx.stub("npm --version", "10.5.0")
	fx.stub("npm view chalk --json", `{"name":"chalk","version":"5.3.0","license":"MIT"}`)
	eng, _ := newTestEngine(t, fx)

	pkg, err := eng.Info(context.Background(), "npm", "chalk", domain.GlobalScope)
	require.NoError(t, err)
	assert.Equal(t, "MIT", pkg.License)
}

func TestInstallJobLifecycle(t *testing.T) {
	fx := newStubExec()
	stubBrew(fx)
	fx.stub("brew install fd", "")
	eng, pub := newTestEngine(t, fx)

	id, err := eng.Install(context.Background(), "brew", "fd", "", false, domain.GlobalScope)
	require.NoError(t, err)
	eng.WaitJobs()

	job, ok := eng.Job(id)
	require.True(t, ok)
	assert.Equal(t, domain.JobSucceeded, job.Status)
	assert.Equal(t, float64(100), job.Progress)

	completions := pub.Completions()
	require.Len(t, completions, 1)
	assert.Equal(t, id, completions[0].ID)
}

func TestInstallFailurePropagatesIntoJob(t *testing.T) {
	fx := newStubExec()
	stubBrew(fx)
	eng, _ := newTestEngine(t, fx)

	// No stub for the install command itself, and the cask fallback is
	// missing too, so the job must fail.
	id, err := eng.Install(context.Background(), "brew", "ghost", "", false, domain.GlobalScope)
	require.NoError(t, err, "submission succeeds; the failure belongs to the job")
	eng.WaitJobs()

	job, _ := eng.Job(id)
	assert.Equal(t, domain.JobFailed, job.Status)
	assert.NotEmpty(t, job.Error)
}

func TestUpdateAllOutdatedBatch(t *testing.T) {
	fx := newStubExec()
	stubBrew(fx)
	fx.stub("brew upgrade node", "")
	eng, _ := newTestEngine(t, fx)

	id, err := eng.UpdateAllOutdated(context.Background(), "brew", domain.GlobalScope)
	require.NoError(t, err)
	eng.WaitJobs()

	job, _ := eng.Job(id)
	assert.Equal(t, domain.JobSucceeded, job.Status)
	assert.Contains(t, eng.JobLogs(id), "updated node to 21.6.1")
}

func TestUpdateAllOutdatedNothingToDo(t *testing.T) {
	fx := newStubExec()
	fx.stub("brew --version", "Homebrew 4.2.0")
	fx.stub("brew list --versions", "")
	fx.stub("brew list --cask --versions", "")
	fx.stub("brew outdated --verbose", "")
	eng, _ := newTestEngine(t, fx)

	id, err := eng.UpdateAllOutdated(context.Background(), "brew", domain.GlobalScope)
	require.NoError(t, err)
	eng.WaitJobs()

	job, _ := eng.Job(id)
	assert.Equal(t, domain.JobSucceeded, job.Status)
	assert.Contains(t, eng.JobLogs(id), "Nothing to update")
}

func TestRefreshDropsListingCache(t *testing.T) {
	fx := newStubExec()
	stubBrew(fx)
	eng, _ := newTestEngine(t, fx)

	// Populate the cache, then refresh and confirm a refetch happens by
	// changing the stubbed listing underneath.
	_, _, err := eng.Packages(context.Background(), "brew", domain.GlobalScope, false)
	require.NoError(t, err)

	fx.stub("brew list --versions", "ripgrep 14.1.0\n")
	require.NoError(t, eng.Refresh("brew", domain.GlobalScope))

	pkgs, _, err := eng.Packages(context.Background(), "brew", domain.GlobalScope, false)
	require.NoError(t, err)
	assert.Len(t, pkgs, 1)
}

func TestCancelRunningJob(t *testing.T) {
	fx := newStubExec()
	stubBrew(fx)
	eng, _ := newTestEngine(t, fx)

	// An install with no stubbed command fails fast, so block it behind a
	// listing refetch is not possible here; instead cancel immediately
	// after submission and accept either ordering.
	id, err := eng.Install(context.Background(), "brew", "fd", "", false, domain.GlobalScope)
	require.NoError(t, err)
	eng.CancelJob(id)
	eng.WaitJobs()

	job, _ := eng.Job(id)
	assert.True(t, job.Status.Terminal())
}
