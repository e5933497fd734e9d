package domain

import "time"

// Package is a single package as reported by one manager. Produced only by
// manager adapters; the engine aggregates, filters and annotates.
type Package struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	Manager       string `json:"manager"`
	Description   string `json:"description,omitempty"`
	Homepage      string `json:"homepage,omitempty"`
	License       string `json:"license,omitempty"`
	InstalledPath string `json:"installed_path,omitempty"`
	Size          int64  `json:"size,omitempty"`
	Outdated      bool   `json:"outdated"`
	LatestVersion string `json:"latest_version,omitempty"`
}

// ManagerStatus summarizes one backend for a scan.
type ManagerStatus struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	Available     bool   `json:"available"`
	PackageCount  int    `json:"package_count"`
	OutdatedCount int    `json:"outdated_count"`
}

// Operation is a mutating action tracked by a job.
type Operation string

const (
	OperationInstall   Operation = "install"
	OperationUpdate    Operation = "update"
	OperationUninstall Operation = "uninstall"
)

// JobStatus is the lifecycle state of a job. A job is created Running and
// moves to exactly one terminal state.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
	JobCanceled  JobStatus = "canceled"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobSucceeded || s == JobFailed || s == JobCanceled
}

// Job is a tracked asynchronous mutating operation. Logs live in the job
// store, keyed by id, so a terminal job stays immutable while its log trail
// can still be drained.
type Job struct {
	ID         string     `json:"id"`
	Manager    string     `json:"manager"`
	Operation  Operation  `json:"operation"`
	Target     string     `json:"target"`
	Status     JobStatus  `json:"status"`
	Progress   float64    `json:"progress"`
	Step       string     `json:"step,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Capability is a statically advertised operation support flag.
type Capability string

const (
	CapListInstalled     Capability = "list_installed"
	CapSearchRemote      Capability = "search_remote"
	CapQueryDependencies Capability = "query_dependencies"
	CapVersionSelection  Capability = "version_selection"
	CapBatchInstall      Capability = "batch_install"
)
