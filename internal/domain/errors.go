package domain

import (
	"errors"
	"fmt"
)

// Sentinel failures that carry no payload beyond their identity.
var (
	ErrCommandTimeout     = errors.New("command timed out")
	ErrCommandInterrupted = errors.New("command interrupted")
)

// ManagerNotFoundError means no adapter is registered under the name.
type ManagerNotFoundError struct {
	Name string
}

func (e *ManagerNotFoundError) Error() string {
	return "manager not found: " + e.Name
}

// ManagerUnavailableError means the adapter exists but its native tool is
// not usable on this host.
type ManagerUnavailableError struct {
	Name   string
	Reason string
}

func (e *ManagerUnavailableError) Error() string {
	return fmt.Sprintf("manager %s unavailable: %s", e.Name, e.Reason)
}

// PackageNotFoundError means the manager does not know the package.
type PackageNotFoundError struct {
	Manager string
	Package string
}

func (e *PackageNotFoundError) Error() string {
	return fmt.Sprintf("package not found: %s/%s", e.Manager, e.Package)
}

// CommandFailedError is a non-zero exit from a native manager command.
type CommandFailedError struct {
	Manager  string
	Command  string
	ExitCode int
}

func (e *CommandFailedError) Error() string {
	return fmt.Sprintf("%s %q failed with exit code %d", e.Manager, e.Command, e.ExitCode)
}

// ParseError means a native command's output could not be understood.
type ParseError struct {
	Manager string
	Input   string
}

func (e *ParseError) Error() string {
	in := e.Input
	if len(in) > 80 {
		in = in[:80] + "..."
	}
	return fmt.Sprintf("%s: cannot parse output: %q", e.Manager, in)
}

// SerializationError wraps an encode/decode failure of derived data.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string { return "serialization failed: " + e.Err.Error() }
func (e *SerializationError) Unwrap() error { return e.Err }

// CacheError wraps a cache I/O failure.
type CacheError struct {
	Op  string
	Err error
}

func (e *CacheError) Error() string { return "cache " + e.Op + ": " + e.Err.Error() }
func (e *CacheError) Unwrap() error { return e.Err }

// NetworkError is a connectivity failure surfaced by a native tool.
type NetworkError struct {
	Message string
}

func (e *NetworkError) Error() string { return "network error: " + e.Message }

// DependencyConflictError is reported by managers that refuse an operation
// because of conflicting requirements.
type DependencyConflictError struct {
	Message string
}

func (e *DependencyConflictError) Error() string { return "dependency conflict: " + e.Message }

// UnsupportedOperationError is the default failure for optional adapter
// methods a backend does not implement.
type UnsupportedOperationError struct {
	Manager   string
	Operation string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s does not support %s", e.Manager, e.Operation)
}

// IsUnsupported reports whether err is an UnsupportedOperationError.
func IsUnsupported(err error) bool {
	var target *UnsupportedOperationError
	return errors.As(err, &target)
}

// IsTimeout reports whether err stems from a command time box expiring.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrCommandTimeout)
}
