package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Backend identifies an engine implementation.
type Backend string

const (
	BackendCPU    Backend = "cpu"
	BackendOpenCL Backend = "opencl"
)

var (
	// ErrUnknownBackend is returned when the name does not match a known backend.
	ErrUnknownBackend = errors.New("unknown compute backend")
	// ErrBackendUnavailable indicates the backend is not available in this build.
	ErrBackendUnavailable = errors.New("compute backend unavailable")
)

var noopCleanup = func() {}

// Normalize maps arbitrary user input to a canonical backend identifier.
func Normalize(name string) Backend {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "cpu":
		return BackendCPU
	case "gpu", "opencl", "cl":
		return BackendOpenCL
	default:
		return Backend(name)
	}
}

// Supported returns the list of backends understood by the factory.
func Supported() []Backend {
	return []Backend{BackendCPU, BackendOpenCL}
}

// New constructs the requested engine and returns an optional cleanup hook.
func New(name string) (Engine, func(), error) {
	switch Normalize(name) {
	case BackendCPU:
		return NewCPUEngine(), noopCleanup, nil
	case BackendOpenCL:
		return newOpenCLEngine()
	default:
		return nil, noopCleanup, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}
}
