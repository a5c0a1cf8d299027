//go:build !gpu

package engine

import "fmt"

// newOpenCLEngine reports the backend unavailable in non-GPU builds.
func newOpenCLEngine() (Engine, func(), error) {
	return nil, noopCleanup, fmt.Errorf("%w: build without GPU tag", ErrBackendUnavailable)
}
