//go:build !gpu

package engine

import (
	"errors"
	"testing"
)

func TestNewOpenCLWithoutGPUTag(t *testing.T) {
	_, cleanup, err := New("opencl")
	defer cleanup()
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("got %v, want ErrBackendUnavailable", err)
	}
}
