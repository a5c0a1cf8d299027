package engine

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want Backend
	}{
		{"", BackendCPU},
		{"cpu", BackendCPU},
		{" CPU ", BackendCPU},
		{"gpu", BackendOpenCL},
		{"OpenCL", BackendOpenCL},
		{"cl", BackendOpenCL},
		{"vulkan", Backend("vulkan")},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewUnknownBackend(t *testing.T) {
	_, cleanup, err := New("vulkan")
	defer cleanup()
	if !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("got %v, want ErrUnknownBackend", err)
	}
}

func TestNewCPU(t *testing.T) {
	eng, cleanup, err := New("cpu")
	if err != nil {
		t.Fatalf("New(cpu) failed: %v", err)
	}
	defer cleanup()
	defer eng.Close()

	if eng.Backend() != BackendCPU {
		t.Errorf("Backend() = %q, want %q", eng.Backend(), BackendCPU)
	}
}

func TestSupported(t *testing.T) {
	got := Supported()
	if len(got) != 2 || got[0] != BackendCPU || got[1] != BackendOpenCL {
		t.Errorf("Supported() = %v", got)
	}
}
