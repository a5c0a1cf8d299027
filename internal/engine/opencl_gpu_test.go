//go:build gpu

package engine

import (
	"bytes"
	"errors"
	"testing"

	"github.com/cwbudde/photoprep/internal/pix"
)

// Runs the full kernel sequence on both backends and requires bit-identical
// results. Skips when no OpenCL device is present.
func TestOpenCLMatchesCPU(t *testing.T) {
	clEng, cleanup, err := New("opencl")
	if err != nil {
		if errors.Is(err, ErrBackendUnavailable) {
			t.Skipf("opencl unavailable: %v", err)
		}
		t.Fatalf("New(opencl) failed: %v", err)
	}
	defer cleanup()

	cpuEng := NewCPUEngine()

	src := pix.New(61, 43, 3)
	for i := range src.Pix {
		src.Pix[i] = uint8((i*31 + 7) % 256)
	}

	run := func(e Engine) *pix.Buffer {
		dev, err := e.Upload(src)
		if err != nil {
			t.Fatal(err)
		}
		defer dev.Release()
		gray, err := e.Grayscale(dev)
		if err != nil {
			t.Fatal(err)
		}
		defer gray.Release()
		d := gray.Desc()
		cropped, err := e.Crop(gray, pix.CenteredSquare(d.Width, d.Height))
		if err != nil {
			t.Fatal(err)
		}
		defer cropped.Release()
		if err := e.Tone(cropped); err != nil {
			t.Fatal(err)
		}
		out, err := e.Download(cropped)
		if err != nil {
			t.Fatal(err)
		}
		return out
	}

	want := run(cpuEng)
	got := run(clEng)

	if got.Width != want.Width || got.Height != want.Height {
		t.Fatalf("shape mismatch: %dx%d vs %dx%d", got.Width, got.Height, want.Width, want.Height)
	}
	if !bytes.Equal(got.Pix, want.Pix) {
		for i := range got.Pix {
			if got.Pix[i] != want.Pix[i] {
				t.Fatalf("first mismatch at %d: opencl=%d cpu=%d", i, got.Pix[i], want.Pix[i])
			}
		}
	}
}
