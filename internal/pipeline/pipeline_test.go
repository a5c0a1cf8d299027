package pipeline

import (
	"testing"

	"github.com/cwbudde/photoprep/internal/engine"
	"github.com/cwbudde/photoprep/internal/pix"
)

func uniformRGB(w, h int, v uint8) *pix.Buffer {
	b := pix.New(w, h, 3)
	for i := range b.Pix {
		b.Pix[i] = v
	}
	return b
}

func TestProcessWhiteWideImage(t *testing.T) {
	// 4x2 all-white: grayscale keeps 255, crop to the centered 2x2, tone
	// leaves saturated pixels unchanged.
	eng := engine.NewCPUEngine()
	p := New(eng)

	out, err := p.Process(uniformRGB(4, 2, 255))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if out.Width != 2 || out.Height != 2 || out.Channels != 1 {
		t.Fatalf("got %dx%dx%d, want 2x2x1", out.Width, out.Height, out.Channels)
	}
	for i, v := range out.Pix {
		if v != 255 {
			t.Errorf("pixel %d = %d, want 255", i, v)
		}
	}
}

func TestProcessMidShadowTallImage(t *testing.T) {
	// 3x5 of uniform 100: grayscale 100, crop to 3x3 (height offset 1),
	// shadow branch lifts to 110.
	eng := engine.NewCPUEngine()
	p := New(eng)

	out, err := p.Process(uniformRGB(3, 5, 100))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if out.Width != 3 || out.Height != 3 {
		t.Fatalf("got %dx%d, want 3x3", out.Width, out.Height)
	}
	for i, v := range out.Pix {
		if v != 110 {
			t.Errorf("pixel %d = %d, want 110", i, v)
		}
	}
}

func TestProcessCropPicksCenteredWindow(t *testing.T) {
	// 4x2 with a distinct column pattern: the output must come from
	// columns 1 and 2 of the grayscale plane.
	eng := engine.NewCPUEngine()
	p := New(eng)

	src := pix.New(4, 2, 3)
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			v := uint8(40 * x) // 0, 40, 80, 120 -- gray fixed points
			i := src.Offset(x, y)
			src.Pix[i], src.Pix[i+1], src.Pix[i+2] = v, v, v
		}
	}

	out, err := p.Process(src)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	// Columns 1 and 2 hold 40 and 80; the shadow lift maps them to 44
	// and 88.
	for y := 0; y < 2; y++ {
		if got := out.Pix[y*2+0]; got != 44 {
			t.Errorf("out(0,%d) = %d, want 44", y, got)
		}
		if got := out.Pix[y*2+1]; got != 88 {
			t.Errorf("out(1,%d) = %d, want 88", y, got)
		}
	}
}

func TestDefaultStageOrder(t *testing.T) {
	p := New(engine.NewCPUEngine())
	want := []string{"grayscale", "crop", "tone"}
	got := p.Stages()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stage %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCustomStageSequence(t *testing.T) {
	// Stages are composable: a grayscale-only pipeline needs no change to
	// the orchestration loop.
	eng := engine.NewCPUEngine()
	p := New(eng, Stage{
		Name: "grayscale",
		Run: func(e engine.Engine, src engine.Buffer) (engine.Buffer, error) {
			return e.Grayscale(src)
		},
	})

	out, err := p.Process(uniformRGB(4, 2, 100))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if out.Width != 4 || out.Height != 2 || out.Channels != 1 {
		t.Fatalf("got %dx%dx%d, want 4x2x1", out.Width, out.Height, out.Channels)
	}
	for i, v := range out.Pix {
		if v != 100 {
			t.Errorf("pixel %d = %d, want 100", i, v)
		}
	}
}

func TestProcessStatelessAcrossImages(t *testing.T) {
	eng := engine.NewCPUEngine()
	p := New(eng)

	first, err := p.Process(uniformRGB(3, 5, 100))
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Process(uniformRGB(3, 5, 100))
	if err != nil {
		t.Fatal(err)
	}
	for i := range first.Pix {
		if first.Pix[i] != second.Pix[i] {
			t.Fatalf("pixel %d differs across identical images: %d vs %d",
				i, first.Pix[i], second.Pix[i])
		}
	}
}
