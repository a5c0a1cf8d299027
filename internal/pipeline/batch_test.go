package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/photoprep/internal/engine"
	"github.com/cwbudde/photoprep/internal/pnm"
)

func writePPMFile(t *testing.T, path string, w, h int, v uint8) {
	t.Helper()
	data := []byte(fmt.Sprintf("P6\n%d %d\n255\n", w, h))
	for i := 0; i < w*h*3; i++ {
		data = append(data, v)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "processed")

	inputs := []string{
		filepath.Join(dir, "a.ppm"),
		filepath.Join(dir, "b.ppm"),
	}
	writePPMFile(t, inputs[0], 4, 2, 255)
	writePPMFile(t, inputs[1], 3, 5, 100)

	eng := engine.NewCPUEngine()
	report, err := RunBatch(eng, inputs, Options{OutDir: outDir, WriteReport: true})
	if err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}

	if len(report.Images) != 2 {
		t.Fatalf("report has %d images, want 2", len(report.Images))
	}
	if report.RunID == "" {
		t.Error("report is missing a run ID")
	}
	if report.Backend != "cpu" {
		t.Errorf("report backend = %q, want cpu", report.Backend)
	}

	first, err := pnm.ReadPGM(filepath.Join(outDir, "a_gray.pgm"))
	if err != nil {
		t.Fatalf("reading first output: %v", err)
	}
	if first.Width != 2 || first.Height != 2 {
		t.Errorf("first output %dx%d, want 2x2", first.Width, first.Height)
	}
	for i, v := range first.Pix {
		if v != 255 {
			t.Errorf("first output pixel %d = %d, want 255", i, v)
		}
	}

	second, err := pnm.ReadPGM(filepath.Join(outDir, "b_gray.pgm"))
	if err != nil {
		t.Fatalf("reading second output: %v", err)
	}
	if second.Width != 3 || second.Height != 3 {
		t.Errorf("second output %dx%d, want 3x3", second.Width, second.Height)
	}
	for i, v := range second.Pix {
		if v != 110 {
			t.Errorf("second output pixel %d = %d, want 110", i, v)
		}
	}

	loaded, err := ReadReport(outDir)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if loaded.RunID != report.RunID {
		t.Errorf("persisted run ID %q, want %q", loaded.RunID, report.RunID)
	}
	if loaded.Images[1].OutSide != 3 {
		t.Errorf("second entry side = %d, want 3", loaded.Images[1].OutSide)
	}
}

func TestRunBatchAbortsOnFirstError(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "processed")

	good := filepath.Join(dir, "good.ppm")
	missing := filepath.Join(dir, "missing.ppm")
	never := filepath.Join(dir, "never.ppm")
	writePPMFile(t, good, 4, 2, 255)
	writePPMFile(t, never, 4, 2, 255)

	eng := engine.NewCPUEngine()
	report, err := RunBatch(eng, []string{good, missing, never}, Options{
		OutDir: outDir, WriteReport: true,
	})
	if err == nil {
		t.Fatal("expected batch to abort on the missing input")
	}

	// The first image completed before the abort.
	if len(report.Images) != 1 {
		t.Errorf("report has %d completed images, want 1", len(report.Images))
	}
	if _, statErr := os.Stat(filepath.Join(outDir, "good_gray.pgm")); statErr != nil {
		t.Errorf("first output should exist: %v", statErr)
	}

	// The remainder of the batch was not processed, and no report was
	// written for the failed run.
	if _, statErr := os.Stat(filepath.Join(outDir, "never_gray.pgm")); !os.IsNotExist(statErr) {
		t.Error("batch should stop before the third image")
	}
	if _, statErr := os.Stat(filepath.Join(outDir, ReportFilename)); !os.IsNotExist(statErr) {
		t.Error("no report should be written for an aborted run")
	}
}

func TestRunBatchRejectsMalformedInput(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.ppm")
	if err := os.WriteFile(bad, []byte("JFIF not a ppm"), 0644); err != nil {
		t.Fatal(err)
	}

	eng := engine.NewCPUEngine()
	if _, err := RunBatch(eng, []string{bad}, Options{OutDir: filepath.Join(dir, "out")}); err == nil {
		t.Fatal("expected error for malformed input")
	}
}
