package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/photoprep/internal/engine"
	"github.com/cwbudde/photoprep/internal/pnm"
)

// Options configures a batch run.
type Options struct {
	// OutDir is the output directory, created on demand.
	OutDir string
	// Suffix is appended to output basenames; DefaultSuffix when empty.
	Suffix string
	// Gzip compresses output files.
	Gzip bool
	// WriteReport stores a JSON manifest of the run in OutDir.
	WriteReport bool
}

// RunBatch processes the ordered input list one image at a time, each one
// fully written before the next begins. Any load, transform, or write
// error aborts the remainder of the batch. The report describes the
// completed portion of the run; on error it is returned alongside the
// error but not written to disk.
func RunBatch(eng engine.Engine, inputs []string, opts Options) (*Report, error) {
	if opts.Suffix == "" {
		opts.Suffix = DefaultSuffix
	}
	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	p := New(eng)
	report := &Report{
		RunID:   uuid.NewString(),
		Backend: string(eng.Backend()),
		Stages:  p.Stages(),
		Started: time.Now().UTC(),
	}

	slog.Info("Starting batch",
		"run_id", report.RunID,
		"backend", report.Backend,
		"images", len(inputs),
		"out_dir", opts.OutDir,
	)

	for _, input := range inputs {
		entry, err := processOne(p, input, opts)
		if err != nil {
			report.Finished = time.Now().UTC()
			return report, fmt.Errorf("image %s: %w", input, err)
		}
		report.Images = append(report.Images, entry)
	}

	report.Finished = time.Now().UTC()

	if opts.WriteReport {
		if err := WriteReport(opts.OutDir, report); err != nil {
			return report, err
		}
	}

	slog.Info("Batch complete",
		"run_id", report.RunID,
		"images", len(report.Images),
		"elapsed", report.Finished.Sub(report.Started),
	)
	return report, nil
}

func processOne(p *Pipeline, input string, opts Options) (ImageEntry, error) {
	start := time.Now()

	src, err := pnm.ReadPPM(input)
	if err != nil {
		return ImageEntry{}, err
	}

	out, err := p.Process(src)
	if err != nil {
		return ImageEntry{}, err
	}

	outPath := filepath.Join(opts.OutDir, OutputName(input, opts.Suffix, opts.Gzip))
	if err := pnm.WritePGM(outPath, out); err != nil {
		return ImageEntry{}, err
	}

	elapsed := time.Since(start)
	slog.Info("Image written",
		"input", input,
		"output", outPath,
		"source", fmt.Sprintf("%dx%d", src.Width, src.Height),
		"result", fmt.Sprintf("%dx%d", out.Width, out.Height),
		"elapsed", elapsed,
	)

	return ImageEntry{
		Input:     input,
		Output:    outPath,
		SrcWidth:  src.Width,
		SrcHeight: src.Height,
		OutSide:   out.Width,
		ElapsedMS: elapsed.Milliseconds(),
	}, nil
}
