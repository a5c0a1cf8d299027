package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/photoprep/internal/engine"
	"github.com/cwbudde/photoprep/internal/pipeline"
)

var (
	outDir     string
	suffix     string
	backend    string
	gzipOut    bool
	skipReport bool
)

var runCmd = &cobra.Command{
	Use:   "run [flags] INPUT...",
	Short: "Process a batch of PPM photographs",
	Long: `Runs the grayscale, centered-square crop and tone-lift pipeline over
the given input images in order, writing PGM results to the output
directory. The first failing image aborts the batch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	runCmd.Flags().StringVar(&outDir, "out-dir", "processed", "Output directory (created on demand)")
	runCmd.Flags().StringVar(&suffix, "suffix", pipeline.DefaultSuffix, "Suffix appended to output basenames")
	runCmd.Flags().StringVar(&backend, "backend", "cpu", "Compute backend: cpu, opencl")
	runCmd.Flags().BoolVar(&gzipOut, "gzip", false, "Gzip-compress output images")
	runCmd.Flags().BoolVar(&skipReport, "no-report", false, "Skip writing report.json to the output directory")

	rootCmd.AddCommand(runCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	eng, cleanup, err := engine.New(backend)
	if err != nil {
		return fmt.Errorf("select backend: %w", err)
	}
	defer cleanup()

	report, err := pipeline.RunBatch(eng, args, pipeline.Options{
		OutDir:      outDir,
		Suffix:      suffix,
		Gzip:        gzipOut,
		WriteReport: !skipReport,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Processed %d images into %s (run %s)\n", len(report.Images), outDir, report.RunID)
	return nil
}
