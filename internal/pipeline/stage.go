package pipeline

import (
	"github.com/cwbudde/photoprep/internal/engine"
	"github.com/cwbudde/photoprep/internal/pix"
)

// Stage is one pixel-transform step of the pipeline. Run consumes an
// engine buffer and returns the stage's output buffer; in-place stages
// return their input. Stages can be substituted or reordered without
// touching the orchestration loop.
type Stage struct {
	Name string

	// HostSync materializes the stage output on the host before the next
	// stage runs (download, release, re-upload).
	HostSync bool

	Run func(eng engine.Engine, src engine.Buffer) (engine.Buffer, error)
}

// DefaultStages returns the fixed production pipeline: color reduction,
// centered-square crop, tone lift. The grayscale result is synced through
// the host before cropping resumes on the device; see DESIGN.md for why
// this round-trip is kept.
func DefaultStages() []Stage {
	return []Stage{
		{
			Name:     "grayscale",
			HostSync: true,
			Run: func(eng engine.Engine, src engine.Buffer) (engine.Buffer, error) {
				return eng.Grayscale(src)
			},
		},
		{
			Name: "crop",
			Run: func(eng engine.Engine, src engine.Buffer) (engine.Buffer, error) {
				d := src.Desc()
				return eng.Crop(src, pix.CenteredSquare(d.Width, d.Height))
			},
		},
		{
			Name: "tone",
			Run: func(eng engine.Engine, src engine.Buffer) (engine.Buffer, error) {
				if err := eng.Tone(src); err != nil {
					return nil, err
				}
				return src, nil
			},
		},
	}
}
