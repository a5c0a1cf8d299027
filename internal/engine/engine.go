// Package engine provides the compute backends that execute the pipeline's
// pixel kernels. An Engine owns device-resident buffers; host data moves in
// and out only through explicit Upload and Download copies.
package engine

import (
	"github.com/cwbudde/photoprep/internal/pix"
)

// Desc describes the shape of an engine-resident pixel plane.
type Desc struct {
	Width    int
	Height   int
	Channels int
}

// Len returns the byte length implied by the shape.
func (d Desc) Len() int {
	return d.Width * d.Height * d.Channels
}

// Buffer is an engine-resident pixel plane. A Buffer and any host copy are
// linked only by explicit transfers, never implicitly synchronized.
type Buffer interface {
	Desc() Desc

	// Release frees the underlying device memory. It is idempotent and
	// must be safe to call on every exit path, including after errors.
	Release()
}

// Tone remap gains. The boundary value toneKnee belongs to the shadow
// branch; both gains are >= 1.0, the adjuster only brightens.
const (
	toneKnee      = 128
	shadowGain    = 1.10
	highlightGain = 1.05
)

// Luminance weights in exact decimal fixed point: gray is
// trunc((299 R + 587 G + 114 B) / 1000), so any R=G=B input is a fixed
// point and every backend agrees bit for bit.
const (
	lumaRed   = 299
	lumaGreen = 587
	lumaBlue  = 114
	lumaScale = 1000
)

// Engine executes the three pipeline kernels over device buffers. Each
// kernel runs as a 2-D grid of per-pixel work items; work items outside
// the buffer bounds are no-ops. A kernel's output is fully materialized
// before the call returns, so stages never overlap.
type Engine interface {
	// Backend identifies the implementation.
	Backend() Backend

	// Upload copies a host buffer into a new device buffer.
	Upload(src *pix.Buffer) (Buffer, error)

	// Download copies a device buffer back into a new host buffer.
	Download(src Buffer) (*pix.Buffer, error)

	// Grayscale reduces a 3-channel buffer to a new 1-channel buffer of
	// identical dimensions.
	Grayscale(src Buffer) (Buffer, error)

	// Crop copies the window r of a 1-channel buffer into a new buffer
	// of exactly r.W x r.H. The window must lie inside the source; a
	// violation is a programmer error and panics.
	Crop(src Buffer, r pix.Rect) (Buffer, error)

	// Tone applies the piecewise brightening remap in place.
	Tone(buf Buffer) error

	// Close releases engine-wide resources. Buffers must be released
	// individually before Close.
	Close()
}
