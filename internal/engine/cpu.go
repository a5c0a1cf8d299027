package engine

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/photoprep/internal/pix"
)

// Work-group shape for the emulated 2-D grid. The grid is padded up to
// whole tiles; work items past the buffer edge return without touching
// memory.
const (
	tileW = 16
	tileH = 16
)

// CPUEngine executes the kernels in host memory on a bounded worker pool.
// "Device" buffers are separate allocations; Upload and Download still
// copy, so buffer ownership matches the accelerated backends exactly.
type CPUEngine struct {
	workers int
}

// NewCPUEngine creates a CPU engine sized to the available cores.
func NewCPUEngine() *CPUEngine {
	return &CPUEngine{workers: runtime.GOMAXPROCS(0)}
}

func (e *CPUEngine) Backend() Backend { return BackendCPU }

type cpuBuffer struct {
	desc Desc
	data []uint8
}

func (b *cpuBuffer) Desc() Desc { return b.desc }

func (b *cpuBuffer) Release() { b.data = nil }

func (e *CPUEngine) alloc(d Desc) *cpuBuffer {
	return &cpuBuffer{desc: d, data: make([]uint8, d.Len())}
}

func (e *CPUEngine) Upload(src *pix.Buffer) (Buffer, error) {
	if !src.Valid() {
		panic(fmt.Sprintf("engine: upload of malformed buffer (%dx%dx%d, %d bytes)",
			src.Width, src.Height, src.Channels, len(src.Pix)))
	}
	buf := e.alloc(Desc{Width: src.Width, Height: src.Height, Channels: src.Channels})
	copy(buf.data, src.Pix)
	return buf, nil
}

func (e *CPUEngine) Download(src Buffer) (*pix.Buffer, error) {
	b := e.own(src)
	out := pix.New(b.desc.Width, b.desc.Height, b.desc.Channels)
	copy(out.Pix, b.data)
	return out, nil
}

func (e *CPUEngine) Grayscale(src Buffer) (Buffer, error) {
	b := e.own(src)
	if b.desc.Channels != 3 {
		panic(fmt.Sprintf("engine: grayscale input must have 3 channels, got %d", b.desc.Channels))
	}
	w, h := b.desc.Width, b.desc.Height
	dst := e.alloc(Desc{Width: w, Height: h, Channels: 1})
	e.launch(w, h, func(x, y int) {
		i := (y*w + x) * 3
		r := uint32(b.data[i])
		g := uint32(b.data[i+1])
		bl := uint32(b.data[i+2])
		dst.data[y*w+x] = uint8((lumaRed*r + lumaGreen*g + lumaBlue*bl) / lumaScale)
	})
	return dst, nil
}

func (e *CPUEngine) Crop(src Buffer, r pix.Rect) (Buffer, error) {
	b := e.own(src)
	if b.desc.Channels != 1 {
		panic(fmt.Sprintf("engine: crop input must have 1 channel, got %d", b.desc.Channels))
	}
	if !r.Within(b.desc.Width, b.desc.Height) {
		panic(fmt.Sprintf("engine: crop window %+v outside %dx%d source", r, b.desc.Width, b.desc.Height))
	}
	srcW := b.desc.Width
	dst := e.alloc(Desc{Width: r.W, Height: r.H, Channels: 1})
	e.launch(r.W, r.H, func(x, y int) {
		dst.data[y*r.W+x] = b.data[(y+r.Y)*srcW+(x+r.X)]
	})
	return dst, nil
}

func (e *CPUEngine) Tone(buf Buffer) error {
	b := e.own(buf)
	if b.desc.Channels != 1 {
		panic(fmt.Sprintf("engine: tone input must have 1 channel, got %d", b.desc.Channels))
	}
	w := b.desc.Width
	e.launch(w, b.desc.Height, func(x, y int) {
		i := y*w + x
		p := float64(b.data[i])
		gain := highlightGain
		if p <= toneKnee {
			gain = shadowGain
		}
		v := p * gain
		if v > 255 {
			v = 255
		}
		if v < 0 {
			v = 0
		}
		b.data[i] = uint8(v)
	})
	return nil
}

func (e *CPUEngine) Close() {}

// own asserts that the buffer belongs to this engine and is still live.
func (e *CPUEngine) own(buf Buffer) *cpuBuffer {
	b, ok := buf.(*cpuBuffer)
	if !ok {
		panic(fmt.Sprintf("engine: foreign buffer %T passed to cpu engine", buf))
	}
	if b.data == nil {
		panic("engine: use of released buffer")
	}
	return b
}

// launch runs kernel over a 2-D grid of per-pixel work items, padded up to
// whole tiles. Tiles are claimed from an atomic counter by the worker
// goroutines; the WaitGroup join is the stage barrier, so the kernel's
// output is complete when launch returns.
func (e *CPUEngine) launch(w, h int, kernel func(x, y int)) {
	tilesX := (w + tileW - 1) / tileW
	tilesY := (h + tileH - 1) / tileH
	total := tilesX * tilesY

	runTile := func(t int) {
		x0 := (t % tilesX) * tileW
		y0 := (t / tilesX) * tileH
		for y := y0; y < y0+tileH; y++ {
			for x := x0; x < x0+tileW; x++ {
				if x >= w || y >= h {
					// Grid overshoot: the work item is a no-op.
					continue
				}
				kernel(x, y)
			}
		}
	}

	workers := e.workers
	if workers > total {
		workers = total
	}
	if workers <= 1 {
		for t := 0; t < total; t++ {
			runTile(t)
		}
		return
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				t := int(next.Add(1)) - 1
				if t >= total {
					return
				}
				runTile(t)
			}
		}()
	}
	wg.Wait()
}
