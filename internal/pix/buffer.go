package pix

import "fmt"

// Buffer is a host-resident rectangular pixel plane. Channels is 1 for a
// grayscale plane and 3 for interleaved RGB. Pixel data is row-major with
// interleaved channels, one byte per sample.
type Buffer struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// New allocates a zeroed buffer for the given shape.
func New(width, height, channels int) *Buffer {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("pix: invalid dimensions %dx%d", width, height))
	}
	if channels != 1 && channels != 3 {
		panic(fmt.Sprintf("pix: invalid channel count %d", channels))
	}
	return &Buffer{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// Len returns the expected pixel data length for the buffer's shape.
func (b *Buffer) Len() int {
	return b.Width * b.Height * b.Channels
}

// Valid reports whether the pixel data length matches the declared shape.
func (b *Buffer) Valid() bool {
	if b.Width <= 0 || b.Height <= 0 {
		return false
	}
	if b.Channels != 1 && b.Channels != 3 {
		return false
	}
	return len(b.Pix) == b.Len()
}

// Offset returns the index of the first sample of pixel (x,y).
func (b *Buffer) Offset(x, y int) int {
	return (y*b.Width + x) * b.Channels
}
