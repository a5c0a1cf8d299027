// Package pnm implements the binary PNM raster codecs used by the batch
// pipeline: P6 (3-channel PPM) on the input side and P5 (single-channel
// PGM) on the output side. Files whose name ends in ".gz" are compressed
// and decompressed transparently.
package pnm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/cwbudde/photoprep/internal/pix"
)

// MaxVal is the only sample depth the pipeline supports.
const MaxVal = 255

var (
	// ErrBadMagic is returned when the file does not start with the
	// expected PNM magic number.
	ErrBadMagic = errors.New("pnm: bad magic number")
	// ErrBadHeader is returned when the header fields are malformed or
	// out of the supported range.
	ErrBadHeader = errors.New("pnm: malformed header")
)

// DecodePPM reads a binary P6 image into a 3-channel buffer.
func DecodePPM(r io.Reader) (*pix.Buffer, error) {
	br := bufio.NewReader(r)

	magic, err := nextToken(br)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMagic, err)
	}
	if magic != "P6" {
		return nil, fmt.Errorf("%w: got %q, want \"P6\"", ErrBadMagic, magic)
	}

	width, err := headerInt(br, "width")
	if err != nil {
		return nil, err
	}
	height, err := headerInt(br, "height")
	if err != nil {
		return nil, err
	}
	maxVal, err := headerInt(br, "maxval")
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: non-positive dimensions %dx%d", ErrBadHeader, width, height)
	}
	if maxVal != MaxVal {
		return nil, fmt.Errorf("%w: unsupported maxval %d, want %d", ErrBadHeader, maxVal, MaxVal)
	}

	// The single whitespace byte after maxval was consumed by headerInt;
	// raw samples follow immediately.
	buf := pix.New(width, height, 3)
	if _, err := io.ReadFull(br, buf.Pix); err != nil {
		return nil, fmt.Errorf("pnm: short pixel data: %w", err)
	}
	return buf, nil
}

// DecodePGM reads a binary P5 image into a 1-channel buffer.
func DecodePGM(r io.Reader) (*pix.Buffer, error) {
	br := bufio.NewReader(r)

	magic, err := nextToken(br)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMagic, err)
	}
	if magic != "P5" {
		return nil, fmt.Errorf("%w: got %q, want \"P5\"", ErrBadMagic, magic)
	}

	width, err := headerInt(br, "width")
	if err != nil {
		return nil, err
	}
	height, err := headerInt(br, "height")
	if err != nil {
		return nil, err
	}
	maxVal, err := headerInt(br, "maxval")
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: non-positive dimensions %dx%d", ErrBadHeader, width, height)
	}
	if maxVal != MaxVal {
		return nil, fmt.Errorf("%w: unsupported maxval %d, want %d", ErrBadHeader, maxVal, MaxVal)
	}

	buf := pix.New(width, height, 1)
	if _, err := io.ReadFull(br, buf.Pix); err != nil {
		return nil, fmt.Errorf("pnm: short pixel data: %w", err)
	}
	return buf, nil
}

// ReadPGM loads a P5 file from disk, decompressing gzip by extension.
func ReadPGM(path string) (*pix.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pnm: open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("pnm: gzip %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}
	buf, err := DecodePGM(r)
	if err != nil {
		return nil, fmt.Errorf("pnm: decode %s: %w", path, err)
	}
	return buf, nil
}

// EncodePGM writes a single-channel buffer as binary P5.
func EncodePGM(w io.Writer, b *pix.Buffer) error {
	if !b.Valid() || b.Channels != 1 {
		return fmt.Errorf("pnm: not a valid single-channel buffer (%dx%dx%d, %d bytes)",
			b.Width, b.Height, b.Channels, len(b.Pix))
	}
	if _, err := fmt.Fprintf(w, "P5\n%d %d\n%d\n", b.Width, b.Height, MaxVal); err != nil {
		return fmt.Errorf("pnm: write header: %w", err)
	}
	if _, err := w.Write(b.Pix); err != nil {
		return fmt.Errorf("pnm: write pixel data: %w", err)
	}
	return nil
}

// ReadPPM loads a P6 file from disk, decompressing gzip by extension.
func ReadPPM(path string) (*pix.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pnm: open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("pnm: gzip %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}
	buf, err := DecodePPM(r)
	if err != nil {
		return nil, fmt.Errorf("pnm: decode %s: %w", path, err)
	}
	return buf, nil
}

// WritePGM stores a P5 file on disk, compressing with gzip by extension.
func WritePGM(path string, b *pix.Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pnm: create %s: %w", path, err)
	}

	var w io.Writer = f
	var zw *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		zw = gzip.NewWriter(f)
		w = zw
	}

	if err := EncodePGM(w, b); err != nil {
		f.Close()
		return fmt.Errorf("pnm: encode %s: %w", path, err)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			f.Close()
			return fmt.Errorf("pnm: gzip %s: %w", path, err)
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("pnm: close %s: %w", path, err)
	}
	return nil
}

// nextToken skips whitespace and '#' comments, then reads one header token.
func nextToken(br *bufio.Reader) (string, error) {
	var sb strings.Builder
	inComment := false
	for {
		c, err := br.ReadByte()
		if err != nil {
			if err == io.EOF && sb.Len() > 0 {
				return sb.String(), nil
			}
			return "", err
		}
		switch {
		case inComment:
			if c == '\n' {
				inComment = false
			}
		case c == '#':
			if sb.Len() > 0 {
				// Token ended at the comment marker.
				if err := br.UnreadByte(); err != nil {
					return "", err
				}
				return sb.String(), nil
			}
			inComment = true
		case isSpace(c):
			if sb.Len() > 0 {
				return sb.String(), nil
			}
		default:
			sb.WriteByte(c)
		}
	}
}

func headerInt(br *bufio.Reader, field string) (int, error) {
	tok, err := nextToken(br)
	if err != nil {
		return 0, fmt.Errorf("%w: missing %s: %v", ErrBadHeader, field, err)
	}
	n := 0
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: %s %q is not a number", ErrBadHeader, field, tok)
		}
		n = n*10 + int(c-'0')
		if n > 1<<24 {
			return 0, fmt.Errorf("%w: %s %q out of range", ErrBadHeader, field, tok)
		}
	}
	return n, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}
