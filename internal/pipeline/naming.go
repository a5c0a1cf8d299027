package pipeline

import (
	"path/filepath"
	"strings"
)

// DefaultSuffix is appended to every output basename.
const DefaultSuffix = "_gray"

// OutputName derives the output filename for an input path: the basename
// with its extension replaced by .pgm and the suffix appended before it.
// A trailing .gz on the input is stripped first; gz controls whether the
// output is gzip-compressed.
func OutputName(inputPath, suffix string, gz bool) string {
	base := filepath.Base(inputPath)
	base = strings.TrimSuffix(base, ".gz")
	base = strings.TrimSuffix(base, filepath.Ext(base))

	name := base + suffix + ".pgm"
	if gz {
		name += ".gz"
	}
	return name
}
