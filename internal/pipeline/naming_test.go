package pipeline

import "testing"

func TestOutputName(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		suffix string
		gz     bool
		want   string
	}{
		{"plain", "photo01.ppm", "_gray", false, "photo01_gray.pgm"},
		{"with_dir", "shots/day2/photo.ppm", "_gray", false, "photo_gray.pgm"},
		{"gz_input", "photo.ppm.gz", "_gray", false, "photo_gray.pgm"},
		{"gz_output", "photo.ppm", "_gray", true, "photo_gray.pgm.gz"},
		{"other_suffix", "img.ppm", "_bw", false, "img_bw.pgm"},
		{"dotted_base", "a.b.ppm", "_gray", false, "a.b_gray.pgm"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := OutputName(tc.input, tc.suffix, tc.gz); got != tc.want {
				t.Errorf("OutputName(%q, %q, %v) = %q, want %q",
					tc.input, tc.suffix, tc.gz, got, tc.want)
			}
		})
	}
}
