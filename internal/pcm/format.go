// Package pcm implements the per-sample-format gain and silence-detection
// kernels used by the recording pipeline, and the wire domain constants
// that describe each of the five supported PCM layouts.
package pcm

import "fmt"

// Format identifies a PCM sample layout.
type Format int

const (
	Float32 Format = iota
	Signed16
	Signed24
	Signed32
	Unsigned8
)

// String renders the format's short spelling (float32, s16, s24, s32,
// u8), as used in log and error lines. ParseFormat accepts it; the config
// file takes the long names (signed16 and so on) instead.
func (f Format) String() string {
	switch f {
	case Float32:
		return "float32"
	case Signed16:
		return "s16"
	case Signed24:
		return "s24"
	case Signed32:
		return "s32"
	case Unsigned8:
		return "u8"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// BytesPerSample returns the width in bytes of a single sample of f.
func (f Format) BytesPerSample() int {
	switch f {
	case Float32, Signed32:
		return 4
	case Signed16:
		return 2
	case Signed24:
		return 3
	case Unsigned8:
		return 1
	default:
		return 0
	}
}

// FullScale returns the format's positive peak, used to scale a [0,1]
// silence threshold fraction into an absolute-deviation comparison.
func (f Format) FullScale() float64 {
	switch f {
	case Float32:
		return 1.0
	case Signed16:
		return 32767
	case Signed24:
		return 8388607
	case Signed32:
		return 2147483647
	case Unsigned8:
		return 127
	default:
		return 0
	}
}

// Valid reports whether f is one of the five known formats.
func (f Format) Valid() bool {
	switch f {
	case Float32, Signed16, Signed24, Signed32, Unsigned8:
		return true
	default:
		return false
	}
}

// ParseFormat maps the config/CLI spelling of a format onto a Format value.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "float32", "f32":
		return Float32, nil
	case "s16", "signed16":
		return Signed16, nil
	case "s24", "signed24":
		return Signed24, nil
	case "s32", "signed32":
		return Signed32, nil
	case "u8", "unsigned8":
		return Unsigned8, nil
	default:
		return 0, fmt.Errorf("pcm: unknown format %q", s)
	}
}
