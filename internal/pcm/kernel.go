package pcm

// Kernel is the pure, allocation-free (beyond the returned slice) pair of
// operations the recording pipeline runs on every captured buffer for a
// given sample format: a saturating gain multiply and a silence test.
//
// Both operate on samples packed exactly as the device callback delivers
// them — raw little-endian bytes in the format's native width — so the
// pipeline never has to convert to/from an intermediate representation.
type Kernel interface {
	// ApplyGain multiplies every sample by factor, saturating to the
	// format's representable range. It mutates and returns samples.
	ApplyGain(samples []byte, factor float64) []byte
	// IsSilence reports whether every sample's absolute deviation from
	// the format's silence centre is strictly less than
	// threshold*FullScale().
	IsSilence(samples []byte, threshold float64) bool
}

// KernelFor returns the kernel implementing f, or nil if f is not one of
// the five known formats. Callers pass samples through unmodified when
// nil is returned.
func KernelFor(f Format) Kernel {
	switch f {
	case Float32:
		return float32Kernel{}
	case Signed16:
		return signed16Kernel{}
	case Signed24:
		return signed24Kernel{}
	case Signed32:
		return signed32Kernel{}
	case Unsigned8:
		return unsigned8Kernel{}
	default:
		return nil
	}
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
