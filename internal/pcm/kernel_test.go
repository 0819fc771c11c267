package pcm

import (
	"math"
	"testing"
)

func encodeF32(v float32) []byte {
	bits := math.Float32bits(v)
	return []byte{byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}
}

func TestKernelFor(t *testing.T) {
	tests := []struct {
		name string
		f    Format
		want bool
	}{
		{"float32", Float32, true},
		{"signed16", Signed16, true},
		{"signed24", Signed24, true},
		{"signed32", Signed32, true},
		{"unsigned8", Unsigned8, true},
		{"unknown", Format(99), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := KernelFor(tt.f)
			if (k != nil) != tt.want {
				t.Errorf("KernelFor(%v) = %v, want non-nil=%v", tt.f, k, tt.want)
			}
		})
	}
}

func TestFloat32Kernel_GainSaturates(t *testing.T) {
	samples := append(encodeF32(0.9), encodeF32(-0.9)...)
	k := KernelFor(Float32)
	out := k.ApplyGain(samples, 10.0)
	for off := 0; off+4 <= len(out); off += 4 {
		bits := uint32(out[off]) | uint32(out[off+1])<<8 | uint32(out[off+2])<<16 | uint32(out[off+3])<<24
		v := math.Float32frombits(bits)
		if v > 1.0 || v < -1.0 {
			t.Errorf("sample out of range: %v", v)
		}
	}
}

func TestFloat32Kernel_IsSilence(t *testing.T) {
	k := KernelFor(Float32)
	quiet := append(encodeF32(0.01), encodeF32(-0.01)...)
	if !k.IsSilence(quiet, 0.1) {
		t.Error("expected silence for samples under threshold")
	}
	loud := append(encodeF32(0.01), encodeF32(0.5)...)
	if k.IsSilence(loud, 0.1) {
		t.Error("expected non-silence when one sample exceeds threshold")
	}
}

func TestSigned16Kernel_GainSaturates(t *testing.T) {
	k := KernelFor(Signed16)
	samples := []byte{0xFF, 0x7F} // 32767
	out := k.ApplyGain(samples, 2.0)
	v := int16(uint16(out[0]) | uint16(out[1])<<8)
	if v != math.MaxInt16 {
		t.Errorf("got %d, want saturated %d", v, math.MaxInt16)
	}
}

func TestSigned24Kernel_RoundTrip(t *testing.T) {
	buf := make([]byte, 3)
	encodeSigned24(-1000, buf)
	if got := decodeSigned24(buf); got != -1000 {
		t.Errorf("decodeSigned24 = %d, want -1000", got)
	}
}

func TestSigned24Kernel_GainSaturatesNegative(t *testing.T) {
	k := KernelFor(Signed24)
	buf := make([]byte, 3)
	encodeSigned24(signed24Min, buf)
	out := k.ApplyGain(buf, 2.0)
	if got := decodeSigned24(out); got != signed24Min {
		t.Errorf("decodeSigned24 = %d, want %d", got, signed24Min)
	}
}

func TestUnsigned8Kernel_GainSaturatesToByteRange(t *testing.T) {
	k := KernelFor(Unsigned8)
	samples := []byte{200, 10}
	out := k.ApplyGain(samples, 2.0)
	if out[0] != 255 {
		t.Errorf("out[0] = %d, want 255", out[0])
	}
	if out[1] != 20 {
		t.Errorf("out[1] = %d, want 20", out[1])
	}
}

func TestUnsigned8Kernel_IsSilenceCentredAt128(t *testing.T) {
	k := KernelFor(Unsigned8)
	quiet := []byte{128, 129, 127}
	if !k.IsSilence(quiet, 0.1) {
		t.Error("expected silence near centre 128")
	}
	loud := []byte{128, 250}
	if k.IsSilence(loud, 0.1) {
		t.Error("expected non-silence far from centre")
	}
}

func TestSigned32Kernel_GainSaturates(t *testing.T) {
	k := KernelFor(Signed32)
	buf := []byte{0xFF, 0xFF, 0xFF, 0x7F} // max int32
	out := k.ApplyGain(buf, 2.0)
	v := int32(uint32(out[0]) | uint32(out[1])<<8 | uint32(out[2])<<16 | uint32(out[3])<<24)
	if v != math.MaxInt32 {
		t.Errorf("got %d, want %d", v, math.MaxInt32)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"float32", Float32, false},
		{"s16", Signed16, false},
		{"s24", Signed24, false},
		{"s32", Signed32, false},
		{"u8", Unsigned8, false},
		{"bogus", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
