package capture

import (
	"encoding/binary"
	"fmt"

	"github.com/subsonant/audioengine/internal/codec"
)

// wireHeaderLen is the fixed 8-byte header preceding every frame's
// payload on the wire: {originalBytes u32le, compressedBytes u32le}.
const wireHeaderLen = 8

// Frame is one in-memory captured buffer, already gain-adjusted and
// either compressed or, on compression failure, stored raw with the
// originalLen == len(payload) marker.
type Frame struct {
	originalLen int
	payload     []byte
}

// newFrame compresses pcm, falling back to a raw copy on failure so a
// transient compression error never loses audio.
func newFrame(pcm []byte) Frame {
	compressed, err := codec.Compress(pcm)
	if err != nil {
		raw := make([]byte, len(pcm))
		copy(raw, pcm)
		return Frame{originalLen: len(pcm), payload: raw}
	}
	return Frame{originalLen: len(pcm), payload: compressed}
}

// wireLen is the number of bytes this frame occupies once serialized.
func (f Frame) wireLen() int {
	return wireHeaderLen + len(f.payload)
}

// appendWire appends this frame's 8-byte header and payload to dst.
func (f Frame) appendWire(dst []byte) []byte {
	var hdr [wireHeaderLen]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(f.originalLen))
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(f.payload)))
	dst = append(dst, hdr[:]...)
	dst = append(dst, f.payload...)
	return dst
}

// DecodeChunks decodes a concatenation of wire frames (as produced by
// Buffer.DrainUpTo) back into the concatenated raw PCM stream:
// originalBytes == compressedBytes marks an uncompressed fallback frame.
func DecodeChunks(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data))
	pos := 0
	for pos < len(data) {
		if pos+wireHeaderLen > len(data) {
			return nil, fmt.Errorf("capture: truncated frame header at offset %d", pos)
		}
		originalLen := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
		compressedLen := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		pos += wireHeaderLen

		if pos+compressedLen > len(data) {
			return nil, fmt.Errorf("capture: truncated frame payload at offset %d", pos)
		}
		payload := data[pos : pos+compressedLen]
		pos += compressedLen

		if originalLen == compressedLen {
			out = append(out, payload...)
			continue
		}
		pcm, err := codec.Decompress(payload, originalLen)
		if err != nil {
			// Recover by appending the payload raw rather than failing the
			// whole decode.
			out = append(out, payload...)
			continue
		}
		out = append(out, pcm...)
	}
	return out, nil
}
