package codec

import (
	"bytes"
	"testing"
)

func TestCompressDecompress_RoundTrip(t *testing.T) {
	original := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 50)

	compressed, err := Compress(original)
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	if len(compressed) == 0 {
		t.Fatal("Compress() returned empty output")
	}

	decompressed, err := Decompress(compressed, len(original))
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}
	if !bytes.Equal(decompressed, original) {
		t.Error("round trip did not reproduce original bytes")
	}
}

func TestCompress_Empty(t *testing.T) {
	compressed, err := Compress(nil)
	if err != nil {
		t.Fatalf("Compress(nil) error = %v", err)
	}
	decompressed, err := Decompress(compressed, 0)
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}
	if len(decompressed) != 0 {
		t.Errorf("Decompress() = %v, want empty", decompressed)
	}
}

func TestDecompress_CorruptInput(t *testing.T) {
	if _, err := Decompress([]byte{0xFF, 0xFF, 0xFF}, 100); err == nil {
		t.Error("Decompress() on garbage input: want error, got nil")
	}
}
