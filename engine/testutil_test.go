package engine

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// writeWAV writes a float32 WAVE file with the given frame count.
func writeWAV(t *testing.T, sampleRate uint32, channels uint16, frames uint32) string {
	t.Helper()

	const bits = 32
	blockAlign := uint32(channels) * bits / 8
	dataSize := frames * blockAlign

	var b bytes.Buffer
	w := func(v any) {
		if err := binary.Write(&b, binary.LittleEndian, v); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	b.WriteString("RIFF")
	w(uint32(4 + 8 + 16 + 8 + dataSize))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	w(uint32(16))
	w(uint16(3))
	w(channels)
	w(sampleRate)
	w(sampleRate * blockAlign)
	w(uint16(blockAlign))
	w(uint16(bits))
	b.WriteString("data")
	w(dataSize)
	b.Write(make([]byte, dataSize))

	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}
