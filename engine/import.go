package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-audio/wav"

	"github.com/wippyai/adae-bridge/errors"
)

// StoredAudioClip is imported sample data held by the engine. Only the
// stream parameters are kept; sample decoding belongs to the audio backend.
type StoredAudioClip struct {
	Path       string
	Key        StoredAudioClipKey
	SampleRate uint32
	// Length is the number of frames.
	Length   uint64
	Channels uint16
	BitDepth uint16
}

// ImportError reports a clip that could not be imported.
type ImportError struct {
	Err  error
	Path string
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import %s: %v", e.Path, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

const (
	wavFormatPCM        = 1
	wavFormatFloat      = 3
	wavFormatExtensible = 0xFFFE
)

// readClip reads the stream parameters of a RIFF/WAVE file.
func readClip(path string) (*StoredAudioClip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseImport, errors.KindIO, err, "open "+filepath.Base(path))
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	d.ReadInfo()
	if err := d.Err(); err != nil {
		return nil, errors.Wrap(errors.PhaseImport, errors.KindInvalidData, err, "read "+filepath.Base(path))
	}
	if !d.IsValidFile() {
		return nil, errors.InvalidData(errors.PhaseImport, []string{filepath.Base(path)}, "not a WAVE file")
	}

	switch d.WavAudioFormat {
	case wavFormatPCM, wavFormatFloat, wavFormatExtensible:
	default:
		return nil, errors.Unsupported(errors.PhaseImport, fmt.Sprintf("WAVE format tag %#x", d.WavAudioFormat))
	}

	if err := d.FwdToPCM(); err != nil {
		return nil, errors.Wrap(errors.PhaseImport, errors.KindInvalidData, err, "find data chunk")
	}

	frameBytes := int64(d.NumChans) * int64(d.BitDepth) / 8
	if frameBytes == 0 {
		return nil, errors.InvalidData(errors.PhaseImport, []string{"fmt"}, "zero frame size")
	}

	return &StoredAudioClip{
		Path:       path,
		SampleRate: d.SampleRate,
		Channels:   d.NumChans,
		BitDepth:   d.BitDepth,
		Length:     uint64(d.PCMLen() / frameBytes),
	}, nil
}

// Duration returns the clip length on the timeline at the given tempo.
func (c *StoredAudioClip) Duration(bpmCents uint16) (Timestamp, error) {
	return FromSamples(c.Length, c.SampleRate, bpmCents)
}
