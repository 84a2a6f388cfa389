// Package engine is the in-memory audio engine behind the bridge.
//
// The engine owns the mixer (a master track plus audio tracks), the timeline
// (clips placed on timeline tracks), the stored clips imported from WAVE
// files, and the transport. Every audio track owns one mixer track and one
// timeline track; deleting the audio track deletes both, and the returned
// AudioTrackState is enough to reconstruct it under the same key.
//
// # Concurrency
//
// All Engine methods are safe for concurrent use. Engines built with New run
// an audio worker goroutine that advances the playhead and the meters once
// per output buffer. The worker is started through crash.Go, so a panic on it
// is reported to the installed crash hook instead of taking the process down.
//
// # Timestamps
//
// Timeline positions are Timestamps in beat units, 1024 per beat:
//
//	ts, _ := engine.FromSamples(420, 48000, 12000) // 17 beat units at 120 BPM
//	n, _ := ts.Samples(48000, 12000)
//
// Arithmetic is checked and fails with errors.KindOverflow rather than
// wrapping.
//
// # Diagnostics
//
// An engine whose Config has Debug set sends short diagnostic lines to the
// sink registered with SetOutput.
package engine
