// Package ptt implements the client push-to-talk core: the session state
// machine, the device roster gating capture and playback, and the log book
// the UI renders. Audio and transcription are consumed as capabilities so
// the core runs against fakes just as well as against real hardware.
package ptt

import (
	"context"
	"errors"
)

// ErrNoData is returned by EndCapture when the capture yielded nothing.
var ErrNoData = errors.New("no audio data")

type CueKind string

const (
	CuePressed  CueKind = "pressed"
	CueReleased CueKind = "released"
)

// AudioCapability is the local capture/playback endpoint.
type AudioCapability interface {
	RequestPermission(ctx context.Context) bool
	BeginCapture() error
	EndCapture() ([]byte, error)
	Play(blob []byte) error
	// LiveSample returns the current amplitude window while capturing,
	// empty otherwise. Consumed by visualizers only.
	LiveSample() []byte
	// Cue plays the short press/release blip.
	Cue(kind CueKind)
	MimeType() string
}

// Transcriber converts a blob into text. It always returns text: failure
// and unavailability are expressed as placeholder strings, never as errors
// crossing this boundary.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) string
}

const (
	// PlaceholderDisabled stands in when no transcriber is configured.
	PlaceholderDisabled = "[AI Disabled: No API Key]"
	// PlaceholderTimeout stands in when transcription exceeds its bound.
	PlaceholderTimeout = "[Transcription Timed Out]"
)
