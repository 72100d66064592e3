package ptt

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type State string

const (
	StateIdle         State = "idle"
	StateRecording    State = "recording"
	StateSending      State = "sending"
	StateTranscribing State = "transcribing"
)

const defaultTranscribeTimeout = 15 * time.Second

// Emitter delivers a finished transmission to the relay.
type Emitter interface {
	EmitVoice(audio []byte, transcription string, durationMs int64) error
}

// Session is the push-to-talk state machine. Outbound transitions are
// Idle → Recording → Sending → Transcribing → Idle, with a single in-flight
// operation; completions carry the generation they started under and are
// discarded when the session has moved on. The inbound path is independent
// and may run while an outbound sequence is in progress.
type Session struct {
	audio   AudioCapability
	scribe  Transcriber
	roster  *DeviceRoster
	book    *LogBook
	emitter Emitter
	timeout time.Duration

	mu            sync.Mutex
	state         State
	gen           uint64
	startedAt     time.Time
	communicating bool
}

func NewSession(audio AudioCapability, scribe Transcriber, roster *DeviceRoster, book *LogBook, emitter Emitter, timeout time.Duration) *Session {
	if timeout <= 0 {
		timeout = defaultTranscribeTimeout
	}
	return &Session{
		audio:   audio,
		scribe:  scribe,
		roster:  roster,
		book:    book,
		emitter: emitter,
		timeout: timeout,
		state:   StateIdle,
	}
}

// SetCommunicating toggles the active-communication mode. Dropping out of
// it discards whatever operation was in flight.
func (s *Session) SetCommunicating(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.communicating = on
	if !on {
		s.gen++
		s.state = StateIdle
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start begins capturing. A silent no-op when an outbound operation is
// already in flight; otherwise refused with an error-kind log entry when
// the session is not communicating or the current device is muted.
func (s *Session) Start() {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return
	}
	if !s.communicating {
		s.mu.Unlock()
		s.book.Error("Cannot record: channel link is not active")
		return
	}
	if s.roster.Current().IsMuted {
		s.mu.Unlock()
		s.book.Error("Cannot record: device is muted locally")
		return
	}
	s.state = StateRecording
	s.startedAt = time.Now()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	s.audio.Cue(CuePressed)
	if err := s.audio.BeginCapture(); err != nil {
		if s.resetToIdle(gen) {
			s.book.Error("Cannot record: " + err.Error())
		}
	}
}

// Stop ends capture and runs the send pipeline asynchronously. A no-op
// unless the session is Recording.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return
	}
	s.state = StateSending
	gen := s.gen
	durationMs := time.Since(s.startedAt).Milliseconds()
	s.mu.Unlock()

	s.audio.Cue(CueReleased)
	go s.finish(gen, durationMs)
}

// finish collects the blob, transcribes it within the bound and emits the
// message. Every exit path resolves the machine back to Idle.
func (s *Session) finish(gen uint64, durationMs int64) {
	blob, err := s.audio.EndCapture()
	if err != nil || len(blob) == 0 {
		if s.resetToIdle(gen) {
			s.book.Error("Transmission aborted: no audio captured")
		}
		return
	}

	if !s.advance(gen, StateSending, StateTranscribing) {
		return
	}
	text := s.transcribeBlob(blob)

	if !s.resetToIdle(gen) {
		return
	}
	s.book.Voice("Voice Message Sent", "You", text)
	if s.emitter != nil {
		if err := s.emitter.EmitVoice(blob, text, durationMs); err != nil {
			s.book.Error("Failed to send voice message: " + err.Error())
		}
	}
}

func (s *Session) transcribeBlob(blob []byte) string {
	if s.scribe == nil {
		return PlaceholderDisabled
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	done := make(chan string, 1)
	go func() {
		done <- s.scribe.Transcribe(ctx, blob, s.audio.MimeType())
	}()
	select {
	case text := <-done:
		return text
	case <-ctx.Done():
		log.Warn().Str("module", "ptt").Dur("timeout", s.timeout).Msg("transcription timed out")
		return PlaceholderTimeout
	}
}

// HandleIncoming plays an inbound transmission, honoring the local mute
// gate. Playback failure degrades to a log entry, never further.
func (s *Session) HandleIncoming(sender string, audio []byte, transcription string) {
	if s.roster.Current().IsMuted {
		s.book.System("Incoming message suppressed (muted)")
		return
	}
	s.book.System("Incoming transmission...")
	if err := s.audio.Play(audio); err != nil {
		s.book.Error("Playback failed: " + err.Error())
		return
	}
	s.book.Voice("Voice Message Received", sender, transcription)
}

// resetToIdle returns the machine to Idle if the generation still matches;
// a stale completion reports false and must be discarded by the caller.
func (s *Session) resetToIdle(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.state = StateIdle
	return true
}

func (s *Session) advance(gen uint64, from, to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.state != from {
		return false
	}
	s.state = to
	return true
}
