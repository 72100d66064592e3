// Package audio provides the development implementation of the audio
// capability: capture synthesizes a tone instead of reading a microphone,
// playback validates the blob instead of reaching a speaker. Real hardware
// endpoints live outside this repo.
package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/vokitoky/vokitoky/internal/ptt"
)

const (
	sampleRate = 16000
	toneHz     = 440.0
	maxCapture = 10 * time.Second
	minCapture = 20 * time.Millisecond
)

// Sim is a simulated capture/playback endpoint producing WAV blobs.
type Sim struct {
	mu        sync.Mutex
	capturing bool
	startedAt time.Time
	lastCue   ptt.CueKind
}

func NewSim() *Sim {
	return &Sim{}
}

func (s *Sim) RequestPermission(_ context.Context) bool { return true }

func (s *Sim) BeginCapture() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capturing {
		return errors.New("capture already running")
	}
	s.capturing = true
	s.startedAt = time.Now()
	return nil
}

func (s *Sim) EndCapture() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.capturing {
		return nil, ptt.ErrNoData
	}
	s.capturing = false

	held := time.Since(s.startedAt)
	if held < minCapture {
		return nil, ptt.ErrNoData
	}
	if held > maxCapture {
		held = maxCapture
	}
	return synthesize(held), nil
}

func (s *Sim) Play(blob []byte) error {
	if len(blob) == 0 {
		return errors.New("empty audio blob")
	}
	return nil
}

// LiveSample returns a small amplitude window while capturing.
func (s *Sim) LiveSample() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.capturing {
		return nil
	}
	t := time.Since(s.startedAt).Seconds()
	out := make([]byte, 32)
	for i := range out {
		v := math.Abs(math.Sin(2 * math.Pi * toneHz * (t + float64(i)/sampleRate)))
		out[i] = byte(v * 255)
	}
	return out
}

func (s *Sim) Cue(kind ptt.CueKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCue = kind
}

// LastCue reports the most recent press/release blip, for tests and UIs.
func (s *Sim) LastCue() ptt.CueKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCue
}

func (s *Sim) MimeType() string { return "audio/wav" }

// synthesize renders a mono 16-bit PCM sine of the held duration, wrapped
// in a minimal WAV header, with a short fade to avoid clicks.
func synthesize(d time.Duration) []byte {
	n := int(d.Seconds() * sampleRate)
	fade := sampleRate / 100
	pcm := make([]byte, 44+2*n)
	writeWavHeader(pcm, n)

	for i := 0; i < n; i++ {
		amp := 0.3
		if i < fade {
			amp *= float64(i) / float64(fade)
		}
		if n-i < fade {
			amp *= float64(n-i) / float64(fade)
		}
		v := int16(amp * math.MaxInt16 * math.Sin(2*math.Pi*toneHz*float64(i)/sampleRate))
		binary.LittleEndian.PutUint16(pcm[44+2*i:], uint16(v))
	}
	return pcm
}

func writeWavHeader(buf []byte, samples int) {
	dataLen := uint32(samples * 2)
	copy(buf[0:], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:], 36+dataLen)
	copy(buf[8:], "WAVE")
	copy(buf[12:], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:], 16)
	binary.LittleEndian.PutUint16(buf[20:], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:], sampleRate)
	binary.LittleEndian.PutUint32(buf[28:], sampleRate*2)
	binary.LittleEndian.PutUint16(buf[32:], 2)
	binary.LittleEndian.PutUint16(buf[34:], 16)
	copy(buf[36:], "data")
	binary.LittleEndian.PutUint32(buf[40:], dataLen)
}
