package domain

import (
	"time"

	"github.com/google/uuid"
)

type LogKind string

const (
	LogSystem LogKind = "system"
	LogVoice  LogKind = "voice"
	LogError  LogKind = "error"
)

// LogEntry is one line of the session activity trail the UI renders.
type LogEntry struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Kind          LogKind   `json:"kind"`
	Message       string    `json:"message"`
	Sender        string    `json:"sender,omitempty"`
	Transcription string    `json:"transcription,omitempty"`
}

func NewLogEntry(kind LogKind, message string) LogEntry {
	return LogEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Kind:      kind,
		Message:   message,
	}
}
