package domain

import (
	"time"

	"github.com/google/uuid"
)

// VoiceMessage is one relayed transmission. Immutable once constructed,
// never persisted.
type VoiceMessage struct {
	ID            string
	SenderID      ConnID
	SenderName    string
	Audio         []byte
	Transcription string
	DurationMs    int64
	SentAt        time.Time
}

// NewVoiceMessage stamps a fresh id and the current time.
func NewVoiceMessage(sender *Member, audio []byte, transcription string, durationMs int64) *VoiceMessage {
	return &VoiceMessage{
		ID:            uuid.NewString(),
		SenderID:      sender.ID,
		SenderName:    sender.Name,
		Audio:         audio,
		Transcription: transcription,
		DurationMs:    durationMs,
		SentAt:        time.Now(),
	}
}
