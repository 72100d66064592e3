// Package protocol defines the JSON envelopes exchanged over the signal
// websocket. Both the relay and the talk client marshal these; the audio
// blob travels base64-encoded inside the envelope.
package protocol

import "github.com/vokitoky/vokitoky/internal/domain"

const (
	TypeJoin         = "join"
	TypeVoiceMessage = "voice_message"
	TypeUserJoined   = "user_joined"
	TypeActiveUsers  = "active_users"
	TypePing         = "ping"
	TypePong         = "pong"
	TypeError        = "error"
)

// Envelope is the minimal frame used to dispatch on type.
type Envelope struct {
	Type string `json:"type"`
}

// Join is sent by a client right after connecting.
type Join struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Channel string `json:"channel"`
}

// Voice is a client's outbound transmission.
type Voice struct {
	Type          string `json:"type"`
	Audio         []byte `json:"audioBlob"`
	Transcription string `json:"transcription,omitempty"`
	DurationMs    int64  `json:"duration"`
}

// UserJoined notifies a channel about a new member.
type UserJoined struct {
	Type string        `json:"type"`
	ID   domain.ConnID `json:"id"`
	Name string        `json:"name"`
}

// ActiveUser is one row of a membership snapshot, in join order.
type ActiveUser struct {
	ID      domain.ConnID      `json:"id"`
	Name    string             `json:"name"`
	Channel domain.ChannelName `json:"channel"`
}

// ActiveUsers is the full membership snapshot of the recipient's channel.
type ActiveUsers struct {
	Type  string       `json:"type"`
	Users []ActiveUser `json:"users"`
}

// VoiceBroadcast is a relayed transmission as seen by recipients.
type VoiceBroadcast struct {
	Type          string        `json:"type"`
	ID            string        `json:"id"`
	SenderID      domain.ConnID `json:"senderId"`
	SenderName    string        `json:"senderName"`
	Audio         []byte        `json:"audioBlob"`
	Transcription string        `json:"transcription,omitempty"`
	DurationMs    int64         `json:"duration"`
	Timestamp     int64         `json:"timestamp"`
}

// Error carries a non-fatal protocol error back to one client.
type Error struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
