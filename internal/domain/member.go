package domain

import "errors"

const MaxDisplayNameLen = 36

var (
	ErrDisplayNameEmpty   = errors.New("display name empty")
	ErrDisplayNameTooLong = errors.New("display name too long")
)

// ConnID identifies one live connection. Issued by the transport layer.
type ConnID string

// Member is a connection's registration within exactly one channel.
// Owned by the relay for the lifetime of the connection.
type Member struct {
	ID      ConnID      `json:"id"`
	Name    string      `json:"name"`
	Channel ChannelName `json:"channel"`
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(id ConnID, name string, channel ChannelName) (*Member, error) {
	if len(name) == 0 {
		return nil, ErrDisplayNameEmpty
	}
	if len(name) > MaxDisplayNameLen {
		return nil, ErrDisplayNameTooLong
	}
	return &Member{ID: id, Name: name, Channel: channel}, nil
}
