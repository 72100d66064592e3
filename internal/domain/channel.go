// Package domain contains entities without logic, just meta-data.
package domain

import "errors"

const MaxChannelNameLen = 36

var (
	ErrChannelNameEmpty   = errors.New("channel name empty")
	ErrChannelNameTooLong = errors.New("channel name too long")
)

type ChannelName string

// ParseChannelName validates raw input from adapters.
func ParseChannelName(raw string) (ChannelName, error) {
	if len(raw) == 0 {
		return "", ErrChannelNameEmpty
	}
	if len(raw) > MaxChannelNameLen {
		return "", ErrChannelNameTooLong
	}
	return ChannelName(raw), nil
}
