package transcribe

import "context"

// Unavailable is the transcriber used when no API key is configured.
type Unavailable struct{}

func (Unavailable) Transcribe(context.Context, []byte, string) string {
	return PlaceholderUnavailable
}
