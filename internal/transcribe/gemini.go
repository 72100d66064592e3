// Package transcribe implements the transcription capability. Per its
// contract the capability always returns text: failures and unavailability
// come back as placeholder strings, never as errors.
package transcribe

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

const (
	prompt = "Transcribe the audio exactly as spoken. If it is noise, return [Noise]."

	PlaceholderFailed      = "[Transcription Failed]"
	PlaceholderEmpty       = "[Unintelligible]"
	PlaceholderUnavailable = "AI Transcription Unavailable (Missing API Key)"
)

// Gemini transcribes audio blobs through the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Transcribe(ctx context.Context, audio []byte, mimeType string) string {
	model := g.client.GenerativeModel(g.model)
	resp, err := model.GenerateContent(ctx,
		genai.Blob{MIMEType: mimeType, Data: audio},
		genai.Text(prompt),
	)
	if err != nil {
		log.Error().Err(err).Str("module", "transcribe").Msg("gemini transcription error")
		return PlaceholderFailed
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return PlaceholderEmpty
	}
	return text
}

func (g *Gemini) Close() error {
	return g.client.Close()
}
