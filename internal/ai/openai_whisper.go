package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/windoze95/reme-voice/internal/logger"
	"go.uber.org/zap"
)

// WhisperProvider implements SpeechProvider using OpenAI Whisper.
type WhisperProvider struct {
	client   *openai.Client
	language string
}

// NewWhisperProvider creates a new Whisper speech-to-text provider that
// transcribes Spanish.
func NewWhisperProvider(apiKey string) *WhisperProvider {
	return &WhisperProvider{client: openai.NewClient(apiKey), language: "es"}
}

// TranscribeAudio transcribes one recorded utterance. format is the
// container extension reported by the browser ("webm", "ogg", "wav").
func (p *WhisperProvider) TranscribeAudio(ctx context.Context, audioData []byte, format string) (string, error) {
	if len(audioData) == 0 {
		return "", errors.New("audio data is empty")
	}
	format = strings.TrimPrefix(strings.ToLower(format), ".")
	if format == "" {
		format = "webm"
	}

	const maxRetries = 3
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
			Model:    openai.Whisper1,
			Reader:   bytes.NewReader(audioData),
			FilePath: "utterance." + format,
			Language: p.language,
		})
		if err == nil {
			if strings.TrimSpace(resp.Text) == "" {
				return "", errors.New("Whisper returned empty transcription")
			}
			return resp.Text, nil
		}

		lastErr = err
		shouldRetry, waitTime := classifyOpenAIError(err)
		if !shouldRetry {
			return "", fmt.Errorf("Whisper API error: %w", err)
		}

		logger.Get().Warn("Whisper API error, retrying",
			zap.Error(err),
			zap.Int("attempt", i+1),
		)

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(waitTime * time.Duration(i+1)):
			}
		}
	}

	return "", fmt.Errorf("Whisper API: exhausted %d retries: %w", maxRetries, lastErr)
}
