// Package speech converts caller audio to text and replies to audio through an
// OpenAI-compatible audio endpoint.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/skedule/plugin/ai"
)

// MinDuration is the shortest recording accepted for recognition.
const MinDuration = 500 * time.Millisecond

var (
	// ErrSpeechTooShort rejects recordings shorter than MinDuration.
	ErrSpeechTooShort = errors.New("audio is too short")
	// ErrSpeechUnintelligible reports audio that produced no text.
	ErrSpeechUnintelligible = errors.New("speech could not be understood")
	// ErrInvalidAudio reports a payload the provider could not decode.
	ErrInvalidAudio = errors.New("audio could not be processed")
	// ErrSpeechServiceUnavailable reports a provider or network fault.
	ErrSpeechServiceUnavailable = errors.New("speech service unavailable")
)

// Recognizer converts an audio payload to text.
type Recognizer interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
}

// Synthesizer converts text to an mp3 payload.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Service implements Recognizer and Synthesizer. At most MaxWorkers
// conversions run at once; further callers wait for a slot.
type Service struct {
	client *openai.Client
	config ai.SpeechConfig
	sem    *semaphore.Weighted
}

// NewService creates a speech service reaching the provider configured in llm.
func NewService(llm *ai.LLMConfig, config ai.SpeechConfig) *Service {
	clientConfig := openai.DefaultConfig(llm.APIKey)
	if llm.BaseURL != "" {
		clientConfig.BaseURL = llm.BaseURL
	}
	if llm.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: llm.Timeout}
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 4
	}
	if config.STTModel == "" {
		config.STTModel = openai.Whisper1
	}
	if config.TTSModel == "" {
		config.TTSModel = string(openai.TTSModel1)
	}
	if config.Voice == "" {
		config.Voice = string(openai.VoiceAlloy)
	}
	return &Service{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		sem:    semaphore.NewWeighted(config.MaxWorkers),
	}
}

// Transcribe recognizes the speech in audio. WAV payloads shorter than
// MinDuration are rejected before reaching the provider; other containers
// are forwarded as is.
func (s *Service) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", ErrSpeechTooShort
	}
	if d, ok := WAVDuration(audio); ok && d < MinDuration {
		slog.Info("audio rejected as too short", "filename", filename, "duration", d)
		return "", ErrSpeechTooShort
	}
	if filename == "" {
		filename = "audio.wav"
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("%w: %w", ErrSpeechServiceUnavailable, err)
	}
	defer s.sem.Release(1)

	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.config.STTModel,
		FilePath: filename,
		Reader:   bytes.NewReader(audio),
		Language: s.config.Language,
	})
	if err != nil {
		return "", classify(err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrSpeechUnintelligible
	}
	slog.Debug("speech recognized", "filename", filename, "length", len([]rune(text)))
	return text, nil
}

// Synthesize renders text as mp3.
func (s *Service) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSpeechServiceUnavailable, err)
	}
	defer s.sem.Release(1)

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.config.TTSModel),
		Input:          text,
		Voice:          openai.SpeechVoice(s.config.Voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSpeechServiceUnavailable, err)
	}
	return audio, nil
}

// classify maps provider errors onto the speech sentinels.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusBadRequest {
		return fmt.Errorf("%w: %w", ErrInvalidAudio, err)
	}
	return fmt.Errorf("%w: %w", ErrSpeechServiceUnavailable, err)
}
