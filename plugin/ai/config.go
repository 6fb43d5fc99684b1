package ai

import (
	"errors"
	"time"

	"github.com/hrygo/skedule/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	Enabled bool

	LLM    LLMConfig
	Speech SpeechConfig
}

// LLMConfig represents LLM configuration. Every provider is reached through
// its OpenAI-compatible endpoint.
type LLMConfig struct {
	Provider    string // openai, deepseek, gemini, ollama
	Model       string // gpt-4o-mini
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 1024
	Temperature float32 // default: 0
	MaxRetries  int     // default: 2
	Timeout     time.Duration
}

// SpeechConfig represents speech-to-text and text-to-speech configuration.
type SpeechConfig struct {
	Enabled    bool
	STTModel   string // whisper-1
	TTSModel   string // tts-1
	Voice      string // alloy
	Language   string // vi
	MaxWorkers int64
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled: p.IsAIEnabled(),
	}

	cfg.LLM = LLMConfig{
		Provider:    p.AILLMProvider,
		Model:       p.AILLMModel,
		APIKey:      p.AIAPIKey,
		BaseURL:     p.AIBaseURL,
		MaxTokens:   1024,
		Temperature: p.AITemperature,
		MaxRetries:  2,
		Timeout:     60 * time.Second,
	}
	if cfg.LLM.Provider == "ollama" && cfg.LLM.APIKey == "" {
		// Ollama ignores the key but the client sends the header anyway.
		cfg.LLM.APIKey = "ollama"
	}

	cfg.Speech = SpeechConfig{
		Enabled:    cfg.Enabled && p.SpeechEnabled,
		STTModel:   p.SpeechSTTModel,
		TTSModel:   p.SpeechTTSModel,
		Voice:      p.SpeechVoice,
		Language:   p.SpeechLanguage,
		MaxWorkers: p.SpeechMaxWorkers,
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.LLM.Provider == "" {
		return errors.New("LLM provider is required")
	}

	if c.LLM.Model == "" {
		return errors.New("LLM model is required")
	}

	if c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}

	if c.Speech.Enabled && (c.Speech.STTModel == "" || c.Speech.TTSModel == "") {
		return errors.New("speech models are required when speech is enabled")
	}

	return nil
}
