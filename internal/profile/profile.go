package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where skedule stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// JWTSecret verifies bearer access tokens issued by the identity provider.
	JWTSecret string

	// Timezone is the wall clock that relative phrases such as "ngày mai" are read in.
	Timezone string

	// StoreTimeout bounds every store call.
	StoreTimeout time.Duration
	// TitleMatch selects how task titles are matched: "contains" or "exact".
	TitleMatch string
	// SessionIdleTTL evicts conversation sessions idle longer than this.
	SessionIdleTTL time.Duration

	// RateLimitPerSecond and RateLimitBurst bound requests per caller.
	RateLimitPerSecond float64
	RateLimitBurst     int

	// AI Configuration
	AILLMProvider string // SKEDULE_AI_LLM_PROVIDER (default: openai)
	AILLMModel    string // SKEDULE_AI_LLM_MODEL (default: gpt-4o-mini)
	AIAPIKey      string // SKEDULE_AI_API_KEY
	AIBaseURL     string // SKEDULE_AI_BASE_URL (default: https://api.openai.com/v1)
	AITemperature float32

	// Speech Configuration
	SpeechEnabled    bool   // SKEDULE_SPEECH_ENABLED
	SpeechSTTModel   string // default: whisper-1
	SpeechTTSModel   string // default: tts-1
	SpeechVoice      string // default: alloy
	SpeechLanguage   string // default: vi
	SpeechMaxWorkers int64
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if an LLM provider can be reached.
func (p *Profile) IsAIEnabled() bool {
	return p.AIAPIKey != "" || p.AILLMProvider == "ollama"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv fills AI and speech settings that were not provided by flags or a config file.
// Supports both SKEDULE_* and the provider-native OPENAI_API_KEY / GEMINI_API_KEY variables.
func (p *Profile) FromEnv() {
	if p.AIAPIKey == "" {
		p.AIAPIKey = getEnvOrDefault("SKEDULE_AI_API_KEY", getEnvOrDefault("OPENAI_API_KEY", os.Getenv("GEMINI_API_KEY")))
	}
	if p.AILLMProvider == "" {
		p.AILLMProvider = getEnvOrDefault("SKEDULE_AI_LLM_PROVIDER", "openai")
	}
	if p.AILLMModel == "" {
		p.AILLMModel = getEnvOrDefault("SKEDULE_AI_LLM_MODEL", "gpt-4o-mini")
	}
	if p.AIBaseURL == "" {
		p.AIBaseURL = getEnvOrDefault("SKEDULE_AI_BASE_URL", defaultBaseURL(p.AILLMProvider))
	}
	if p.JWTSecret == "" {
		p.JWTSecret = getEnvOrDefault("SKEDULE_JWT_SECRET", os.Getenv("SUPABASE_JWT_SECRET"))
	}
	if p.SpeechSTTModel == "" {
		p.SpeechSTTModel = "whisper-1"
	}
	if p.SpeechTTSModel == "" {
		p.SpeechTTSModel = "tts-1"
	}
	if p.SpeechVoice == "" {
		p.SpeechVoice = "alloy"
	}
	if p.SpeechLanguage == "" {
		p.SpeechLanguage = "vi"
	}
}

func defaultBaseURL(provider string) string {
	switch provider {
	case "deepseek":
		return "https://api.deepseek.com"
	case "gemini":
		return "https://generativelanguage.googleapis.com/v1beta/openai/"
	case "ollama":
		return "http://localhost:11434/v1"
	default:
		return "https://api.openai.com/v1"
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q", p.Driver)
	}
	if p.TitleMatch == "" {
		p.TitleMatch = "contains"
	}
	if p.TitleMatch != "contains" && p.TitleMatch != "exact" {
		return errors.Errorf("unsupported title match policy %q", p.TitleMatch)
	}
	if p.Timezone == "" {
		p.Timezone = "Asia/Ho_Chi_Minh"
	}
	if _, err := time.LoadLocation(p.Timezone); err != nil {
		return errors.Wrapf(err, "unknown timezone %q", p.Timezone)
	}
	if p.StoreTimeout <= 0 {
		p.StoreTimeout = 5 * time.Second
	}
	if p.SessionIdleTTL <= 0 {
		p.SessionIdleTTL = time.Hour
	}
	if p.RateLimitPerSecond <= 0 {
		p.RateLimitPerSecond = 2
	}
	if p.RateLimitBurst <= 0 {
		p.RateLimitBurst = 5
	}
	if p.SpeechMaxWorkers <= 0 {
		p.SpeechMaxWorkers = 4
	}
	if p.Mode == "prod" && p.JWTSecret == "" {
		return errors.New("jwt secret is required in prod mode")
	}

	if p.Driver == "sqlite" && p.DSN == "" {
		if p.Data == "" {
			p.Data = "."
		}
		dataDir, err := checkDataDir(p.Data)
		if err != nil {
			slog.Error("failed to check dsn", slog.String("data", p.Data), slog.String("error", err.Error()))
			return err
		}
		p.Data = dataDir
		dbFile := fmt.Sprintf("skedule_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for the postgres driver")
	}

	return nil
}
