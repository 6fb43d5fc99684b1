package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/skedule/internal/profile"
)

var rootCmd = &cobra.Command{
	Use:   "skedule",
	Short: "Vietnamese voice and chat assistant for personal schedules",
	Long: `Skedule keeps a personal calendar of tasks and answers natural language
requests ("lên lịch họp nhóm 9h sáng mai", "tuần sau tôi có gì?") through a
tool-calling language model, over HTTP, a local REPL or MCP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initConfig()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "skedule %s\ncommit: %s\n", version, commit)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ./skedule.yaml when present)")
	flags.String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	flags.String("addr", "", "address of server")
	flags.Int("port", 8000, "port of server")
	flags.String("data", "", "data directory")
	flags.String("driver", "sqlite", "database driver (sqlite or postgres)")
	flags.String("dsn", "", "database source name")
	flags.String("timezone", "Asia/Ho_Chi_Minh", "timezone relative phrases are read in")
	flags.String("jwt-secret", "", "HS256 secret verifying bearer tokens")
	flags.Duration("store-timeout", 0, "bound on every store call")
	flags.String("title-match", "contains", `title match policy, "contains" or "exact"`)
	flags.Duration("session-idle-ttl", 0, "evict conversation sessions idle longer than this")
	flags.Float64("rate-limit", 0, "requests per second allowed per caller")
	flags.Int("rate-burst", 0, "burst of requests allowed per caller")
	flags.String("ai-llm-provider", "", "LLM provider: openai, deepseek, gemini or ollama")
	flags.String("ai-llm-model", "", "LLM model")
	flags.String("ai-api-key", "", "LLM API key")
	flags.String("ai-base-url", "", "OpenAI-compatible base URL of the LLM provider")
	flags.Float32("ai-temperature", 0, "LLM sampling temperature")
	flags.Bool("speech-enabled", false, "enable speech recognition and synthesis")
	flags.String("speech-stt-model", "", "speech to text model")
	flags.String("speech-tts-model", "", "text to speech model")
	flags.String("speech-voice", "", "text to speech voice")
	flags.String("speech-language", "", "language hint for speech recognition")
	flags.Int64("speech-workers", 0, "concurrent speech conversions")

	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}
	viper.SetEnvPrefix("skedule")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(versionCmd, serveCmd, migrateCmd, chatCmd, mcpCmd, toolsCmd)
}

// initConfig loads .env and the optional config file into viper.
func initConfig() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	if file := viper.GetString("config"); file != "" {
		viper.SetConfigFile(file)
	} else {
		viper.SetConfigName("skedule")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// loadProfile builds and validates the profile from flags, environment and config file.
func loadProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:               viper.GetString("mode"),
		Addr:               viper.GetString("addr"),
		Port:               viper.GetInt("port"),
		Data:               viper.GetString("data"),
		Driver:             viper.GetString("driver"),
		DSN:                viper.GetString("dsn"),
		Version:            version,
		Timezone:           viper.GetString("timezone"),
		JWTSecret:          viper.GetString("jwt-secret"),
		StoreTimeout:       viper.GetDuration("store-timeout"),
		TitleMatch:         viper.GetString("title-match"),
		SessionIdleTTL:     viper.GetDuration("session-idle-ttl"),
		RateLimitPerSecond: viper.GetFloat64("rate-limit"),
		RateLimitBurst:     viper.GetInt("rate-burst"),
		AILLMProvider:      viper.GetString("ai-llm-provider"),
		AILLMModel:         viper.GetString("ai-llm-model"),
		AIAPIKey:           viper.GetString("ai-api-key"),
		AIBaseURL:          viper.GetString("ai-base-url"),
		AITemperature:      float32(viper.GetFloat64("ai-temperature")),
		SpeechEnabled:      viper.GetBool("speech-enabled"),
		SpeechSTTModel:     viper.GetString("speech-stt-model"),
		SpeechTTSModel:     viper.GetString("speech-tts-model"),
		SpeechVoice:        viper.GetString("speech-voice"),
		SpeechLanguage:     viper.GetString("speech-language"),
		SpeechMaxWorkers:   viper.GetInt64("speech-workers"),
	}
	p.FromEnv()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	setupLogger(p, os.Stderr)
	return p, nil
}

// setupLogger installs the default logger: JSON in prod, text otherwise.
// Logs always go to w so stdout stays free for the MCP transport.
func setupLogger(p *profile.Profile, w *os.File) {
	level := slog.LevelInfo
	if p.Mode == "dev" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if p.IsDev() {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}
