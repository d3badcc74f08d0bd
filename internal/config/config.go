package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ResponderGemini = "gemini"
	ResponderGPT    = "gpt"

	TranscriberWhisper  = "whisper"
	TranscriberDeepgram = "deepgram"

	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config is read once at startup and passed by value into constructors.
type Config struct {
	Mock         bool          `mapstructure:"mock"`
	Responder    string        `mapstructure:"responder"`
	Transcriber  string        `mapstructure:"transcriber"`
	CallTimeout  time.Duration `mapstructure:"call_timeout"`
	SystemPrompt string        `mapstructure:"system_prompt"`
	OutputPath   string        `mapstructure:"output_path"`

	History    HistoryConfig    `mapstructure:"history"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	ElevenLabs ElevenLabsConfig `mapstructure:"elevenlabs"`
	Deepgram   DeepgramConfig   `mapstructure:"deepgram"`
	Server     ServerConfig     `mapstructure:"server"`
	Archive    ArchiveConfig    `mapstructure:"archive"`
	Notify     NotifyConfig     `mapstructure:"notify"`
}

type HistoryConfig struct {
	Backend        string `mapstructure:"backend"`          // file | postgres | redis
	Path           string `mapstructure:"path"`             // file backend
	MaxTurns       int    `mapstructure:"max_turns"`        // stored turns (N)
	PromptTurns    int    `mapstructure:"prompt_turns"`     // turns sent to the model
	PromptMaxChars int    `mapstructure:"prompt_max_chars"` // char budget for those turns
	Session        string `mapstructure:"session"`          // row/key scope for shared backends
	PostgresDSN    string `mapstructure:"postgres_dsn"`
	RedisAddr      string `mapstructure:"redis_addr"`
	RedisPrefix    string `mapstructure:"redis_prefix"`
}

type OpenAIConfig struct {
	APIKey          string  `mapstructure:"api_key"`
	Model           string  `mapstructure:"model"`
	TranscribeModel string  `mapstructure:"transcribe_model"`
	Temperature     float32 `mapstructure:"temperature"`
	BaseURL         string  `mapstructure:"base_url"`
}

type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type ElevenLabsConfig struct {
	APIKey          string  `mapstructure:"api_key"`
	VoiceID         string  `mapstructure:"voice_id"`
	ModelID         string  `mapstructure:"model_id"`
	Stability       float64 `mapstructure:"stability"`
	SimilarityBoost float64 `mapstructure:"similarity_boost"`
	BaseURL         string  `mapstructure:"base_url"`
}

type DeepgramConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	Language string `mapstructure:"language"`
	BaseURL  string `mapstructure:"base_url"`
}

type ServerConfig struct {
	Port      string `mapstructure:"port"`
	AudioDir  string `mapstructure:"audio_dir"`
	RateLimit int    `mapstructure:"rate_limit"` // requests per minute per IP
	MaxUpload int64  `mapstructure:"max_upload"` // bytes
	// AudioRetention is how long reply files stay in AudioDir; 0 keeps them forever.
	AudioRetention time.Duration `mapstructure:"audio_retention"`
}

// ArchiveConfig enables S3 upload of reply audio when Bucket is set.
type ArchiveConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Secure    bool   `mapstructure:"secure"`
}

func (a ArchiveConfig) Enabled() bool { return a.Bucket != "" }

// NotifyConfig enables Telegram failure alerts when both fields are set.
type NotifyConfig struct {
	TelegramToken string `mapstructure:"telegram_token"`
	ChatID        int64  `mapstructure:"chat_id"`
}

func (n NotifyConfig) Enabled() bool { return n.TelegramToken != "" && n.ChatID != 0 }

// bare names accepted for existing .env files
var envAliases = map[string][]string{
	"openai.api_key":       {"OPENAI_API_KEY"},
	"openai.model":         {"OPENAI_MODEL"},
	"gemini.api_key":       {"GEMINI_API_KEY"},
	"elevenlabs.api_key":   {"ELEVEN_API_KEY", "ELEVENLABS_API_KEY"},
	"elevenlabs.voice_id":  {"ELEVEN_VOICE_ID"},
	"deepgram.api_key":     {"DEEPGRAM_API_KEY"},
	"history.postgres_dsn": {"DATABASE_URL"},
	"server.port":          {"PORT"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mock", false)
	v.SetDefault("responder", ResponderGPT)
	v.SetDefault("transcriber", TranscriberWhisper)
	v.SetDefault("call_timeout", "30s")
	v.SetDefault("system_prompt", "You are a helpful voice AI assistant.")
	v.SetDefault("output_path", "ai_reply.mp3")

	v.SetDefault("history.backend", BackendFile)
	v.SetDefault("history.path", "chat_context.json")
	v.SetDefault("history.max_turns", 20)
	v.SetDefault("history.prompt_turns", 10) // five exchanges
	v.SetDefault("history.prompt_max_chars", 60000)
	v.SetDefault("history.session", "default")
	v.SetDefault("history.postgres_dsn", "")
	v.SetDefault("history.redis_addr", "localhost:6379")
	v.SetDefault("history.redis_prefix", "voicechat")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.transcribe_model", "whisper-1")
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.base_url", "")

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-1.5-flash")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")

	v.SetDefault("elevenlabs.api_key", "")
	v.SetDefault("elevenlabs.voice_id", "21m00Tcm4TlvDq8ikWAM") // Rachel
	v.SetDefault("elevenlabs.model_id", "")
	v.SetDefault("elevenlabs.stability", 0.3)
	v.SetDefault("elevenlabs.similarity_boost", 0.7)
	v.SetDefault("elevenlabs.base_url", "https://api.elevenlabs.io/v1")

	v.SetDefault("deepgram.api_key", "")
	v.SetDefault("deepgram.model", "nova-2")
	v.SetDefault("deepgram.language", "en")
	v.SetDefault("deepgram.base_url", "https://api.deepgram.com/v1")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.audio_dir", "replies")
	v.SetDefault("server.rate_limit", 30)
	v.SetDefault("server.max_upload", 25<<20)
	v.SetDefault("server.audio_retention", 24*time.Hour)

	v.SetDefault("archive.endpoint", "")
	v.SetDefault("archive.access_key", "")
	v.SetDefault("archive.secret_key", "")
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.region", "")
	v.SetDefault("archive.secure", true)

	v.SetDefault("notify.telegram_token", "")
	v.SetDefault("notify.chat_id", 0)
}

// Load reads .env (if present), an optional YAML file and VOICECHAT_* environment
// variables, in increasing priority.
func Load(configPath string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	v.SetEnvPrefix("VOICECHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, aliases := range envAliases {
		names := append([]string{"VOICECHAT_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var ErrInvalidConfig = errors.New("invalid config")

// Validate checks enums and bounds. Credentials are checked by provider
// construction so that mock mode never needs them.
func (c Config) Validate() error {
	switch c.Responder {
	case ResponderGemini, ResponderGPT:
	default:
		return fmt.Errorf("%w: responder %q (want gemini or gpt)", ErrInvalidConfig, c.Responder)
	}

	switch c.Transcriber {
	case TranscriberWhisper, TranscriberDeepgram:
	default:
		return fmt.Errorf("%w: transcriber %q (want whisper or deepgram)", ErrInvalidConfig, c.Transcriber)
	}

	switch c.History.Backend {
	case BackendFile, BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("%w: history backend %q", ErrInvalidConfig, c.History.Backend)
	}

	if c.History.MaxTurns < 2 {
		return fmt.Errorf("%w: history.max_turns must hold at least one exchange, got %d", ErrInvalidConfig, c.History.MaxTurns)
	}
	if c.History.PromptTurns < 0 || c.History.PromptMaxChars < 0 {
		return fmt.Errorf("%w: history prompt limits must not be negative", ErrInvalidConfig)
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("%w: call_timeout must be positive, got %s", ErrInvalidConfig, c.CallTimeout)
	}
	if c.Server.AudioRetention < 0 {
		return fmt.Errorf("%w: server.audio_retention must not be negative", ErrInvalidConfig)
	}
	if c.History.Backend == BackendPostgres && c.History.PostgresDSN == "" {
		return fmt.Errorf("%w: history.postgres_dsn is required for the postgres backend", ErrInvalidConfig)
	}
	return nil
}
