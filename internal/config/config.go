package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the feedback service.
type Config struct {
	Service   ServiceConfig
	Server    ServerConfig
	Log       LogConfig
	Feedback  FeedbackConfig
	Redis     RedisConfig
	Telemetry TelemetryConfig
	AI        AIConfig
}

type ServiceConfig struct {
	Name    string
	Version string
}

type ServerConfig struct {
	Host        string
	Port        int
	Debug       bool
	CORSOrigins []string
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LogConfig struct {
	Level string
	File  string
}

type FeedbackConfig struct {
	Strategy       string
	DetailedPrompt bool
}

// RedisConfig is optional; an empty URL disables the completion cache and
// the request rate limiter.
type RedisConfig struct {
	URL                string
	CompletionCacheTTL time.Duration
	RateLimitPerMinute int
}

type TelemetryConfig struct {
	OTLPEndpoint string
}

type AIConfig struct {
	Provider          string
	MaxTokens         int
	Temperature       float64
	Timeout           time.Duration
	RetryDelay        time.Duration
	RequestsPerMinute int
	HealthProbeTTL    time.Duration
	Gemini            GeminiConfig
	OpenAI            OpenAIConfig
	Anthropic         AnthropicConfig
	Ollama            OllamaConfig
	VLLM              VLLMConfig
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type VLLMConfig struct {
	BaseURL string
	Model   string
	APIKey  string
}

// Configured reports whether the selected provider has the credentials or
// endpoint it needs to be constructed.
func (a AIConfig) Configured() bool {
	switch a.Provider {
	case "gemini":
		return a.Gemini.APIKey != ""
	case "openai":
		return a.OpenAI.APIKey != ""
	case "anthropic":
		return a.Anthropic.APIKey != ""
	case "ollama":
		return a.Ollama.BaseURL != ""
	case "vllm":
		return a.VLLM.BaseURL != "" && a.VLLM.Model != ""
	case "mock":
		return true
	default:
		return false
	}
}

var validProviders = map[string]bool{
	"gemini":    true,
	"openai":    true,
	"anthropic": true,
	"ollama":    true,
	"vllm":      true,
	"mock":      true,
}

var validStrategies = map[string]bool{
	"deterministic": true,
	"external":      true,
}

var validLogLevels = map[string]bool{
	"DEBUG":   true,
	"INFO":    true,
	"WARN":    true,
	"WARNING": true,
	"ERROR":   true,
}

// LoadDotEnv loads variables from the given .env files (".env" when none are
// given) without overriding the real environment. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any value is invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:    envString("SERVICE_NAME", "llm-feedback-service"),
			Version: envString("SERVICE_VERSION", "1.0.0"),
		},
		Server: ServerConfig{
			Host:        envString("HOST", "0.0.0.0"),
			Port:        envInt("PORT", 8003),
			Debug:       envBool("DEBUG", false),
			CORSOrigins: envList("CORS_ORIGINS", []string{"*"}),
		},
		Log: LogConfig{
			Level: strings.ToUpper(envString("LOG_LEVEL", "INFO")),
			File:  os.Getenv("LOG_FILE"),
		},
		Feedback: FeedbackConfig{
			Strategy:       envString("FEEDBACK_STRATEGY", "deterministic"),
			DetailedPrompt: envBool("LLM_DETAILED_PROMPT", false),
		},
		Redis: RedisConfig{
			URL:                os.Getenv("REDIS_URL"),
			CompletionCacheTTL: envDuration("COMPLETION_CACHE_TTL", 24*time.Hour),
			RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 60),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
		AI: AIConfig{
			Provider:          envString("LLM_PROVIDER", "gemini"),
			MaxTokens:         envInt("LLM_MAX_TOKENS", 1024),
			Temperature:       envFloat("LLM_TEMPERATURE", 0.7),
			Timeout:           envDurationSecs("LLM_TIMEOUT_SECONDS", 10*time.Second),
			RetryDelay:        envDuration("LLM_RETRY_DELAY", 2*time.Second),
			RequestsPerMinute: envInt("LLM_REQUESTS_PER_MINUTE", 2),
			HealthProbeTTL:    envDuration("HEALTH_PROBE_TTL", 30*time.Second),
			Gemini: GeminiConfig{
				APIKey:  os.Getenv("GOOGLE_API_KEY"),
				Model:   os.Getenv("GEMINI_MODEL"),
				BaseURL: os.Getenv("GEMINI_BASE_URL"),
			},
			OpenAI: OpenAIConfig{
				APIKey:  os.Getenv("OPENAI_API_KEY"),
				Model:   envString("OPENAI_MODEL", "gpt-4o-mini"),
				BaseURL: os.Getenv("OPENAI_BASE_URL"),
			},
			Anthropic: AnthropicConfig{
				APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
				Model:   envString("ANTHROPIC_MODEL", "claude-haiku-4-5-20251001"),
				BaseURL: os.Getenv("ANTHROPIC_BASE_URL"),
			},
			Ollama: OllamaConfig{
				BaseURL: envString("OLLAMA_BASE_URL", "http://localhost:11434/v1"),
				Model:   envString("OLLAMA_MODEL", "llama3"),
			},
			VLLM: VLLMConfig{
				BaseURL: envString("VLLM_BASE_URL", "http://localhost:8000/v1"),
				Model:   os.Getenv("VLLM_MODEL"),
				APIKey:  os.Getenv("VLLM_API_KEY"),
			},
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of DEBUG, INFO, WARNING, ERROR; got %q", c.Log.Level)
	}

	if !validStrategies[c.Feedback.Strategy] {
		return fmt.Errorf("FEEDBACK_STRATEGY must be one of deterministic, external; got %q", c.Feedback.Strategy)
	}

	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("LLM_PROVIDER must be one of gemini, openai, anthropic, ollama, vllm, mock; got %q", c.AI.Provider)
	}

	if c.AI.MaxTokens < 1 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive, got %d", c.AI.MaxTokens)
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be between 0 and 2, got %v", c.AI.Temperature)
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT_SECONDS must be positive")
	}
	if c.AI.RequestsPerMinute < 0 {
		return fmt.Errorf("LLM_REQUESTS_PER_MINUTE must not be negative, got %d", c.AI.RequestsPerMinute)
	}

	if c.Redis.URL != "" && !strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		return fmt.Errorf("REDIS_URL must start with redis:// or rediss://, got %q", c.Redis.URL)
	}

	// Credentials are only mandatory when the external path is active.
	if c.Feedback.Strategy == "external" && !c.AI.Configured() {
		switch c.AI.Provider {
		case "gemini":
			return fmt.Errorf("GOOGLE_API_KEY is required when FEEDBACK_STRATEGY is external and LLM_PROVIDER is gemini")
		case "openai":
			return fmt.Errorf("OPENAI_API_KEY is required when FEEDBACK_STRATEGY is external and LLM_PROVIDER is openai")
		case "anthropic":
			return fmt.Errorf("ANTHROPIC_API_KEY is required when FEEDBACK_STRATEGY is external and LLM_PROVIDER is anthropic")
		case "ollama":
			return fmt.Errorf("OLLAMA_BASE_URL is required when LLM_PROVIDER is ollama")
		case "vllm":
			return fmt.Errorf("VLLM_BASE_URL and VLLM_MODEL are required when LLM_PROVIDER is vllm")
		}
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
