package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting the service reads from the environment.
type Config struct {
	Server ServerConfig
	Redis  RedisConfig
	AI     AIConfig
	Safety SafetyConfig
	TTL    TTLConfig
}

// Load parses the whole configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	safety, err := loadSafetyConfig()
	if err != nil {
		return nil, err
	}

	ttl, err := loadTTLConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		Redis:  loadRedisConfig(),
		AI:     ai,
		Safety: safety,
		TTL:    ttl,
	}, nil
}

// ServerConfig describes the HTTP listener and its edge policies.
type ServerConfig struct {
	Addr        string
	LogMode     string
	FrontendURL string

	RateLimitWindow   time.Duration
	RateLimitRequests int
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	mode := getEnvOrDefault("APP_ENV", "development")

	cfg := ServerConfig{
		LogMode:           mode,
		FrontendURL:       getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
		RateLimitWindow:   15 * time.Minute,
		RateLimitRequests: 100,
	}

	if override, err := parseOptionalIntEnv("RATE_LIMIT_WINDOW_MS"); err != nil {
		return ServerConfig{}, err
	} else if override != nil && *override > 0 {
		cfg.RateLimitWindow = time.Duration(*override) * time.Millisecond
	}
	if override, err := parseOptionalIntEnv("RATE_LIMIT_MAX_REQUESTS"); err != nil {
		return ServerConfig{}, err
	} else if override != nil && *override > 0 {
		cfg.RateLimitRequests = *override
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" verbatim.
		cfg.Addr = port
		return cfg, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	cfg.Addr = ":" + port
	return cfg, nil
}

// RedisConfig describes the ephemeral store connection.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis address was supplied; without one the
// service runs on the in-memory store.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

func loadRedisConfig() RedisConfig {
	db := 0
	if raw := strings.TrimSpace(os.Getenv("REDIS_DB")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			db = parsed
		}
	}
	return RedisConfig{
		Addr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		Password: strings.TrimSpace(os.Getenv("REDIS_PASSWORD")),
		DB:       db,
	}
}

// AIConfig describes the reply/prompt generation model.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
	Timeout     time.Duration
}

// Enabled reports whether the required credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel constructs the configured model instance.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("generation model credentials missing: provide ARK_API_KEY + ARK_MODEL or the AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	timeout := 15 * time.Second
	if override, err := parseOptionalIntEnv("AI_TIMEOUT_SECONDS"); err != nil {
		return AIConfig{}, err
	} else if override != nil && *override > 0 {
		timeout = time.Duration(*override) * time.Second
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
		Timeout:     timeout,
	}, nil
}

// SafetyConfig describes the external moderation classifier.
type SafetyConfig struct {
	OpenAIAPIKey string
	Timeout      time.Duration
}

// ModerationEnabled reports whether the external moderation path can run at
// all; without credentials the gate starts in permanent local-fallback mode.
func (c SafetyConfig) ModerationEnabled() bool {
	return c.OpenAIAPIKey != ""
}

func loadSafetyConfig() (SafetyConfig, error) {
	timeout := 5 * time.Second
	if override, err := parseOptionalIntEnv("MODERATION_TIMEOUT_SECONDS"); err != nil {
		return SafetyConfig{}, err
	} else if override != nil && *override > 0 {
		timeout = time.Duration(*override) * time.Second
	}

	return SafetyConfig{
		OpenAIAPIKey: strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		Timeout:      timeout,
	}, nil
}

// TTLConfig carries the per-namespace expiry windows.
type TTLConfig struct {
	Post    time.Duration
	Chat    time.Duration
	Journal time.Duration
	Mood    time.Duration
}

func loadTTLConfig() (TTLConfig, error) {
	ttl := TTLConfig{
		Post:    time.Hour,
		Chat:    time.Hour,
		Journal: 24 * time.Hour,
		Mood:    30 * 24 * time.Hour,
	}

	overrides := []struct {
		env  string
		dest *time.Duration
	}{
		{"POST_TTL_SECONDS", &ttl.Post},
		{"CHAT_TTL_SECONDS", &ttl.Chat},
		{"JOURNAL_TTL_SECONDS", &ttl.Journal},
		{"MOOD_TTL_SECONDS", &ttl.Mood},
	}
	for _, o := range overrides {
		seconds, err := parseOptionalIntEnv(o.env)
		if err != nil {
			return TTLConfig{}, err
		}
		if seconds != nil {
			if *seconds < 1 {
				return TTLConfig{}, fmt.Errorf("invalid %s value %d: must be positive", o.env, *seconds)
			}
			*o.dest = time.Duration(*seconds) * time.Second
		}
	}

	return ttl, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
