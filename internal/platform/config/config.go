package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fbkorg/chatbot-backend/internal/platform/fault"
	"github.com/fbkorg/chatbot-backend/internal/platform/logger"
)

// Config is assembled in three layers: built-in defaults, then an optional
// YAML file pointed to by CONFIG_PATH, then environment variables. Env wins
// so container deployments can override a checked-in file.
type Config struct {
	Port    string `yaml:"port"`
	LogMode string `yaml:"log_mode"`

	Postgres struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"ssl_mode"`
	} `yaml:"postgres"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
	} `yaml:"redis"`

	OpenAI struct {
		APIKey         string `yaml:"api_key"`
		BaseURL        string `yaml:"base_url"`
		ChatModel      string `yaml:"chat_model"`
		EmbedModel     string `yaml:"embed_model"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"openai"`

	Chat struct {
		RetrievalTopK       int     `yaml:"retrieval_top_k"`
		SimilarityThreshold float64 `yaml:"similarity_threshold"`
	} `yaml:"chat"`

	RateLimit struct {
		PerMinute int `yaml:"per_minute"`
	} `yaml:"rate_limit"`

	CORSAllowOrigins []string `yaml:"cors_allow_origins"`
}

func defaults() *Config {
	cfg := &Config{Port: "8080", LogMode: "development"}
	cfg.Postgres.Host = "localhost"
	cfg.Postgres.Port = "5432"
	cfg.Postgres.User = "postgres"
	cfg.Postgres.Name = "fbk_chatbot"
	cfg.Postgres.SSLMode = "disable"
	cfg.OpenAI.ChatModel = "gpt-oss-20b"
	cfg.OpenAI.EmbedModel = "nomic-embed-text-v1.5"
	cfg.OpenAI.TimeoutSeconds = 60
	cfg.Chat.RetrievalTopK = 5
	cfg.Chat.SimilarityThreshold = 0.45
	cfg.RateLimit.PerMinute = 20
	return cfg
}

// Load builds the effective config. The only hard requirement is the
// OpenAI API key; everything else has a workable default.
func Load(log *logger.Logger) (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fault.Configuration(fmt.Sprintf("read config file %s: %v", path, err))
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fault.Configuration(fmt.Sprintf("parse config file %s: %v", path, err))
		}
		log.Info("Loaded config file", "path", path)
	}

	applyEnv(cfg, log)

	if strings.TrimSpace(cfg.OpenAI.APIKey) == "" {
		return nil, fault.Configuration("OPENAI_API_KEY is required")
	}
	return cfg, nil
}

func applyEnv(cfg *Config, log *logger.Logger) {
	overrideString(&cfg.Port, "PORT", log)
	overrideString(&cfg.LogMode, "LOG_MODE", log)

	overrideString(&cfg.Postgres.Host, "POSTGRES_HOST", log)
	overrideString(&cfg.Postgres.Port, "POSTGRES_PORT", log)
	overrideString(&cfg.Postgres.User, "POSTGRES_USER", log)
	overrideString(&cfg.Postgres.Password, "POSTGRES_PASSWORD", log)
	overrideString(&cfg.Postgres.Name, "POSTGRES_DB", log)
	overrideString(&cfg.Postgres.SSLMode, "POSTGRES_SSLMODE", log)

	overrideString(&cfg.Redis.Addr, "REDIS_ADDR", log)
	overrideString(&cfg.Redis.Password, "REDIS_PASSWORD", log)

	overrideString(&cfg.OpenAI.APIKey, "OPENAI_API_KEY", log)
	overrideString(&cfg.OpenAI.BaseURL, "OPENAI_BASE_URL", log)
	overrideString(&cfg.OpenAI.ChatModel, "OPENAI_CHAT_MODEL", log)
	overrideString(&cfg.OpenAI.EmbedModel, "OPENAI_EMBED_MODEL", log)
	overrideInt(&cfg.OpenAI.TimeoutSeconds, "OPENAI_TIMEOUT_SECONDS", log)

	overrideInt(&cfg.Chat.RetrievalTopK, "RETRIEVAL_TOP_K", log)
	overrideFloat(&cfg.Chat.SimilarityThreshold, "SIMILARITY_THRESHOLD", log)
	overrideInt(&cfg.RateLimit.PerMinute, "RATE_LIMIT_PER_MINUTE", log)

	if raw, ok := os.LookupEnv("CORS_ALLOW_ORIGINS"); ok {
		cfg.CORSAllowOrigins = cfg.CORSAllowOrigins[:0]
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSAllowOrigins = append(cfg.CORSAllowOrigins, origin)
			}
		}
	}
}

func overrideString(dst *string, key string, log *logger.Logger) {
	if val, ok := os.LookupEnv(key); ok {
		*dst = val
		log.Debug("Environment override applied", "env_var", key)
	}
}

func overrideInt(dst *int, key string, log *logger.Logger) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Warn("Environment variable is not an int, ignoring", "env_var", key, "value", val)
		return
	}
	*dst = i
	log.Debug("Environment override applied", "env_var", key)
}

func overrideFloat(dst *float64, key string, log *logger.Logger) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		log.Warn("Environment variable is not a number, ignoring", "env_var", key, "value", val)
		return
	}
	*dst = f
	log.Debug("Environment override applied", "env_var", key)
}
