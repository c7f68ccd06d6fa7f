package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Planner  PlannerConfig  `yaml:"planner"`
	Sources  SourcesConfig  `yaml:"sources"`
	AI       AIConfig       `yaml:"ai"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address     string   `yaml:"address"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	PlanningTopic      string   `yaml:"planning_topic"`
	PlanEventsTopic    string   `yaml:"plan_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

const (
	DispatchInline = "inline"
	DispatchQueue  = "queue"
)

type PlannerConfig struct {
	// Dispatch is "inline" (run in the API process) or "queue" (hand off to the worker via kafka).
	Dispatch                string `yaml:"dispatch"`
	OptimizerTimeoutSeconds int    `yaml:"optimizer_timeout_seconds"`
	RunLockTTLSeconds       int    `yaml:"run_lock_ttl_seconds"`
}

func (p PlannerConfig) OptimizerTimeout() time.Duration {
	return time.Duration(p.OptimizerTimeoutSeconds) * time.Second
}

func (p PlannerConfig) RunLockTTL() time.Duration {
	return time.Duration(p.RunLockTTLSeconds) * time.Second
}

type SourcesConfig struct {
	RapidAPIKey       string  `yaml:"rapidapi_key"`
	KiwiHost          string  `yaml:"kiwi_host"`
	BookingHost       string  `yaml:"booking_host"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	CacheTTLSeconds   int     `yaml:"cache_ttl_seconds"`
}

func (s SourcesConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

func (s SourcesConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

type AIConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// LoadConfig reads the YAML file at path, then lets the environment (and an
// optional .env file) override secrets.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	overrideString(&c.Sources.RapidAPIKey, "RAPIDAPI_KEY")
	overrideString(&c.Sources.KiwiHost, "RAPIDAPI_HOST_KIWI")
	overrideString(&c.Sources.BookingHost, "RAPIDAPI_HOST_BOOKING")
	overrideString(&c.AI.Provider, "AI_PROVIDER")
	overrideString(&c.AI.Model, "AI_MODEL")
	overrideString(&c.Auth.JWTSecret, "JWT_SECRET")
	overrideString(&c.Database.Password, "DATABASE_PASSWORD")
	overrideString(&c.Redis.Password, "REDIS_PASSWORD")
	overrideString(&c.Log.Level, "LOG_LEVEL")

	if c.AI.APIKey == "" {
		switch strings.ToLower(c.AI.Provider) {
		case "openai":
			c.AI.APIKey = os.Getenv("OPENAI_API_KEY")
		default:
			c.AI.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
}

func (c *Config) applyDefaults() {
	setDefault(&c.HTTP.Address, ":8080")
	setDefault(&c.Database.SSLMode, "disable")
	setDefault(&c.Kafka.PlanningTopic, "trip-plans.requested")
	setDefault(&c.Kafka.PlanEventsTopic, "trip-plans.events")
	setDefault(&c.Kafka.NotificationsTopic, "trip-plans.notifications")
	setDefault(&c.Kafka.GroupID, "trip-planner-worker")
	setDefault(&c.Planner.Dispatch, DispatchInline)
	setDefault(&c.Sources.KiwiHost, "kiwi-com-cheap-flights.p.rapidapi.com")
	setDefault(&c.Sources.BookingHost, "booking-com.p.rapidapi.com")
	setDefault(&c.AI.Provider, "gemini")
	setDefault(&c.Log.Level, "info")

	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Planner.OptimizerTimeoutSeconds == 0 {
		c.Planner.OptimizerTimeoutSeconds = 60
	}
	if c.Planner.RunLockTTLSeconds == 0 {
		c.Planner.RunLockTTLSeconds = 600
	}
	if c.Sources.TimeoutSeconds == 0 {
		c.Sources.TimeoutSeconds = 15
	}
	if c.Sources.RequestsPerSecond == 0 {
		c.Sources.RequestsPerSecond = 5
	}
	if c.Sources.CacheTTLSeconds == 0 {
		c.Sources.CacheTTLSeconds = 1800
	}
	if c.AI.Model == "" {
		if strings.EqualFold(c.AI.Provider, "openai") {
			c.AI.Model = "gpt-4o-mini"
		} else {
			c.AI.Model = "gemini-1.5-flash"
		}
	}
}

func (c *Config) validate() error {
	switch c.Planner.Dispatch {
	case DispatchInline:
	case DispatchQueue:
		if len(c.Kafka.Brokers) == 0 {
			return errors.New("planner.dispatch=queue requires kafka.brokers")
		}
	default:
		return fmt.Errorf("unknown planner.dispatch %q", c.Planner.Dispatch)
	}
	switch strings.ToLower(c.AI.Provider) {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unsupported ai.provider %q, use 'gemini' or 'openai'", c.AI.Provider)
	}
	return nil
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDefault(dst *string, fallback string) {
	if *dst == "" {
		*dst = fallback
	}
}
