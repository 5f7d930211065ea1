package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Store is "postgres" or "memory"; the memory store always uses the in-process notifier.
	Store    string         `yaml:"store"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Mongo    MongoConfig    `yaml:"mongo"`
	HTTP     HTTPConfig     `yaml:"http"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Log      LogConfig      `yaml:"log"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// MongoConfig enables the mutation audit trail when URI is set.
type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

type RealtimeConfig struct {
	// Notifier is "amqp" (fanout through RabbitMQ fed by the change relay) or "inproc"
	// (the api process listens on postgres itself).
	Notifier        string        `yaml:"notifier"`
	DebounceWindow  time.Duration `yaml:"debounce_window"`
	DisconnectGrace time.Duration `yaml:"disconnect_grace"`
	ProbeInterval   time.Duration `yaml:"probe_interval"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

const (
	NotifierAMQP   = "amqp"
	NotifierInproc = "inproc"

	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Load reads the yaml file, then applies .env and MENU_* environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	// .env is optional
	_ = godotenv.Load()
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used for any key the file leaves out.
func Default() *Config {
	return &Config{
		Store:    StorePostgres,
		Database: DatabaseConfig{Host: "localhost", Port: 5432, User: "menu", Database: "menu"},
		RabbitMQ: RabbitMQConfig{Host: "localhost", Port: 5672, User: "guest", Password: "guest"},
		Mongo:    MongoConfig{Database: "menu_audit"},
		HTTP:     HTTPConfig{Port: 3000},
		Realtime: RealtimeConfig{
			Notifier:        NotifierAMQP,
			DebounceWindow:  500 * time.Millisecond,
			DisconnectGrace: 5 * time.Second,
			ProbeInterval:   10 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

func (c *Config) Validate() error {
	if c.Store != StorePostgres && c.Store != StoreMemory {
		return fmt.Errorf("invalid config: store must be %q or %q", StorePostgres, StoreMemory)
	}
	if c.Database.Host == "" {
		return errors.New("invalid config: missing database host")
	}
	if c.Realtime.Notifier != NotifierAMQP && c.Realtime.Notifier != NotifierInproc {
		return fmt.Errorf("invalid config: realtime.notifier must be %q or %q", NotifierAMQP, NotifierInproc)
	}
	if c.Realtime.Notifier == NotifierAMQP && c.RabbitMQ.Host == "" {
		return errors.New("invalid config: missing rabbitmq host")
	}
	if c.Realtime.DebounceWindow <= 0 {
		return errors.New("invalid config: realtime.debounce_window must be positive")
	}
	if c.Realtime.DisconnectGrace <= 0 || c.Realtime.ProbeInterval <= 0 {
		return errors.New("invalid config: realtime grace and probe interval must be positive")
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Store, "MENU_STORE")

	setString(&cfg.Database.Host, "MENU_DB_HOST")
	setInt(&cfg.Database.Port, "MENU_DB_PORT")
	setString(&cfg.Database.User, "MENU_DB_USER")
	setString(&cfg.Database.Password, "MENU_DB_PASSWORD")
	setString(&cfg.Database.Database, "MENU_DB_NAME")

	setString(&cfg.RabbitMQ.Host, "MENU_RABBITMQ_HOST")
	setInt(&cfg.RabbitMQ.Port, "MENU_RABBITMQ_PORT")
	setString(&cfg.RabbitMQ.User, "MENU_RABBITMQ_USER")
	setString(&cfg.RabbitMQ.Password, "MENU_RABBITMQ_PASSWORD")

	setString(&cfg.Mongo.URI, "MENU_MONGO_URI")
	setString(&cfg.Mongo.Database, "MENU_MONGO_DATABASE")

	setInt(&cfg.HTTP.Port, "MENU_HTTP_PORT")
	setString(&cfg.Realtime.Notifier, "MENU_NOTIFIER")
	setDuration(&cfg.Realtime.DebounceWindow, "MENU_DEBOUNCE_WINDOW")
	setString(&cfg.Log.Level, "MENU_LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
