package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Stripe   StripeConfig   `yaml:"stripe"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Mail     MailConfig     `yaml:"mail"`
	Logging  LoggingConfig  `yaml:"logging"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type HTTPConfig struct {
	Port          int     `yaml:"port"`
	AuthRateLimit float64 `yaml:"auth_rate_limit"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	TokenTTL  int    `yaml:"token_ttl_hours"`
}

type StorageConfig struct {
	Root      string `yaml:"root"`
	PublicURL string `yaml:"public_url"`
	SignKey   string `yaml:"sign_key"`
}

type StripeConfig struct {
	SecretKey  string `yaml:"secret_key"`
	RefreshURL string `yaml:"refresh_url"`
	ReturnURL  string `yaml:"return_url"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type MailConfig struct {
	PlunkAPIKey string `yaml:"plunk_api_key"`
	From        string `yaml:"from"`
	ReplyTo     string `yaml:"reply_to"`
	APIURL      string `yaml:"api_url"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

type WorkerConfig struct {
	DeadlineSweepSpec  string `yaml:"deadline_sweep_spec"`
	StatsRecomputeSpec string `yaml:"stats_recompute_spec"`
	PaymentExpirySpec  string `yaml:"payment_expiry_spec"`
}

// Load reads the YAML config file and applies environment overrides.
// A missing .env file is not an error; exported variables still win.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		App:  AppConfig{Name: "tgt-marketplace", Environment: "development", Version: "dev"},
		HTTP: HTTPConfig{Port: 8080, AuthRateLimit: 20},
		Database: DatabaseConfig{
			Host: "localhost", Port: 5432, User: "postgres", DBName: "tgt", SSLMode: "disable", MaxConns: 10,
		},
		Redis:   RedisConfig{Address: "localhost:6379"},
		Auth:    AuthConfig{TokenTTL: 72},
		Storage: StorageConfig{Root: "data/storage", PublicURL: "http://localhost:8080/files"},
		Gemini:  GeminiConfig{Model: "gemini-1.5-flash"},
		Mail:    MailConfig{APIURL: "https://api.useplunk.com/v1/send"},
		Logging: LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
		Worker: WorkerConfig{
			DeadlineSweepSpec:  "0 * * * *",
			StatsRecomputeSpec: "30 3 * * *",
			PaymentExpirySpec:  "*/15 * * * *",
		},
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Port = p
		}
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = p
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database.DBName = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Address = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("STORAGE_ROOT"); v != "" {
		cfg.Storage.Root = v
	}
	if v := os.Getenv("STORAGE_SIGN_KEY"); v != "" {
		cfg.Storage.SignKey = v
	}
	if v := os.Getenv("STRIPE_SECRET_KEY"); v != "" {
		cfg.Stripe.SecretKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("PLUNK_API_KEY"); v != "" {
		cfg.Mail.PlunkAPIKey = v
	}
	if v := os.Getenv("MAIL_FROM"); v != "" {
		cfg.Mail.From = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (JWT_SECRET) is required")
	}
	if c.Database.Host == "" || c.Database.DBName == "" {
		return errors.New("database host and dbname are required")
	}
	if c.Storage.SignKey == "" {
		return errors.New("storage.sign_key (STORAGE_SIGN_KEY) is required")
	}
	return nil
}
