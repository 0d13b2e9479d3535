package config

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type HTTPConfig struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8008"`
	BaseURL         string        `yaml:"base_url" env:"BASE_URL" env-default:"http://127.0.0.1:8008"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"5s"`
	APIKey          string        `yaml:"api_key" env:"API_KEY"`
}

type DBConfig struct {
	Driver string `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite"`
	DSN    string `yaml:"dsn" env:"DB_DSN" env-default:"task-tracker.db"`
}

type JWTConfig struct {
	Secret   string        `yaml:"secret" env:"JWT_SECRET" env-default:"development-insecure-secret-change-me"`
	Issuer   string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"task-tracker-api"`
	Audience string        `yaml:"audience" env:"JWT_AUDIENCE" env-default:"task-tracker-clients"`
	TTL      time.Duration `yaml:"ttl" env:"JWT_TTL" env-default:"24h"`
}

type MailConfig struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"MAIL_FROM" env-default:"no-reply@yourdomain.com"`
}

type Config struct {
	LogLevel        string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"INFO"`
	HTTP            HTTPConfig    `yaml:"http"`
	DB              DBConfig      `yaml:"db"`
	JWT             JWTConfig     `yaml:"jwt"`
	Mail            MailConfig    `yaml:"mail"`
	UploadDir       string        `yaml:"upload_dir" env:"UPLOAD_DIR" env-default:"uploads"`
	MetricsCacheTTL time.Duration `yaml:"metrics_cache_ttl" env:"METRICS_CACHE_TTL" env-default:"1m"`
}

// Load reads the YAML file at configPath, falling back to environment
// variables when the path is empty or the file does not exist.
func Load(configPath string) (Config, error) {
	var cfg Config

	if configPath == "" {
		err := cleanenv.ReadEnv(&cfg)
		return cfg, err
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		var pe *os.PathError
		if errors.As(err, &pe) {
			err := cleanenv.ReadEnv(&cfg)
			return cfg, err
		}
		return cfg, err
	}

	return cfg, nil
}

func MustLoad(configPath string) Config {
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config %q: %s", configPath, err)
	}
	return cfg
}
