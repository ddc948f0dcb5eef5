package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigPath = "./config/config.yaml"

type Config struct {
	Env            string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer     `yaml:"http_server"`
	Postgres       `yaml:"postgres"`
	Redis          `yaml:"redis"`
	RabbitMQ       `yaml:"rabbitmq"`
	Tokens         `yaml:"tokens"`
	Password       `yaml:"password"`
	App            `yaml:"app"`
	BootstrapAdmin `yaml:"bootstrap_admin"`
	Email          `yaml:"email"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"5s"`
}

type Postgres struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"postgres"`
	Port     int    `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER" env-required:"true"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" env-required:"true"`
	DBName   string `yaml:"dbname" env:"POSTGRES_DB" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
	MaxConns int32  `yaml:"max_conns" env-default:"10"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"redis:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env-default:"0"`
}

type RabbitMQ struct {
	URL            string        `yaml:"url" env:"RABBITMQ_URL" env-required:"true"`
	QueueName      string        `yaml:"queue_name" env-default:"notifications"`
	PublishTimeout time.Duration `yaml:"publish_timeout" env-default:"3s"`
}

type Tokens struct {
	VerificationTokenTTL    time.Duration `yaml:"verification_token_ttl" env-default:"60m"`
	VerificationTokenSecret string        `yaml:"verification_token_secret" env:"VERIFICATION_TOKEN_SECRET" env-required:"true"`
	PasswordResetTTL        time.Duration `yaml:"password_reset_ttl" env-default:"60m"`
	PasswordResetThrottle   time.Duration `yaml:"password_reset_throttle" env-default:"60s"`
}

type Password struct {
	Algorithm  string `yaml:"algorithm" env-default:"bcrypt"`
	BcryptCost int    `yaml:"bcrypt_cost" env-default:"10"`
}

type App struct {
	BaseURL  string `yaml:"base_url" env:"APP_BASE_URL" env-default:"http://localhost:8080"`
	ResetURL string `yaml:"reset_url" env:"APP_RESET_URL" env-default:"http://localhost:3000/reset-password"`
}

type BootstrapAdmin struct {
	Name     string `yaml:"name" env-default:"Administrator"`
	Email    string `yaml:"email" env:"BOOTSTRAP_ADMIN_EMAIL"`
	Password string `yaml:"password" env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

type Email struct {
	Host     string `yaml:"host" env:"SMTP_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"SMTP_FROM"`
}

// MustLoad читает конфиг по пути из флага -config или CONFIG_PATH.
func MustLoad() *Config {
	cfg, err := Load(fetchConfigPath())
	if err != nil {
		panic(err)
	}

	return cfg
}

func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return &cfg, nil
}

// DSN builds the postgres connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode,
	)
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = defaultConfigPath
	}

	return res
}
