package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"

	PaymentOmise   = "omise"
	PaymentSandbox = "sandbox"
)

type Env struct {
	AppAddr     string `envconfig:"APP_ADDR" default:":8080"`
	GinMode     string `envconfig:"GIN_MODE"`
	Timezone    string `envconfig:"APP_TIMEZONE" default:"Local"`
	CORSOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty bool   `envconfig:"LOG_PRETTY" default:"false"`

	StoreDriver   string `envconfig:"STORE_DRIVER" default:"mysql"`
	DBHost        string `envconfig:"DB_HOST" default:"127.0.0.1"`
	DBPort        int    `envconfig:"DB_PORT" default:"3306"`
	DBUser        string `envconfig:"DB_USER" default:"root"`
	DBPassword    string `envconfig:"DB_PASSWORD"`
	DBName        string `envconfig:"DB_NAME" default:"court_booking"`
	DBMaxOpen     int    `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"true"`

	JWTSecret       string        `envconfig:"JWT_SECRET" default:"super-secret-key-change-me"`
	JWTTTL          time.Duration `envconfig:"JWT_TTL" default:"24h"`
	SuperAdminEmail string        `envconfig:"SUPERADMIN_EMAIL"`

	PaymentProvider string `envconfig:"PAYMENT_PROVIDER" default:"sandbox"`
	OmisePublicKey  string `envconfig:"OMISE_PUBLIC_KEY"`
	OmiseSecretKey  string `envconfig:"OMISE_SECRET_KEY"`
	PaymentCurrency string `envconfig:"PAYMENT_CURRENCY" default:"thb"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisChannel  string `envconfig:"REDIS_CHANNEL" default:"courtreserve:changes"`

	RabbitURL      string `envconfig:"RABBITMQ_URL"`
	RabbitExchange string `envconfig:"RABBITMQ_EXCHANGE" default:"court.events"`

	TelegramToken       string `envconfig:"TELEGRAM_TOKEN"`
	TelegramAdminChatID int64  `envconfig:"TELEGRAM_ADMIN_CHAT_ID"`
}

// LoadEnv reads an optional .env file and then the process environment.
func LoadEnv() (Env, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Env{}, fmt.Errorf("load .env: %w", err)
	}
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return Env{}, fmt.Errorf("process env: %w", err)
	}
	env.StoreDriver = strings.ToLower(strings.TrimSpace(env.StoreDriver))
	env.PaymentProvider = strings.ToLower(strings.TrimSpace(env.PaymentProvider))
	if err := env.validate(); err != nil {
		return Env{}, err
	}
	return env, nil
}

func (e Env) validate() error {
	switch e.StoreDriver {
	case StoreMySQL, StoreMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMySQL, StoreMemory, e.StoreDriver)
	}
	switch e.PaymentProvider {
	case PaymentSandbox:
	case PaymentOmise:
		if e.OmisePublicKey == "" || e.OmiseSecretKey == "" {
			return errors.New("OMISE_PUBLIC_KEY and OMISE_SECRET_KEY are required for the omise provider")
		}
	default:
		return fmt.Errorf("PAYMENT_PROVIDER must be %q or %q, got %q", PaymentOmise, PaymentSandbox, e.PaymentProvider)
	}
	if strings.TrimSpace(e.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}

// Location resolves APP_TIMEZONE.
func (e Env) Location() (*time.Location, error) {
	if e.Timezone == "" || e.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(e.Timezone)
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS.
func (e Env) AllowedOrigins() []string {
	out := []string{}
	for _, o := range strings.Split(e.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (e Env) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s&multiStatements=true",
		e.DBUser, e.DBPassword, e.DBHost, e.DBPort, e.DBName)
}
