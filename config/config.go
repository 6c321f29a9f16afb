package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// DefaultJWTSecret is only acceptable for local development.
const DefaultJWTSecret = "super-secret-key"

type Config struct {
	Port          string `validate:"required,numeric"`
	DatabaseURL   string
	SQLitePath    string        `validate:"required_without=DatabaseURL"`
	JWTSecret     string        `validate:"required,min=8"`
	TokenTTL      time.Duration `validate:"gt=0"`
	UploadDir     string        `validate:"required"`
	AMQPURL       string        `validate:"omitempty,url"`
	OIDCIssuer    string        `validate:"required_with=OIDCClientID"`
	OIDCClientID  string        `validate:"required_with=OIDCIssuer"`
	MenuTimezone  string        `validate:"required"`
	GradebookPort string        `validate:"required,numeric"`
	GradebookDB   string        `validate:"required"`
}

// UsesDefaultSecret reports whether tokens are signed with the development key.
func (c Config) UsesDefaultSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}

// MenuLocation resolves MenuTimezone; Validate guarantees it parses.
func (c Config) MenuLocation() *time.Location {
	loc, err := time.LoadLocation(c.MenuTimezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Load reads an optional env file and then the process environment.
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	ttl, err := time.ParseDuration(getenv("TOKEN_TTL", "24h"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}

	cfg := Config{
		Port:          getenv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SQLitePath:    getenv("SQLITE_PATH", "restaurant.db"),
		JWTSecret:     getenv("JWT_SECRET_KEY", DefaultJWTSecret),
		TokenTTL:      ttl,
		UploadDir:     getenv("UPLOAD_DIR", "uploads"),
		AMQPURL:       os.Getenv("AMQP_URL"),
		OIDCIssuer:    os.Getenv("OIDC_ISSUER"),
		OIDCClientID:  os.Getenv("OIDC_CLIENT_ID"),
		MenuTimezone:  getenv("MENU_TIMEZONE", "Local"),
		GradebookPort: getenv("GRADEBOOK_PORT", "8081"),
		GradebookDB:   getenv("GRADEBOOK_DB", "gradebook.db"),
	}
	return cfg, cfg.Validate()
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	// the validator's timezone rule rejects "Local"
	if _, err := time.LoadLocation(c.MenuTimezone); err != nil {
		return fmt.Errorf("invalid MENU_TIMEZONE: %w", err)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
