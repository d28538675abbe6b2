// Package config loads gatehouse settings from the environment, optionally
// seeded from .env.local / .env files in the working directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"gatehouse.org/internal/auth"
)

const (
	DefaultHTTPAddr     = ":5000"
	DefaultIssuer       = "gatehouse"
	DefaultCORSOrigins  = "http://localhost:5173"
	DefaultMaxBodyBytes = 1 << 20
)

// Config holds process-wide settings. AuthSecret is fixed at startup and must
// never be logged; use Summary for startup output.
type Config struct {
	HTTPAddr     string
	GRPCAddr     string
	AuthSecret   []byte
	BcryptCost   int
	TokenIssuer  string
	CORSOrigins  []string
	MaxBodyBytes int64
}

// Load reads .env files (existing environment wins) and builds a validated Config.
func Load() (*Config, error) {
	loadEnvFiles()

	secret, err := readSecret()
	if err != nil {
		return nil, err
	}
	cost, err := getEnvAsInt("GATEHOUSE_BCRYPT_COST", bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	maxBody, err := getEnvAsInt64("GATEHOUSE_MAX_BODY_BYTES", DefaultMaxBodyBytes)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:     getEnv("GATEHOUSE_HTTP_ADDR", DefaultHTTPAddr),
		GRPCAddr:     getEnv("GATEHOUSE_GRPC_ADDR", ""),
		AuthSecret:   secret,
		BcryptCost:   cost,
		TokenIssuer:  getEnv("GATEHOUSE_TOKEN_ISSUER", DefaultIssuer),
		CORSOrigins:  splitList(getEnv("GATEHOUSE_CORS_ORIGINS", DefaultCORSOrigins)),
		MaxBodyBytes: maxBody,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings for consistency.
func (c *Config) Validate() error {
	if len(c.AuthSecret) == 0 {
		return errors.New("GATEHOUSE_AUTH_SECRET or GATEHOUSE_AUTH_SECRET_FILE is required")
	}
	if c.BcryptCost < auth.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("GATEHOUSE_BCRYPT_COST must be between %d and %d, got %d", auth.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errors.New("GATEHOUSE_HTTP_ADDR must not be empty")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("GATEHOUSE_MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	return nil
}

// Summary returns loggable settings with the secret left out.
func (c *Config) Summary() map[string]any {
	return map[string]any{
		"http_addr":      c.HTTPAddr,
		"grpc_addr":      c.GRPCAddr,
		"bcrypt_cost":    c.BcryptCost,
		"token_issuer":   c.TokenIssuer,
		"cors_origins":   c.CORSOrigins,
		"max_body_bytes": c.MaxBodyBytes,
	}
}

func loadEnvFiles() {
	for _, name := range []string{".env.local", ".env"} {
		_ = godotenv.Load(name)
	}
}

func readSecret() ([]byte, error) {
	if v := strings.TrimSpace(os.Getenv("GATEHOUSE_AUTH_SECRET")); v != "" {
		return []byte(v), nil
	}
	path := strings.TrimSpace(os.Getenv("GATEHOUSE_AUTH_SECRET_FILE"))
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read GATEHOUSE_AUTH_SECRET_FILE: %w", err)
	}
	return []byte(strings.TrimSpace(string(raw))), nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getEnvAsInt64(key string, defaultValue int64) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
