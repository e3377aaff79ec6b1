// Package config loads server and client settings from the environment.
//
// A .env file in the working directory is loaded first when present; real
// environment variables always win over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig holds settings for the hiring API server.
type ServerConfig struct {
	Port                 string
	DatabaseDSN          string
	APIToken             string // bearer token required by the API; empty disables auth
	GeminiAPIKey         string
	GeminiModel          string
	GmailCredentialsFile string
	GmailTokenFile       string
	InboxSyncInterval    time.Duration
	CORSOrigins          []string
	LogLevel             string
	LogFormat            string
}

// ClientConfig holds settings for API consumers such as hirectl.
type ClientConfig struct {
	APIBaseURL        string
	APIToken          string
	PageSize          int
	SearchDebounce    time.Duration
	RequestsPerSecond float64
	RequestTimeout    time.Duration
	LogLevel          string
	LogFormat         string
}

// LoadEnvFile loads .env files into the process environment. A missing file
// is not an error.
func LoadEnvFile(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadServer reads ServerConfig from the environment.
func LoadServer() (ServerConfig, error) {
	if err := LoadEnvFile(); err != nil {
		return ServerConfig{}, err
	}
	v := newViper()
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "host=localhost user=postgres password=password dbname=jobtracker port=5432 sslmode=disable")
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	v.SetDefault("GMAIL_CREDENTIALS_FILE", "credential.json")
	v.SetDefault("GMAIL_TOKEN_FILE", "token.json")
	v.SetDefault("INBOX_SYNC_INTERVAL", "1m")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	cfg := ServerConfig{
		Port:                 v.GetString("PORT"),
		DatabaseDSN:          v.GetString("DATABASE_URL"),
		APIToken:             v.GetString("API_TOKEN"),
		GeminiAPIKey:         v.GetString("GEMINI_API_KEY"),
		GeminiModel:          v.GetString("GEMINI_MODEL"),
		GmailCredentialsFile: v.GetString("GMAIL_CREDENTIALS_FILE"),
		GmailTokenFile:       v.GetString("GMAIL_TOKEN_FILE"),
		InboxSyncInterval:    v.GetDuration("INBOX_SYNC_INTERVAL"),
		CORSOrigins:          splitList(v.GetString("CORS_ORIGINS")),
		LogLevel:             v.GetString("LOG_LEVEL"),
		LogFormat:            v.GetString("LOG_FORMAT"),
	}
	if cfg.InboxSyncInterval <= 0 {
		return ServerConfig{}, fmt.Errorf("INBOX_SYNC_INTERVAL must be positive, got %q", v.GetString("INBOX_SYNC_INTERVAL"))
	}
	return cfg, nil
}

// LoadClient reads ClientConfig from the environment. Variables use the
// HIREBOARD_ prefix, e.g. HIREBOARD_API_URL.
func LoadClient() (ClientConfig, error) {
	if err := LoadEnvFile(); err != nil {
		return ClientConfig{}, err
	}
	v := newViper()
	v.SetEnvPrefix("HIREBOARD")
	v.SetDefault("API_URL", "http://localhost:8080")
	v.SetDefault("PAGE_SIZE", 10)
	v.SetDefault("SEARCH_DEBOUNCE", "500ms")
	v.SetDefault("REQUESTS_PER_SECOND", 5.0)
	v.SetDefault("REQUEST_TIMEOUT", "15s")
	v.SetDefault("LOG_LEVEL", "warn")
	v.SetDefault("LOG_FORMAT", "text")

	cfg := ClientConfig{
		APIBaseURL:        strings.TrimRight(v.GetString("API_URL"), "/"),
		APIToken:          v.GetString("API_TOKEN"),
		PageSize:          v.GetInt("PAGE_SIZE"),
		SearchDebounce:    v.GetDuration("SEARCH_DEBOUNCE"),
		RequestsPerSecond: v.GetFloat64("REQUESTS_PER_SECOND"),
		RequestTimeout:    v.GetDuration("REQUEST_TIMEOUT"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogFormat:         v.GetString("LOG_FORMAT"),
	}
	if cfg.PageSize <= 0 || cfg.PageSize > 100 {
		return ClientConfig{}, fmt.Errorf("HIREBOARD_PAGE_SIZE must be within [1,100], got %d", cfg.PageSize)
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
