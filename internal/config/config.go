package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Provider ProviderConfig
	Database DatabaseConfig
	Policy   PolicyConfig
	Auth     AuthConfig
	Metrics  MetricsConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host          string
	Port          int
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	MaxMessageLen int
}

// ProviderConfig holds configuration for the generative backend
type ProviderConfig struct {
	Type    string // openai, ollama
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// DatabaseConfig holds SQLite paths for the HR directory and the
// conversation/audit stores
type DatabaseConfig struct {
	DirectoryPath    string
	ConversationPath string
	SeedDemo         bool
}

// PolicyConfig holds policy table loading settings
type PolicyConfig struct {
	File         string // optional YAML overrides; empty means defaults only
	WatchChanges bool
}

// AuthConfig holds JWT verification settings
type AuthConfig struct {
	JWTSecret string
}

// MetricsConfig holds metrics exposure settings
type MetricsConfig struct {
	Enabled bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:          getEnv("SERVER_HOST", "0.0.0.0"),
			Port:          getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:   time.Duration(getEnvInt("SERVER_READ_TIMEOUT_SEC", 30)) * time.Second,
			WriteTimeout:  time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT_SEC", 60)) * time.Second,
			MaxMessageLen: getEnvInt("MAX_MESSAGE_LEN", 2000),
		},
		Provider: ProviderConfig{
			Type:    getEnv("PROVIDER_TYPE", "ollama"),
			BaseURL: getEnv("PROVIDER_URL", "http://localhost:11434"),
			APIKey:  getEnv("PROVIDER_KEY", ""),
			Model:   getEnv("PROVIDER_MODEL", "llama3.1"),
			Timeout: time.Duration(getEnvInt("PROVIDER_TIMEOUT_SEC", 30)) * time.Second,
		},
		Database: DatabaseConfig{
			DirectoryPath:    getEnv("HR_DB_PATH", "data/hr.db"),
			ConversationPath: getEnv("CONVERSATION_DB_PATH", "data/conversations.db"),
			SeedDemo:         getEnvBool("SEED_DEMO_DATA", true),
		},
		Policy: PolicyConfig{
			File:         getEnv("POLICY_FILE", ""),
			WatchChanges: getEnvBool("POLICY_WATCH", true),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
