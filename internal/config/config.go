// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

type TypesenseConfig struct {
	Host   string
	Port   int
	APIKey string
}

// Enabled reports whether a Typesense host is configured.
func (t TypesenseConfig) Enabled() bool {
	return t.Host != ""
}

// URL returns the Typesense server address.
func (t TypesenseConfig) URL() string {
	return fmt.Sprintf("http://%s:%d", t.Host, t.Port)
}

// LLMConfig controls model selection and the resilience wrapper around providers.
type LLMConfig struct {
	Model           string
	QueryModel      string
	Timeout         time.Duration
	MaxRetries      int
	RateLimitRPS    float64
	BreakerFailures int
}

type Config struct {
	Port                      string
	Environment               string
	LogLevel                  string
	InngestEventKey           string
	InngestSigningKey         string
	OpenAIAPIKey              string
	AnthropicAPIKey           string
	AzureOpenAIEndpoint       string
	AzureOpenAIKey            string
	AzureOpenAIDeploymentName string
	DatabaseURL               string
	SlackWebhookURL           string
	SearchConcurrency         int
	Database                  DatabaseConfig
	Typesense                 TypesenseConfig
	LLM                       LLMConfig
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

// DSN returns a lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func Load() *Config {
	config := &Config{
		Port:                      getEnv("PORT", "8000"),
		Environment:               getEnv("ENVIRONMENT", "development"),
		LogLevel:                  getEnv("LOG_LEVEL", "info"),
		InngestEventKey:           os.Getenv("INNGEST_EVENT_KEY"),
		InngestSigningKey:         os.Getenv("INNGEST_SIGNING_KEY"),
		OpenAIAPIKey:              os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:           os.Getenv("ANTHROPIC_API_KEY"),
		AzureOpenAIEndpoint:       os.Getenv("AZURE_OPENAI_ENDPOINT"),
		AzureOpenAIKey:            os.Getenv("AZURE_OPENAI_KEY"),
		AzureOpenAIDeploymentName: os.Getenv("AZURE_OPENAI_DEPLOYMENT_NAME"),
		DatabaseURL:               os.Getenv("DATABASE_URL"),
		SlackWebhookURL:           os.Getenv("SLACK_WEBHOOK_URL"),
		SearchConcurrency:         getEnvInt("SEARCH_CONCURRENCY", 4),
	}

	// Parse database configuration
	dbConfig, err := parseDatabaseConfig()
	if err != nil {
		// If DATABASE_URL parsing fails, try individual env vars as fallback
		dbConfig = DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "story_citations"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 300),
		}
	}
	config.Database = dbConfig

	config.Typesense = TypesenseConfig{
		Host:   os.Getenv("TYPESENSE_HOST"),
		Port:   getEnvInt("TYPESENSE_PORT", 8108),
		APIKey: getEnv("TYPESENSE_API_KEY", "xyz"),
	}

	config.LLM = LLMConfig{
		Model:           getEnv("LLM_MODEL", "gpt-4.1"),
		QueryModel:      getEnv("QUERY_MODEL", "gpt-4.1"),
		Timeout:         time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 60)) * time.Second,
		MaxRetries:      getEnvInt("LLM_MAX_RETRIES", 3),
		RateLimitRPS:    getEnvFloat("LLM_RATE_LIMIT_RPS", 2),
		BreakerFailures: getEnvInt("LLM_BREAKER_FAILURES", 5),
	}

	if config.SearchConcurrency < 1 {
		config.SearchConcurrency = 1
	}

	return config
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func parseDatabaseConfig() (DatabaseConfig, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return DatabaseConfig{}, fmt.Errorf("DATABASE_URL not set")
	}

	parsedURL, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	if len(parsedURL.Path) < 2 {
		return DatabaseConfig{}, fmt.Errorf("DATABASE_URL has no database name")
	}

	config := DatabaseConfig{
		Host:            parsedURL.Hostname(),
		Port:            5432, // default
		User:            parsedURL.User.Username(),
		Name:            parsedURL.Path[1:], // remove leading slash
		SSLMode:         getEnv("DB_SSLMODE", "require"),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 25),
		ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 300),
	}

	if sslMode := parsedURL.Query().Get("sslmode"); sslMode != "" {
		config.SSLMode = sslMode
	}

	if password, ok := parsedURL.User.Password(); ok {
		config.Password = password
	}

	if parsedURL.Port() != "" {
		if port, err := strconv.Atoi(parsedURL.Port()); err == nil {
			config.Port = port
		}
	}

	return config, nil
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
