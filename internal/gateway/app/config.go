package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	KeycloakServerURL    string        // Required: base URL of the Keycloak server
	KeycloakRealm        string        // Required: realm the gateway belongs to
	KeycloakClientID     string        // Required: this service's client id (audience)
	KeycloakClientSecret string        // Optional: only needed for introspection
	VerifyAudience       bool          // Optional: check aud == client id (default: true)
	VerifyIssuer         bool          // Optional: check iss == realm issuer URL (default: true)
	UseIntrospection     bool          // Optional: remote introspection instead of local JWKS validation (default: false)
	JWKSTTL              time.Duration // Optional: key set cache TTL (default: 1h)

	OllamaURL          string        // Optional: Ollama base URL (default: http://localhost:11434)
	OllamaDefaultModel string        // Optional: model used when requests don't name one (default: llama3.2)
	OllamaTimeout      time.Duration // Optional: generation timeout (default: 120s)

	DatabaseFile        string        // Optional: path to SQLite database file (default: ./gateway.db)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		KeycloakServerURL:    getEnvOrDefault("KEYCLOAK_SERVER_URL", "http://localhost:8180"),
		KeycloakRealm:        getEnvOrDefault("KEYCLOAK_REALM", "docbrief"),
		KeycloakClientID:     getEnvOrDefault("KEYCLOAK_CLIENT_ID", "docbrief-api"),
		KeycloakClientSecret: os.Getenv("KEYCLOAK_CLIENT_SECRET"),
		VerifyAudience:       getEnvBoolOrDefault("KEYCLOAK_VERIFY_AUDIENCE", true),
		VerifyIssuer:         getEnvBoolOrDefault("KEYCLOAK_VERIFY_ISSUER", true),
		UseIntrospection:     getEnvBoolOrDefault("KEYCLOAK_USE_INTROSPECTION", false),
		JWKSTTL:              getEnvDurationOrDefault("KEYCLOAK_JWKS_TTL", time.Hour),

		OllamaURL:          getEnvOrDefault("OLLAMA_URL", "http://localhost:11434"),
		OllamaDefaultModel: getEnvOrDefault("OLLAMA_DEFAULT_MODEL", "llama3.2"),
		OllamaTimeout:      getEnvDurationOrDefault("OLLAMA_TIMEOUT", 120*time.Second),

		DatabaseFile:        getEnvOrDefault("GATEWAY_DATABASE_FILE", "gateway.db"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
