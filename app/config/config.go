package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   HTTPServerConfig
	Mongo    MongoConfig
	Workflow WorkflowConfig
}

type HTTPServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoConfig struct {
	URI      string
	Database string
}

type WorkflowConfig struct {
	// PolicyPath optionally points at an HCL policy override file; empty
	// means the built-in policy.
	PolicyPath string
	// AuditFailClosed surfaces history append failures to the caller instead
	// of logging and continuing.
	AuditFailClosed bool
}

// Load builds the configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Server: HTTPServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DB", "fieldservice"),
		},
		Workflow: WorkflowConfig{
			PolicyPath:      getEnv("WORKFLOW_POLICY_PATH", ""),
			AuditFailClosed: getEnvBool("AUDIT_FAIL_CLOSED", false),
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
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
