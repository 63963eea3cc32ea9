// Package config loads the process configuration from the environment,
// following the teacher's getEnv-with-default pattern.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DataPath    string // root for on-disk layout (§6.2)
	HTTPPort    string
	SecretKey   string // session token signing secret
	TLSCertPath string
	TLSKeyPath  string

	AdminUsername string
	AdminPassword string
	AdminEmail    string

	DefaultScriptTimeoutSeconds int
	DefaultMemoryLimitMB        int

	RateLimitEnabled bool
	DefaultAPIKey    string

	RunQueueCapacity  int
	WorkerPoolSize    int
	SubscriberMailbox int

	StdoutCapBytes int
	StderrCapBytes int

	OrphanGraceSeconds int

	LogPath string
}

// Load reads configuration from the process environment, applying the
// same defaults `spec.md` §6.3 names.
func Load() Config {
	_ = godotenv.Load() // best-effort; absence of a .env file is normal in production

	return Config{
		DataPath:    getEnv("PYSCHED_DATA_PATH", "./data"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		SecretKey:   getEnv("SECRET_KEY", "dev-secret-change-me"),
		TLSCertPath: getEnv("TLS_CERT_PATH", ""),
		TLSKeyPath:  getEnv("TLS_KEY_PATH", ""),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@localhost"),

		DefaultScriptTimeoutSeconds: getEnvInt("DEFAULT_SCRIPT_TIMEOUT_SECONDS", 300),
		DefaultMemoryLimitMB:        getEnvInt("DEFAULT_MEMORY_LIMIT_MB", 512),

		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		DefaultAPIKey:    getEnv("DEFAULT_API_KEY", "default-api-key-change-me"),

		RunQueueCapacity:  getEnvInt("RUN_QUEUE_CAPACITY", 64),
		WorkerPoolSize:    getEnvInt("WORKER_POOL_SIZE", 4),
		SubscriberMailbox: getEnvInt("SUBSCRIBER_MAILBOX_SIZE", 256),

		StdoutCapBytes: getEnvInt("STDOUT_CAP_BYTES", 1<<20), // 1 MiB
		StderrCapBytes: getEnvInt("STDERR_CAP_BYTES", 1<<20),

		OrphanGraceSeconds: getEnvInt("ORPHAN_GRACE_SECONDS", 120),

		LogPath: getEnv("LOG_PATH", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}
