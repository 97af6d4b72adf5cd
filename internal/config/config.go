// Package config loads application configuration from environment variables.
// A .env file in the working directory is read first when present; variables
// already set in the environment take precedence over it.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration of the server.
type Config struct {
	Env            string // application environment (dev, test, prod)
	Port           string // HTTP port to listen on
	DBUser         string
	DBPass         string // may be empty
	DBHost         string
	DBPort         string
	DBName         string
	JWTSecret      string // HS256 key for session tokens
	AccessTTLMin   int    // session token lifetime in minutes
	RefreshTTLDays int    // refresh token lifetime in days
	BcryptCost     int    // bcrypt cost for password hashing
	AutoMigrate    bool   // apply the embedded schema at startup
	SecureCookies  bool   // mark session cookies Secure
	AMQPURL        string // RabbitMQ URL; empty disables audit publishing
	AuditConsumer  bool   // run the audit log consumer in-process
	AuditLogDir    string // directory the consumer writes audit.log into
	ShutdownWait   time.Duration
}

// Load reads configuration values from the environment. Missing required
// variables stop the program with a fatal log message.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: reading .env: %v", err)
	}
	env := envStr("APP_ENV", "dev")
	return Config{
		Env:            env,
		Port:           envStr("APP_PORT", "8080"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         envStr("DB_PORT", "3306"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     envInt("BCRYPT_COST", 10),
		AutoMigrate:    envBool("DB_AUTO_MIGRATE", env != "prod"),
		SecureCookies:  envBool("SECURE_COOKIES", env == "prod"),
		AMQPURL:        amqpURL(),
		AuditConsumer:  envBool("AUDIT_CONSUMER_ENABLED", false),
		AuditLogDir:    envStr("AUDIT_LOG_DIR", "logs"),
		ShutdownWait:   envDur("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// AccessTTL returns the session token lifetime.
func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLMin) * time.Minute
}

func amqpURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the value into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
