package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration read from the environment.
type Config struct {
	HTTPAddr string

	DBHost             string
	DBPort             string
	DBUser             string
	DBPassword         string
	DBName             string
	DBSSLMode          string
	DBTimeZone         string
	DBMaxConns         int
	DBMaxIdle          int
	DBStatementTimeout time.Duration

	JWTSecret   string
	CORSOrigins []string
	LogFile     string
	LogLevel    string

	RedisAddr     string
	RedisPassword string
	RegionLockTTL time.Duration
}

// Load reads .env (if present) and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on env vars")
	}

	return Config{
		HTTPAddr: getEnv("HTTP_ADDR", "0.0.0.0:8080"),

		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBUser:             getEnv("DB_USER", "postgres"),
		DBPassword:         getEnv("DB_PASSWORD", "password"),
		DBName:             getEnv("DB_NAME", "campus_map"),
		DBSSLMode:          getEnv("DB_SSLMODE", "disable"),
		DBTimeZone:         getEnv("DB_TIMEZONE", "UTC"),
		DBMaxConns:         getEnvInt("DB_MAX_CONNS", 20),
		DBMaxIdle:          getEnvInt("DB_MAX_IDLE", 5),
		DBStatementTimeout: getEnvDuration("DB_STATEMENT_TIMEOUT", 5*time.Second),

		JWTSecret:   getEnv("JWT_SECRET", "supersecret"),
		CORSOrigins: getEnvList("CORS_ORIGINS"),
		LogFile:     getEnv("LOG_FILE", "./logs/app.log"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RegionLockTTL: getEnvDuration("REGION_LOCK_TTL", 10*time.Second),
	}
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("invalid %s=%q, using %d", key, v, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("invalid %s=%q, using %s", key, v, defaultValue)
		return defaultValue
	}
	return d
}
