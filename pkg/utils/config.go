package utils

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig is everything the api-server needs beyond the database path
// (which pkg/database resolves itself). Built once at startup and passed to
// constructors; no package-level client singletons.
type ServerConfig struct {
	Addr           string
	ArchiveBaseURL string

	// ScanCategories caps how many remote categories the fallback search
	// scan will touch for a single query.
	ScanCategories int
}

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration

	AdminUser     string
	AdminPassHash string // bcrypt hash; empty disables the admin surface
}

// LoadServerConfig reads configuration from the environment, loading a .env
// file first if one is present. Environment variables already set win over
// .env values.
func LoadServerConfig() ServerConfig {
	_ = godotenv.Load()

	return ServerConfig{
		Addr:           getEnv("GANJHUB_ADDR", ":8080"),
		ArchiveBaseURL: getEnv("GANJHUB_ARCHIVE_URL", "https://api.ganjoor.net"),
		ScanCategories: getEnvInt("GANJHUB_SCAN_CATEGORIES", 20),
	}
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("GANJHUB_JWT_SECRET")
	if secret == "" {
		// dev default (change for production)
		secret = "dev-secret-change-me"
	}

	issuer := getEnv("GANJHUB_JWT_ISSUER", "ganjhub")

	return AuthConfig{
		JWTSecret:     secret,
		JWTIssuer:     issuer,
		JWTDuration:   time.Duration(getEnvInt("GANJHUB_JWT_TTL_HOURS", 24)) * time.Hour,
		AdminUser:     os.Getenv("GANJHUB_ADMIN_USER"),
		AdminPassHash: os.Getenv("GANJHUB_ADMIN_PASS_HASH"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
