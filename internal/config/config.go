package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TableName      string
	IndexName      string
	JWTSecret      string
	AccessTokenTTL time.Duration
	VerifyTokenTTL time.Duration
	SenderAddress  string
}

// Load reads configuration from the environment. A local .env file is
// loaded first when present so dev runs match the deployed shape.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		TableName:      envOr("TABLE_NAME", "MegaTable"),
		IndexName:      envOr("INDEX_NAME", "userCheckedIndex"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AccessTokenTTL: durationOr("ACCESS_TOKEN_TTL", 720*time.Hour),
		VerifyTokenTTL: durationOr("VERIFY_TOKEN_TTL", 24*time.Hour),
		SenderAddress:  os.Getenv("SENDER_ADDRESS"),
	}
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func durationOr(name string, fallback time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
