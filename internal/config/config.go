package config

import (
	"encoding/hex"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DatabaseURL     string
	JWTSecret       string
	MasterKey2FA    []byte
	JWTCookie       string
	RefreshCookie   string
	SessionTTL      time.Duration
	RefreshTTL      time.Duration
	ResetTokenTTL   time.Duration
	TOTPIssuer      string
	AllowOrigins    []string
	LogstashTCPAddr string
	SMTPHost        string
	SMTPPort        string
	SMTPUsername    string
	SMTPPassword    string
	SMTPFrom        string
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	masterKey, err := hex.DecodeString(must("MASTER_KEY_2FA"))
	if err != nil || len(masterKey) != 32 {
		panic("MASTER_KEY_2FA must be exactly 32 bytes (64 hex characters)")
	}

	jwtSecret := must("JWT_SECRET")
	if len(jwtSecret) < 32 {
		panic("JWT_SECRET must be at least 32 characters")
	}

	return Config{
		Port:            getenv("PORT", "8080"),
		DatabaseURL:     must("DATABASE_URL"),
		JWTSecret:       jwtSecret,
		MasterKey2FA:    masterKey,
		JWTCookie:       getenv("JWT_COOKIE", "TODO_APP_JWT"),
		RefreshCookie:   getenv("REFRESH_COOKIE", "TODO_APP_REFRESH"),
		SessionTTL:      getduration("SESSION_TTL", 5*time.Minute),
		RefreshTTL:      getduration("REFRESH_TTL", 21*24*time.Hour),
		ResetTokenTTL:   getduration("PASSWORD_RESET_TTL", 2*time.Hour),
		TOTPIssuer:      getenv("TOTP_ISSUER", "To-Do App"),
		AllowOrigins:    splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		LogstashTCPAddr: getenv("LOGSTASH_TCP_ADDR", ""),
		SMTPHost:        getenv("SMTP_HOST", ""),
		SMTPPort:        getenv("SMTP_PORT", ""),
		SMTPUsername:    getenv("SMTP_USERNAME", ""),
		SMTPPassword:    getenv("SMTP_PASSWORD", ""),
		SMTPFrom:        getenv("SMTP_FROM", ""),
	}
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getduration(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	parsed, err := time.ParseDuration(v)
	if err != nil || parsed <= 0 {
		log.Printf("Warning: invalid %s %q, using %s", k, v, d)
		return d
	}
	return parsed
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
