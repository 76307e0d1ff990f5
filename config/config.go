package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kevinaaaquil/novel-tracker/backend/logger"
)

type Config struct {
	Port               string
	MongoURI           string
	DBName             string
	AccessTokenSecret  string
	RefreshTokenSecret string
	ResetTokenSecret   string
	FrontendURL        string
	S3Bucket           string
	S3Region           string
	S3AccessKeyID      string
	S3SecretKey        string
	SMTPHost           string
	SMTPPort           int
	SMTPUser           string
	SMTPPassword       string
	MailFrom           string
	QuoteAPIURL        string
	QuoteAPIKey        string
	QuoteModel         string
	MaxUploadMB        int64
}

func Load() (*Config, error) {
	maxMB := int64(10)
	if v := os.Getenv("MAX_UPLOAD_MB"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("MAX_UPLOAD_MB must be a positive integer, got %q", v)
		}
		maxMB = n
	}
	smtpPort := 587
	if v := os.Getenv("SMTP_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("SMTP_PORT must be a positive integer, got %q", v)
		}
		smtpPort = n
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		MongoURI:           getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:             getEnv("MONGODB_DB", "novel-tracker"),
		AccessTokenSecret:  getEnv("ACCESS_TOKEN_SECRET", ""),
		RefreshTokenSecret: getEnv("REFRESH_TOKEN_SECRET", ""),
		ResetTokenSecret:   getEnv("RESET_TOKEN_SECRET", ""),
		FrontendURL:        getEnv("FRONTEND_APP_URL", "http://localhost:5173"),
		S3Bucket:           getEnv("AWS_S3_BUCKET", ""),
		S3Region:           getEnv("AWS_REGION", "us-east-1"),
		S3AccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:        getEnv("AWS_SECRET_ACCESS_KEY", ""),
		SMTPHost:           getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:           smtpPort,
		SMTPUser:           getEnv("SMTP_USER", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		MailFrom:           getEnv("MAIL_FROM", getEnv("SMTP_USER", "")),
		QuoteAPIURL:        getEnv("QUOTE_API_URL", "https://api.deepseek.com"),
		QuoteAPIKey:        getEnv("QUOTE_API_KEY", ""),
		QuoteModel:         getEnv("QUOTE_MODEL", "deepseek-chat"),
		MaxUploadMB:        maxMB,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// RequiredEnvVars are checked at startup; app exits if any are unset.
var RequiredEnvVars = []string{
	"MONGODB_URI",
	"ACCESS_TOKEN_SECRET",
	"REFRESH_TOKEN_SECRET",
	"RESET_TOKEN_SECRET",
}

// OptionalEnvVars are logged at startup so you can confirm they are loaded when set.
var OptionalEnvVars = []string{
	"PORT",
	"MONGODB_DB",
	"FRONTEND_APP_URL",
	"AWS_S3_BUCKET",
	"AWS_REGION",
	"SMTP_HOST",
	"SMTP_PORT",
	"SMTP_USER",
	"MAIL_FROM",
	"QUOTE_API_URL",
	"QUOTE_MODEL",
	"MAX_UPLOAD_MB",
}

var secretEnvVars = map[string]bool{
	"ACCESS_TOKEN_SECRET":   true,
	"REFRESH_TOKEN_SECRET":  true,
	"RESET_TOKEN_SECRET":    true,
	"AWS_ACCESS_KEY_ID":     true,
	"AWS_SECRET_ACCESS_KEY": true,
	"SMTP_PASSWORD":         true,
	"QUOTE_API_KEY":         true,
}

// ValidateEnv checks that all required env vars are set and logs status of required + optional.
// Exits if any required var is missing.
func ValidateEnv() {
	var missing []string
	for _, key := range RequiredEnvVars {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		} else {
			logger.Log.Infof("env %s loaded", key)
		}
	}
	if len(missing) > 0 {
		logger.Log.Fatalf("missing required env: %s (set these in .env or environment)", strings.Join(missing, ", "))
	}
	for _, key := range OptionalEnvVars {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			logger.Log.Infof("env %s not set (optional)", key)
			continue
		}
		if secretEnvVars[key] {
			logger.Log.Infof("env %s loaded", key)
		} else {
			logger.Log.Infof("env %s = %s", key, v)
		}
	}
	logger.Log.Info("env check complete")
}
