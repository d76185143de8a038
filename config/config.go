package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds every environment-driven setting the server needs.
type Config struct {
	Port         string
	MongoURI     string
	DatabaseName string
	JWTSecret    string
	AllowOrigins string
	FrontendURL  string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	UploadDir     string
	UploadBaseURL string
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Warn(".env file not found, using system environment variables")
	}

	return Config{
		Port:          getenv("PORT", "3000"),
		MongoURI:      getenv("MONGODB_URI", "mongodb://localhost:27017"),
		DatabaseName:  getenv("DATABASE_NAME", "clinic"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AllowOrigins:  getenv("ALLOW_ORIGINS", "http://localhost:8080"),
		FrontendURL:   getenv("FRONTEND_URL", "http://localhost:8080"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      getenvInt("SMTP_PORT", 587),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPass:      os.Getenv("SMTP_PASS"),
		MailFrom:      getenv("MAIL_FROM", os.Getenv("SMTP_USER")),
		UploadDir:     getenv("UPLOAD_DIR", "./uploads"),
		UploadBaseURL: getenv("UPLOAD_BASE_URL", "http://localhost:3000"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.WithField("key", key).Warn("invalid integer in environment, using default")
		return fallback
	}
	return n
}
