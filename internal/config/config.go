package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	DatabaseURL string
	JWTSecret   string

	Mail struct {
		APIURL string
		APIKey string
		From   string
	}
}

func Load() (*Config, error) {
	// Load .env file if it exists (useful for local dev)
	_ = godotenv.Load()

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	mailAPIURL := os.Getenv("MAIL_API_URL")
	if mailAPIURL == "" {
		return nil, fmt.Errorf("MAIL_API_URL must be set")
	}

	mailAPIKey := os.Getenv("MAIL_API_KEY")
	if mailAPIKey == "" {
		return nil, fmt.Errorf("MAIL_API_KEY must be set")
	}

	mailFrom := os.Getenv("MAIL_FROM")
	if mailFrom == "" {
		mailFrom = "noreply@studentmarket.local"
	}

	cfg := &Config{
		ServerPort:  serverPort,
		DatabaseURL: databaseURL,
		JWTSecret:   jwtSecret,
	}
	cfg.Mail.APIURL = mailAPIURL
	cfg.Mail.APIKey = mailAPIKey
	cfg.Mail.From = mailFrom

	return cfg, nil
}
