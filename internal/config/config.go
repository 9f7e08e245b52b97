// Package config loads the application's configuration from environment
// variables, with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs to start. One struct, loaded in
// one place, passed down — no os.Getenv calls scattered through the code.
type Config struct {
	Port        int
	DBPath      string
	TemplateDir string
	StaticDir   string

	JWTSecret string

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Load reads the configuration. A .env file in the working directory is
// merged in first when present; real environment variables win over it.
// Missing optional values fall back to development defaults.
func Load() (*Config, error) {
	_ = godotenv.Load() // no .env is fine (e.g. production)

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("config: invalid PORT value %q: %w", portStr, err)
		}
		port = p
	}

	cfg := &Config{
		Port:               port,
		DBPath:             getEnv("DB_PATH", "data/linkpage.db"),
		TemplateDir:        getEnv("TEMPLATE_DIR", "web/templates"),
		StaticDir:          getEnv("STATIC_DIR", "web/static"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  os.Getenv("GITHUB_CALLBACK_URL"),
	}

	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
