package main

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string `env:"ADDR" envDefault:":8080"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"postgres://postgres:postgres@db:5432/taskboard?sslmode=disable"`

	SessionCookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"taskboard_sess"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"336h"`
	CookieSecure      bool          `env:"COOKIE_SECURE" envDefault:"false"`
	CookieSameSite    string        `env:"COOKIE_SAMESITE" envDefault:"lax"`

	// Seed credentials for the first admin, used only when the user table
	// is empty.
	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:"admin@example.com"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:""`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
