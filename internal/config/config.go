package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL    string `env:"DATABASE_URL,required"`
	ClerkSecretKey string `env:"CLERK_SECRET_KEY,required"`
	Port           string `env:"PORT" envDefault:"3333"`
	MetricsUser    string `env:"METRICS_USER"`
	MetricsPass    string `env:"METRICS_PASS"`
	PprofSecret    string `env:"PPROF_SECRET"`
}

// Load parses the process environment. Call godotenv.Load first if a
// .env file should be picked up.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}
