package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Port           string        `env:"PORT" envDefault:"8080"`
	DatabaseURL    string        `env:"DATABASE_URL,required"`
	CORSOrigin     string        `env:"CORS_ORIGIN" envDefault:"*"`
	APIToken       string        `env:"API_TOKEN"` // empty disables the bearer-token check
	OracleBaseURL  string        `env:"ORACLE_BASE_URL" envDefault:"https://api.coingecko.com/api/v3"`
	OracleCacheTTL time.Duration `env:"ORACLE_CACHE_TTL" envDefault:"60s"`
}

func Load() (Config, error) {
	var cfg Config
	return cfg, env.Parse(&cfg)
}
