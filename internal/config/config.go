package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	Database    Database `envPrefix:"DB_"`
	Gateway     Gateway  `envPrefix:"GATEWAY_"`
	Payout      Payout   `envPrefix:"PAYOUT_"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

type Database struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"` // sqlite, mysql
	DSN    string `env:"DSN" envDefault:"affiliate.db"`
}

type Gateway struct {
	BaseURL string        `env:"BASE_URL"`
	APIKey  string        `env:"API_KEY"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

type Payout struct {
	Workers      int           `env:"WORKERS" envDefault:"4"`
	QueueSize    int           `env:"QUEUE_SIZE" envDefault:"256"`
	MaxAttempts  int           `env:"MAX_ATTEMPTS" envDefault:"5"`
	RetryBackoff time.Duration `env:"RETRY_BACKOFF" envDefault:"2s"`
}
