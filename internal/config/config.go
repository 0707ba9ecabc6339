package config

import (
	"fmt"
	"log"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Transport names accepted by TUGBOAT_TRANSPORT.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds the application configuration.
// All variables are read with the TUGBOAT_ prefix.
type Config struct {
	// APIKey authenticates every call to the Tugboat API. Required.
	APIKey string `env:"API_KEY"`
	// APIURL is the Tugboat API root.
	APIURL string `env:"API_URL" envDefault:"https://api.tugboatqa.com/v3"`
	// Transport selects how the MCP server is exposed: stdio or http.
	Transport string `env:"TRANSPORT" envDefault:"stdio"`
	// Port is the listen port for the http transport.
	Port int `env:"PORT" envDefault:"3000"`
	// LogFile receives all log output in stdio mode, where stdout and
	// stderr carry protocol framing and must stay clean.
	LogFile string `env:"LOG_FILE" envDefault:"tugboat-mcp.log"`
	// Debug enables verbose request/response logging in the API client.
	Debug bool `env:"DEBUG" envDefault:"false"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Printf("No .env file found or error loading .env file: %v", err)
	}
	var cfg Config
	err = env.ParseWithOptions(&cfg, env.Options{
		Prefix: "TUGBOAT_",
	})
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return &cfg
}

// Validate checks that the configuration can actually run a server.
func Validate(cfg *Config) error {
	if cfg.APIKey == "" {
		return fmt.Errorf("TUGBOAT_API_KEY is required")
	}
	if cfg.Transport != TransportStdio && cfg.Transport != TransportHTTP {
		return fmt.Errorf("invalid transport %q: must be %q or %q", cfg.Transport, TransportStdio, TransportHTTP)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", cfg.Port)
	}
	return nil
}
