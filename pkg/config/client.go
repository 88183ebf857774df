package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// ClientConfig configures the storefront client (cmd/storefront).
type ClientConfig struct {
	APIURL              string        `envconfig:"AURA_CLIENT_API_URL" default:"http://localhost:8080"`
	StatePath           string        `envconfig:"AURA_CLIENT_STATE_PATH" default:"aura-client.db"`
	RequestTimeout      time.Duration `envconfig:"AURA_CLIENT_REQUEST_TIMEOUT" default:"15s"`
	SubmitTimeout       time.Duration `envconfig:"AURA_CLIENT_SUBMIT_TIMEOUT" default:"30s"`
	CardProcessingDelay time.Duration `envconfig:"AURA_CLIENT_CARD_PROCESSING_DELAY" default:"2s"`
	LogLevel            string        `envconfig:"AURA_CLIENT_LOG_LEVEL" default:"warn"`
}

func LoadClient() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing client config: %w", err)
	}
	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("%s is required", EnvClientAPIURL)
	}
	if strings.TrimSpace(cfg.StatePath) == "" {
		return nil, fmt.Errorf("%s is required", EnvClientStatePath)
	}
	if cfg.RequestTimeout < 0 {
		return nil, fmt.Errorf("%s must not be negative", EnvClientRequestTimeout)
	}
	return &cfg, nil
}
