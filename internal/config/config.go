package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// ServerURL is the base HTTP URL of the chat backend. The websocket
	// endpoint and the REST collaborators are derived from it.
	ServerURL string `env:"CHAT_SERVER_URL" envDefault:"http://localhost:8080"`
	Username  string `env:"CHAT_USERNAME"`
	RoomID    string `env:"CHAT_ROOM_ID"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server URL cannot be empty")
	}

	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("parse server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("server URL must include a host")
	}

	if c.Username == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if c.RoomID == "" {
		return fmt.Errorf("room id cannot be empty")
	}

	return nil
}

// WebSocketURL converts the base server URL into the ws/wss endpoint
// the messaging backend accepts connections on.
func (c *Config) WebSocketURL() string {
	wsURL := c.ServerURL
	switch {
	case strings.HasPrefix(wsURL, "https://"):
		wsURL = "wss://" + strings.TrimPrefix(wsURL, "https://")
	case strings.HasPrefix(wsURL, "http://"):
		wsURL = "ws://" + strings.TrimPrefix(wsURL, "http://")
	}

	return strings.TrimSuffix(wsURL, "/") + "/chat"
}
