// Package config reads the host's settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/encoding"

	"github.com/nstehr/vimy/vimy-host/wire"
)

// Host configures one robot host process.
type Host struct {
	// Socket is the unix socket the battle engine connects to.
	Socket string `env:"VIMY_SOCKET"`
	// WebSocketAddr serves the websocket endpoint, e.g. ":8788". Empty
	// disables it.
	WebSocketAddr string `env:"VIMY_WS_ADDR"`
	WebSocketPath string `env:"VIMY_WS_PATH" envDefault:"/robot"`

	ProtocolVersion string `env:"VIMY_PROTOCOL_VERSION" envDefault:"1.9.5.0"`
	TextEncoding    string `env:"VIMY_TEXT_ENCODING" envDefault:"UTF-8"`
	MaxFrame        int    `env:"VIMY_MAX_FRAME" envDefault:"1048576"`

	// Script is a YAML robot script; the built-in one runs when empty.
	Script string `env:"VIMY_SCRIPT"`

	OTelEndpoint string `env:"VIMY_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"VIMY_OTEL_ENABLED" envDefault:"true"`

	LogLevel slog.Level `env:"VIMY_LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment and validates the result.
func Load() (Host, error) {
	var h Host
	if err := env.Parse(&h); err != nil {
		return Host{}, fmt.Errorf("parse env: %w", err)
	}
	if err := h.Validate(); err != nil {
		return Host{}, err
	}
	return h, nil
}

func (h Host) Validate() error {
	if h.Socket == "" && h.WebSocketAddr == "" {
		return errors.New("config: set VIMY_SOCKET or VIMY_WS_ADDR")
	}
	if h.MaxFrame <= 0 {
		return fmt.Errorf("config: VIMY_MAX_FRAME must be positive, got %d", h.MaxFrame)
	}
	if _, err := h.Version(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := h.Encoding(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Version is the protocol version packed for the wire header.
func (h Host) Version() (int32, error) { return wire.ParseVersion(h.ProtocolVersion) }

func (h Host) Encoding() (encoding.Encoding, error) { return wire.LookupEncoding(h.TextEncoding) }

// Tracing reports whether spans should be exported.
func (h Host) Tracing() bool { return h.OTelEnabled && h.OTelEndpoint != "" }
