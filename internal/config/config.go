package config

import (
	"encoding/base64"
	"fmt"
	"time"
)

const (
	RelayModeSender    = "sender"
	RelayModeRecipient = "recipient"
)

type Config struct {
	ServerAddr       string
	SigningKey       []byte
	AllowedOrigins   []string
	TranslateURL     string
	TranslateTimeout time.Duration
	RelayMode        string
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return nil, err
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("empty key")
	}

	return key, nil
}

func NewConfig(serverAddr, base64Secret string, allowedOrigins []string, translateURL string, translateTimeout time.Duration, relayMode string) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if base64Secret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}
	if translateTimeout <= 0 {
		return nil, fmt.Errorf("translate timeout must be positive")
	}

	switch relayMode {
	case RelayModeSender, RelayModeRecipient:
	default:
		return nil, fmt.Errorf("unknown relay mode %q", relayMode)
	}

	signingKey, err := decodeSigningSecret(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	return &Config{
		ServerAddr:       serverAddr,
		SigningKey:       signingKey,
		AllowedOrigins:   allowedOrigins,
		TranslateURL:     translateURL,
		TranslateTimeout: translateTimeout,
		RelayMode:        relayMode,
	}, nil
}
