package config

import (
	"os"
	"strings"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName             string
	HTTPPort                string
	PostgresDSN             string
	AuthServiceURL          string
	AuthorizationServiceURL string
	PermissionChangedTopic  string
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "aegis"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8203"
	}

	authURL := strings.TrimSpace(os.Getenv("AUTH_SERVICE_URL"))
	if authURL == "" {
		authURL = "http://localhost:8202"
	}
	authzURL := strings.TrimSpace(os.Getenv("AUTHORIZATION_SERVICE_URL"))
	if authzURL == "" {
		authzURL = "http://localhost:8203"
	}

	topic := strings.TrimSpace(os.Getenv("EVENT_TOPIC_PERMISSION_CHANGED"))
	if topic == "" {
		topic = "authz.permission_changed"
	}

	return Config{
		ServiceName:             service,
		HTTPPort:                port,
		PostgresDSN:             os.Getenv("POSTGRES_DSN"),
		AuthServiceURL:          authURL,
		AuthorizationServiceURL: authzURL,
		PermissionChangedTopic:  topic,
	}, nil
}
