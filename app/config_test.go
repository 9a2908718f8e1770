package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Create a temporary config file
	tempFile, err := os.CreateTemp("", "config.env")
	if err != nil {
		t.Fatalf("Failed to create temporary config file: %v", err)
	}
	defer os.Remove(tempFile.Name())

	// Write test configuration to the temporary file
	configData := []byte(`
PORT=8080
ENVIRONMENT=development
VERSION=1.0.0
TRUSTED_ORIGINS="http://localhost:3000,http://localhost:3001"
POCKETBASE_URL=http://pocketbase:8090
POCKETBASE_TIMEOUT=3s
CACHE_TTL=1m
RATE_LIMIT_RPS=2
RATE_LIMIT_BURST=4
RATE_LIMIT_ENABLED=false
MAIL_HOST=smtp.example.com
MAIL_PORT=587
MAIL_USER=testuser@example.com
MAIL_PASSWORD=testpassword
MAIL_SENDER=sender@example.com
RABBITMQ_HOST=rabbitmq.example.com
RABBITMQ_USER=testuser
RABBITMQ_PASSWORD=testpassword
NOTIFY_RECIPIENT=owner@example.com
SITE_URL=https://example.com
`)
	if _, err := tempFile.Write(configData); err != nil {
		t.Fatalf("Failed to write test configuration to temporary file: %v", err)
	}

	// Load the config from the temporary file
	config, err := loadConfig(tempFile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify the loaded config values
	assert.Equal(t, "8080", config.Port)
	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, "1.0.0", config.Version)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3001"}, config.TrustedOrigins)
	assert.Equal(t, "http://pocketbase:8090", config.PocketBaseURL)
	assert.Equal(t, 3*time.Second, config.PocketBaseTimeout)
	assert.Equal(t, time.Minute, config.CacheTTL)
	assert.Equal(t, 2.0, config.RateLimitRPS)
	assert.Equal(t, 4, config.RateLimitBurst)
	assert.False(t, config.RateLimitEnabled)
	assert.Equal(t, "smtp.example.com", config.MailHost)
	assert.Equal(t, 587, config.MailPort)
	assert.Equal(t, "testuser@example.com", config.MailUser)
	assert.Equal(t, "testpassword", config.MailPassword)
	assert.Equal(t, "sender@example.com", config.MailSender)
	assert.Equal(t, "rabbitmq.example.com", config.MQHost)
	assert.Equal(t, "5672", config.MQPort)
	assert.Equal(t, "testuser", config.MQUser)
	assert.Equal(t, "testpassword", config.MQPassword)
	assert.Equal(t, "owner@example.com", config.NotifyRecipient)
	assert.Equal(t, "https://example.com", config.SiteURL)
	assert.True(t, config.brokerEnabled())
	assert.True(t, config.mailEnabled())
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := loadConfig(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	assert.Equal(t, ":4000", config.Port)
	assert.Equal(t, "http://127.0.0.1:8090", config.PocketBaseURL)
	assert.Equal(t, 10*time.Second, config.PocketBaseTimeout)
	assert.Equal(t, 5*time.Minute, config.CacheTTL)
	assert.True(t, config.RateLimitEnabled)
	assert.False(t, config.brokerEnabled())
	assert.False(t, config.mailEnabled())
}
