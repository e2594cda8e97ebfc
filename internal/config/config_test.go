package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsAndEnvironment(t *testing.T) {
	t.Setenv("ADMISSIONS_JWT_SECRET", "s3cret")
	t.Setenv("ADMISSIONS_DB_PASSWORD", "pg-pass")
	t.Setenv("ADMISSIONS_DISPATCH_BATCH_SIZE", "25")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, "pg-pass", cfg.Database.Password)
	assert.Equal(t, 25, cfg.Dispatch.BatchSize)
	assert.Equal(t, 2*time.Hour, cfg.Dispatch.WorkspaceTTL)
	assert.Equal(t, "log", cfg.Email.Provider)
	assert.Zero(t, cfg.Retention.MessageSends, "send history is kept unless pruning is configured")
	assert.Equal(t, 7*24*time.Hour, cfg.Retention.ProcessedEvents)
}

func TestLoadConfig_RequiresSecret(t *testing.T) {
	t.Setenv("ADMISSIONS_JWT_SECRET", "")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			JWT:      JWTConfig{Secret: "x"},
			Dispatch: DispatchConfig{BatchSize: 50},
			Email:    EmailConfig{Provider: "log"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"batch too large", func(c *Config) { c.Dispatch.BatchSize = 101 }, true},
		{"batch zero", func(c *Config) { c.Dispatch.BatchSize = 0 }, true},
		{"resend without key", func(c *Config) { c.Email.Provider = "resend" }, true},
		{"sendgrid with key", func(c *Config) { c.Email.Provider = "sendgrid"; c.Email.APIKey = "k" }, false},
		{"smtp without host", func(c *Config) { c.Email.Provider = "smtp" }, true},
		{"unknown provider", func(c *Config) { c.Email.Provider = "pigeon" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
