package validation_test

import (
	"errors"
	"testing"
	"time"

	"github.com/arthur-debert/taskmirror/internal/validation"
)

func TestUserID(t *testing.T) {
	if err := validation.UserID("u1"); err != nil {
		t.Errorf("UserID(u1) = %v, want nil", err)
	}
	for _, id := range []string{"", "   "} {
		if err := validation.UserID(id); !errors.Is(err, validation.ErrEmptyUserID) {
			t.Errorf("UserID(%q) = %v, want ErrEmptyUserID", id, err)
		}
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  validation.Config
		wantErr bool
	}{
		{
			name:    "empty config",
			config:  validation.Config{},
			wantErr: true,
		},
		{
			name:   "memory backend without path",
			config: validation.Config{Backend: "memory", TTL: time.Minute},
		},
		{
			name:    "json backend without path",
			config:  validation.Config{Backend: "json", TTL: time.Minute},
			wantErr: true,
		},
		{
			name:   "sqlite backend, mixed case",
			config: validation.Config{Backend: "SQLite", Path: "cache.db", TTL: time.Minute, Format: "YAML"},
		},
		{
			name:    "unknown format",
			config:  validation.Config{Backend: "memory", TTL: time.Minute, Format: "xml"},
			wantErr: true,
		},
		{
			name:    "zero ttl",
			config:  validation.Config{Backend: "memory"},
			wantErr: true,
		},
		{
			name:   "server policy",
			config: validation.Config{Backend: "memory", TTL: time.Minute, Policy: "server-authority"},
		},
		{
			name:    "unknown policy",
			config:  validation.Config{Backend: "memory", TTL: time.Minute, Policy: "first-wins"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Validate(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
