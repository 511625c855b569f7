package cache

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{HighWatermark: 100, LowWatermark: 50}, false},
		{"zero low", Config{HighWatermark: 100}, false},
		{"with capacity", Config{InitialCapacity: 64, HighWatermark: 100, LowWatermark: 99}, false},
		{"negative capacity", Config{InitialCapacity: -1, HighWatermark: 100, LowWatermark: 50}, true},
		{"zero high", Config{}, true},
		{"negative low", Config{HighWatermark: 100, LowWatermark: -1}, true},
		{"low equals high", Config{HighWatermark: 100, LowWatermark: 100}, true},
		{"low above high", Config{HighWatermark: 100, LowWatermark: 200}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				var cfgErr ErrInvalidConfig
				if !errors.As(err, &cfgErr) {
					t.Fatalf("expected ErrInvalidConfig, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(1000)
	if cfg.LowWatermark != 800 {
		t.Fatalf("expected low watermark 800, got %d", cfg.LowWatermark)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}
