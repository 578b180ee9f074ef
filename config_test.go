package plivostream

import (
	"errors"
	"testing"
	"time"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "zero value", config: Config{}},
		{name: "with logger and limits", config: Config{Logger: NewLogger(LogLevelOff), ReadLimit: 1 << 20, SendTimeout: 5 * time.Second}},
		{name: "negative read limit", config: Config{ReadLimit: -1}, wantErr: true},
		{name: "negative send timeout", config: Config{SendTimeout: -time.Second}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.config)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error for invalid config")
				}
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("error %v does not match ErrInvalidConfig", err)
				}
				var cerr *ConfigError
				if !errors.As(err, &cerr) {
					t.Errorf("error %v is not a *ConfigError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := New(Config{ReadLimit: -5}); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestConfig_SendTimeoutDefault(t *testing.T) {
	if got := (Config{}).sendTimeout(); got != DefaultSendTimeout {
		t.Errorf("default send timeout = %v, want %v", got, DefaultSendTimeout)
	}
	if got := (Config{SendTimeout: time.Second}).sendTimeout(); got != time.Second {
		t.Errorf("send timeout = %v, want 1s", got)
	}
}
