package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/apotheka/dispense-station/config"
)

func TestNewFromCentral_Disabled(t *testing.T) {
	client, err := NewFromCentral(config.AlertConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewFromCentral failed: %v", err)
	}
	if client.Enabled() {
		t.Error("expected client to be disabled")
	}
}

func TestSend_DisabledClient(t *testing.T) {
	client, _ := New(Config{Enabled: false})

	err := client.RemoteSyncFailure(context.Background(), "machine-1", 3, errors.New("down"))
	var disabled ErrDisabled
	if !errors.As(err, &disabled) {
		t.Errorf("got %v, want ErrDisabled", err)
	}
}

func TestBuildMessage_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "missing from",
			cfg:     Config{To: []string{"ops@example.com"}},
			wantErr: true,
		},
		{
			name:    "missing recipients",
			cfg:     Config{From: "station@example.com"},
			wantErr: true,
		},
		{
			name: "valid",
			cfg:  Config{From: "station@example.com", To: []string{"ops@example.com"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildMessage(tt.cfg, "subject", "body")
			if (err != nil) != tt.wantErr {
				t.Errorf("buildMessage error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSMTPTimeout_Default(t *testing.T) {
	var cfg Config
	if got := cfg.SMTPTimeout(); got != 30*time.Second {
		t.Errorf("got %v, want 30s", got)
	}

	cfg.SMTPTimeoutSeconds = 5
	if got := cfg.SMTPTimeout(); got != 5*time.Second {
		t.Errorf("got %v, want 5s", got)
	}
}
