package log

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/vfraga/wso2-custom-secret-vault/internal/config"
)

func TestNewLoggerLevel(t *testing.T) {
	var cfg config.Config
	cfg.Logging.Level = "warn"
	if got := NewLogger(cfg).GetLevel(); got != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %s", got)
	}

	cfg.Logging.Level = "loud"
	if got := NewLogger(cfg).GetLevel(); got != zerolog.InfoLevel {
		t.Fatalf("invalid level should fall back to info, got %s", got)
	}
}
