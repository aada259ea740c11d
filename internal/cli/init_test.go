package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetupLogger_LevelFallback(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&buf, "loud", "test")

	if !strings.Contains(buf.String(), "Falling back to info logging") {
		t.Fatalf("expected fallback warning, got %q", buf.String())
	}

	buf.Reset()
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug output should be filtered at info level: %q", buf.String())
	}
}

func TestLoadConfig_ReportsValidationErrors(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	if _, err := LoadConfig(); err == nil || !strings.Contains(err.Error(), "invalid port") {
		t.Fatalf("expected port validation error, got %v", err)
	}
}
