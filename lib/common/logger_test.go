package common

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
)

func TestParseLogLevel(t *testing.T) {
	levels := map[string]logger.LogLevel{
		"debug":   logger.DEBUG,
		"INFO":    logger.INFO,
		"warn":    logger.WARNING,
		"warning": logger.WARNING,
		"error":   logger.ERROR,
	}
	for in, want := range levels {
		got, err := ParseLogLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLogLevel(%q) = %v, %v; expected %v", in, got, err, want)
		}
	}

	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Errorf("Expected an error for an unknown level")
	}
}

func TestLoggerFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	l := CreateLogger("klist")
	l.Debugf("hidden %d", 1)
	l.Warningf("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Debug message logged at the default level: %q", out)
	}
	if !strings.Contains(out, "WARN  | klist    | shown 2") {
		t.Errorf("Unexpected log line %q", out)
	}

	buf.Reset()
	l.SetLevel(logger.DEBUG)
	l.Debugf("visible")
	if !strings.Contains(buf.String(), "DEBUG | klist    | visible") {
		t.Errorf("Debug message not logged after SetLevel: %q", buf.String())
	}
}
