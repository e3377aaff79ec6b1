package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("info", "json", &buf)

	logger.Info("page loaded", "page", 2)

	out := buf.String()
	assert.Contains(t, out, `"msg":"page loaded"`)
	assert.Contains(t, out, `"page":2`)
}

func TestNewWithWriterLogfmt(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("info", "logfmt", &buf)

	logger.Info("page loaded", "key", "jobs")

	assert.Contains(t, buf.String(), "key=jobs")
}

func TestNewWithWriterLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("warn", "text", &buf)

	logger.Info("should not appear")
	logger.Warn("should appear")

	out := buf.String()
	assert.False(t, strings.Contains(out, "should not appear"))
	assert.Contains(t, out, "should appear")
}

func TestNewWithWriterPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("debug", "logfmt", &buf).WithPrefix("pagination")

	logger.Debug("fetch dispatched", "seq", 1)

	assert.Contains(t, buf.String(), "pagination")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]log.Level{
		"debug":   log.DebugLevel,
		"INFO":    log.InfoLevel,
		"warning": log.WarnLevel,
		"warn":    log.WarnLevel,
		"error":   log.ErrorLevel,
		"bogus":   log.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}
