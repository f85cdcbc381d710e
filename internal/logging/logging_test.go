package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"", InfoLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestDefaultLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, InfoLevel)

	l.Debug("hidden")
	assert.Empty(t, buf.String())

	l.Info("shown", Fields{"string": "E2"})
	assert.Contains(t, buf.String(), "[INFO] shown string=E2")

	buf.Reset()
	l.SetLevel(DebugLevel)
	l.Debug("now visible")
	assert.Contains(t, buf.String(), "[DEBUG] now visible")
}

func TestDefaultLoggerFieldsAndErrors(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, DebugLevel).WithFields(Fields{"component": "session"})

	l.Error(errors.New("device busy"), "start failed", Fields{"attempt": 1})
	line := buf.String()
	assert.Contains(t, line, "[ERROR] start failed: device busy")
	assert.Contains(t, line, "attempt=1 component=session")
}

func TestWithFieldsSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	parent := New(&buf, ErrorLevel)
	child := parent.WithFields(Fields{"k": "v"})

	parent.SetLevel(DebugLevel)
	child.Debug("child sees parent level")
	assert.Contains(t, buf.String(), "child sees parent level")
}
