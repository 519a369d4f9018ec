package app

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{LogFormat: "json", LogLevel: "warn"})

	logger.Info("dashboard warmed")
	require.Empty(t, buf.String(), "info is below warn")

	logger.Warn("redis close")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "redis close", entry["msg"])
	require.Equal(t, serviceName, entry["service"])
	require.Contains(t, entry, "source")
}

func TestNewLoggerTextDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, nil)
	logger.Debug("hidden")
	logger.Info("starting http server")
	out := buf.String()
	require.False(t, strings.Contains(out, "hidden"))
	require.Contains(t, out, "msg=\"starting http server\"")
	require.Contains(t, out, "service=odyssey-po")
}
