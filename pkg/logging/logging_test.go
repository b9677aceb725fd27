package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zpam/sms-filter/pkg/config"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("model saved", zap.String("path", "m.zsms"), zap.Int("vocabulary", 12))
	require.NoError(t, log.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	require.Equal(t, "model saved", entry["msg"])
	require.Equal(t, "m.zsms", entry["path"])
	require.Equal(t, float64(12), entry["vocabulary"])
}

func TestNewWithWriterText(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(config.LoggingConfig{Level: "debug", Format: "text"}, &buf)
	require.NoError(t, err)

	log.Debug("tokenized", zap.Int("tokens", 3))
	require.Contains(t, buf.String(), "DEBUG")
	require.Contains(t, buf.String(), "tokenized")
}

func TestNewErrors(t *testing.T) {
	_, err := NewWithWriter(config.LoggingConfig{Level: "loud", Format: "json"}, &bytes.Buffer{})
	require.Error(t, err)

	_, err = NewWithWriter(config.LoggingConfig{Level: "info", Format: "xml"}, &bytes.Buffer{})
	require.Error(t, err)
}

func TestNewToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zsms.log")
	log, err := New(config.LoggingConfig{Level: "warn", Format: "json", File: path, MaxSizeMB: 1, MaxBackups: 1})
	require.NoError(t, err)

	log.Warn("cache unavailable")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "cache unavailable")
}

func TestOrNop(t *testing.T) {
	require.NotNil(t, OrNop(nil))
	l := zap.NewExample()
	require.Same(t, l, OrNop(l))
}
