package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"example.com/technotes/app/internal/config"
)

func TestNew_JSONFormatterHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := newWithOutput(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	log.Info("dropped")
	log.WithField("user_id", "u-1").Warn("kept")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	require.Equal(t, "kept", entry["msg"])
	require.Equal(t, "warning", entry["level"])
	require.Equal(t, "u-1", entry["user_id"])
}

func TestNew_TextFormatter(t *testing.T) {
	var buf bytes.Buffer
	log, err := newWithOutput(config.LogConfig{Level: "debug", Format: "text"}, &buf)
	require.NoError(t, err)
	require.Equal(t, logrus.DebugLevel, log.GetLevel())

	log.Debug("hello")
	require.Contains(t, buf.String(), `msg=hello`)
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud", Format: "json"})
	require.Error(t, err)
}
