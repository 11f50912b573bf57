package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hikgrab.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
camera:
  save: file:///data/frames
  prefix: LINE3-
  poll_timeout: 500ms
  jpeg_quality: 90
  allow_open_failure: true
  metrics_addr: ":9100"
  nats_url: nats://127.0.0.1:4222
  nats_subject: line3.frames
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, CameraConfig{
		Save:             "file:///data/frames",
		Prefix:           "LINE3-",
		PollTimeout:      500 * time.Millisecond,
		JPEGQuality:      90,
		AllowOpenFailure: true,
		MetricsAddr:      ":9100",
		NATSURL:          "nats://127.0.0.1:4222",
		NATSSubject:      "line3.frames",
	}, cfg.Camera)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("camera: [unterminated"), 0o644))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "failed to unmarshal config YAML")
}
