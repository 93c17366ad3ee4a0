package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_ConsoleLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Level = "info"

	log, err := New(cfg, &buf)
	require.NoError(t, err)
	log.Debug("hidden")
	log.Info("case generated", zap.Int64("seed", 7))
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "case generated")
	assert.Contains(t, out, `"seed": 7`)
}

func TestNew_FileCore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "audiotrainer.log")
	cfg := DefaultConfig()
	cfg.Level = "debug"
	cfg.File = path
	cfg.Compress = false

	log, err := New(cfg, &bytes.Buffer{})
	require.NoError(t, err)
	log.Warn("over-masking", zap.String("ear", "L"))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"over-masking"`)
	assert.Contains(t, string(data), `"level":"WARN"`)
}

func TestNew_BadLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "loud"
	_, err := New(cfg, nil)
	assert.Error(t, err)
}
