package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/audiotrainer/internal/llm"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "audiotrainer.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Engine.IAAC)
	assert.Equal(t, 0, cfg.Engine.IABC)
	assert.Equal(t, 50, cfg.Engine.MaxMaskOffset)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "127.0.0.1:8088", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.False(t, cfg.LLM.Configured())
}

func TestLoad_File(t *testing.T) {
	p := writeConfig(t, `
engine:
  ia_ac: 40
  suppress_cross_hearing: true
  ia_overrides:
    - transducer: AC
      freq: 4000
      db: 65
    - transducer: bc
      freq: 500
      db: 5
logging:
  level: debug
llm:
  provider: mock
  timeout: 10s
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)

	rc, err := cfg.Engine.Response()
	require.NoError(t, err)
	assert.True(t, rc.SuppressCrossHearing)
	assert.Equal(t, 40, rc.Attenuation.AC)
	assert.Equal(t, 50, rc.MaxMaskOffset)
	assert.Equal(t, 65, rc.Attenuation.ACByFreq[4000])
	assert.Equal(t, 5, rc.Attenuation.BCByFreq[500])

	lc := cfg.LLM.Apply(llm.DefaultConfig())
	assert.Equal(t, "mock", lc.Provider)
	assert.Equal(t, 10*time.Second, lc.Timeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	p := writeConfig(t, "engine:\n  ia_ac: 40\n")
	t.Setenv("AUDIOTRAINER_ENGINE_IA_AC", "55")
	t.Setenv("AUDIOTRAINER_LLM_GEMINI_API_KEY", "k")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 55, cfg.Engine.IAAC)
	assert.Equal(t, "k", cfg.LLM.Gemini.APIKey)
	assert.True(t, cfg.LLM.Configured())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEngineResponse_BadOverride(t *testing.T) {
	_, err := EngineConfig{IAOverrides: []IAOverride{{Transducer: "XX", Freq: 1000}}}.Response()
	assert.Error(t, err)

	_, err = EngineConfig{IAOverrides: []IAOverride{{Transducer: "AC", Freq: 1500}}}.Response()
	assert.Error(t, err)
}
