package cmd

import (
	"path/filepath"
	"runtime/debug"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/casegen"
	"github.com/abhisek/audiotrainer/internal/store"
)

func caseFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addCaseFlags(fs)
	fs.Int64("seed", 0, "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestCaseOpts(t *testing.T) {
	opts, err := caseOpts(caseFlagSet(t, "--seed", "9", "--profile", "CHL_OME", "--sex", "F", "--severity", "0"))
	require.NoError(t, err)
	assert.Equal(t, int64(9), opts.Seed)
	assert.Equal(t, "CHL_OME", opts.Profile)
	require.NotNil(t, opts.Severity)
	assert.Equal(t, 0, *opts.Severity)

	opts, err = caseOpts(caseFlagSet(t))
	require.NoError(t, err)
	assert.Nil(t, opts.Severity, "severity is drawn by default")

	_, err = caseOpts(caseFlagSet(t, "--sex", "X"))
	assert.ErrorIs(t, err, casegen.ErrInvalidOpts)
}

func TestMeasurementRows(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	first := store.NewMeasurement("u", "s", "c",
		audiometry.Point{Ear: audiometry.Right, Transducer: audiometry.AC, Frequency: 1000, Level: 40}, audiometry.NoMasking, at)
	replot := store.NewMeasurement("u", "s", "c",
		audiometry.Point{Ear: audiometry.Right, Transducer: audiometry.AC, Frequency: 1000, Level: 35}, audiometry.NoMasking, at.Add(time.Second))
	left := store.NewMeasurement("u", "s", "c",
		audiometry.Point{Ear: audiometry.Left, Transducer: audiometry.BC, Frequency: 500, Level: 20, Masked: true}, 50, at.Add(2*time.Second))

	rows, points := measurementRows([]store.Measurement{first, replot, left})
	require.Len(t, rows, 3)
	assert.Equal(t, 3, rows[2].Index)
	assert.Equal(t, "50", rows[2].MaskerLevel)

	require.Len(t, points, 2)
	assert.Equal(t, 35, points[0].Level, "later plot replaces the slot")
	assert.Equal(t, audiometry.Left, points[1].Ear)
}

func TestAggregateUsage(t *testing.T) {
	events := []store.LLMRequestEvent{
		{LLMRequestEventData: store.LLMRequestEventData{Model: "gpt-4o-mini", InputTokens: 100, OutputTokens: 50, LatencyMs: 200}},
		{LLMRequestEventData: store.LLMRequestEventData{Model: "gpt-4o-mini", InputTokens: 300, OutputTokens: 150, LatencyMs: 400}},
		{LLMRequestEventData: store.LLMRequestEventData{Model: "mock", InputTokens: 1, OutputTokens: 1}},
	}
	usage := aggregateUsage(events)
	require.Len(t, usage, 2)
	assert.Equal(t, "gpt-4o-mini", usage[0].model)
	assert.Equal(t, 2, usage[0].calls)
	assert.Equal(t, 400, usage[0].inputTokens)
	assert.Equal(t, int64(600), usage[0].latencyMs)
}

func TestFormatCost(t *testing.T) {
	assert.Equal(t, "$0.0012", formatCost(0.0012))
	assert.Equal(t, "$1.50", formatCost(1.5))
	assert.Equal(t, "abc", truncate("abcdef", 3))
}

func TestResolveDBPath_CreatesDir(t *testing.T) {
	cfg, err := loadConfig(rootCmd)
	require.NoError(t, err)
	cfg.Store.Path = filepath.Join(t.TempDir(), "nested", "db.sqlite")

	p, err := resolveDBPath(cfg)
	require.NoError(t, err)
	assert.DirExists(t, filepath.Dir(p))
}

func TestResetRequiresConfirmation(t *testing.T) {
	rootCmd.SetArgs([]string{"reset", "--db", filepath.Join(t.TempDir(), "x.db")})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}

func TestVersionInfo(t *testing.T) {
	assert.Equal(t, "(devel)", versionInfo(nil).Version)

	bi := &debug.BuildInfo{
		GoVersion: "go1.25.6",
		Main:      debug.Module{Path: "github.com/abhisek/audiotrainer", Version: "v0.3.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	info := versionInfo(bi)
	assert.Equal(t, "v0.3.0", info.Version)
	assert.Equal(t, "0123456789ab", info.Revision)
	assert.Equal(t, "audiotrainer v0.3.0 (0123456789ab, dirty) go1.25.6", info.String())

	old := version
	version = "v9.9.9"
	t.Cleanup(func() { version = old })
	assert.Equal(t, "v9.9.9", versionInfo(bi).Version)
}
