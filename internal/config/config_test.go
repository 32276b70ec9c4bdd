package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chameleon/internal/domain"
)

func load(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))

	v, err := NewViper(fs)
	if err != nil {
		return nil, err
	}
	return Load(v)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.GetAddr())
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 5, cfg.Rooms.CodeLength)
	assert.Equal(t, 3*time.Second, cfg.Rooms.EndGrace)
	assert.Equal(t, 2*time.Hour, cfg.Rooms.StaleTimeout)
	assert.Equal(t, "text", cfg.Logging.Format)

	rules, err := cfg.Rules()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultRules(), rules)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chameleon.yaml")
	content := `port: "9000"
min-players: 4
guess-timing: beforeVoting
log-format: json
end-grace: 10s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("CHAMELEON_MAX_PLAYERS", "7")
	t.Setenv("CHAMELEON_PORT", "9100")

	cfg, err := load(t, "--config", path, "--store", "sqlite", "--sqlite-path", filepath.Join(dir, "rooms.db"), "--topic-vote=false")
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port, "env wins over the config file")
	assert.Equal(t, 4, cfg.Game.MinPlayers)
	assert.Equal(t, 7, cfg.Game.MaxPlayers)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 10*time.Second, cfg.Rooms.EndGrace)

	rules, err := cfg.Rules()
	require.NoError(t, err)
	assert.False(t, rules.TopicVoteEnabled)
	assert.Equal(t, domain.GuessBeforeVoting, rules.GuessTiming)
	assert.Equal(t, 4, rules.MinPlayers)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "port out of range", args: []string{"--port", "70000"}},
		{name: "port not a number", args: []string{"--port", "http"}},
		{name: "unknown store", args: []string{"--store", "postgres"}},
		{name: "sqlite without path", args: []string{"--store", "sqlite", "--sqlite-path", ""}},
		{name: "unknown log format", args: []string{"--log-format", "xml"}},
		{name: "short room code", args: []string{"--code-length", "3"}},
		{name: "too few players", args: []string{"--min-players", "2"}},
		{name: "bad guess timing", args: []string{"--guess-timing", "never"}},
		{name: "bad round table", args: []string{"--max-rounds-table", "5-1"}},
		{name: "bad bonuses", args: []string{"--evasion-bonuses", "5,3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestMissingConfigFile(t *testing.T) {
	_, err := load(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadGeminiSettings(t *testing.T) {
	cfg, err := load(t)
	require.NoError(t, err)
	assert.Empty(t, cfg.Topics.GeminiAPIKey)
	assert.Equal(t, "gemini-2.5-flash", cfg.Topics.GeminiModel)

	t.Setenv("CHAMELEON_GEMINI_API_KEY", "secret")
	cfg, err = load(t, "--gemini-model", "gemini-2.5-pro")
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Topics.GeminiAPIKey)
	assert.Equal(t, "gemini-2.5-pro", cfg.Topics.GeminiModel)
}
