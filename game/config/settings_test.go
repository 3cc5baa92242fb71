package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "localhost", settings.Host)
	assert.Equal(t, 8080, settings.Port)
	assert.Equal(t, "boards", settings.BoardDir)
	assert.Equal(t, "default", settings.DefaultBoard)
	assert.Equal(t, 6, settings.StartingMoves)
	assert.Equal(t, 90*time.Second, settings.PlayerTimeout)
	assert.Equal(t, 15*time.Second, settings.SweepInterval)
	assert.False(t, settings.Debug)
	assert.Equal(t, "localhost:8080", settings.Addr())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("CITYGRID_PORT", "9191")
	t.Setenv("CITYGRID_STARTING_MOVES", "4")
	t.Setenv("CITYGRID_PLAYER_TIMEOUT", "2m")
	t.Setenv("CITYGRID_DEBUG", "true")
	t.Setenv("NGROK_AUTH_TOKEN", "legacy-token")

	settings, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 9191, settings.Port)
	assert.Equal(t, 4, settings.StartingMoves)
	assert.Equal(t, 2*time.Minute, settings.PlayerTimeout)
	assert.True(t, settings.Debug)
	assert.Equal(t, "legacy-token", settings.Ngrok.AuthToken)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CITYGRID_BOARD_DIR=/srv/boards\nCITYGRID_DEFAULT_BOARD=harbour\n"), 0644))
	t.Cleanup(func() {
		os.Unsetenv("CITYGRID_BOARD_DIR")
		os.Unsetenv("CITYGRID_DEFAULT_BOARD")
	})

	settings, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/boards", settings.BoardDir)
	assert.Equal(t, "harbour", settings.DefaultBoard)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero moves", "CITYGRID_STARTING_MOVES", "0"},
		{"negative timeout", "CITYGRID_PLAYER_TIMEOUT", "-1s"},
		{"port out of range", "CITYGRID_PORT", "70000"},
		{"not a number", "CITYGRID_PORT", "eighty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}
