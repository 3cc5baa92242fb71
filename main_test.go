package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/citygrid/api"
	"github.com/wricardo/citygrid/game/config"
	"github.com/wricardo/citygrid/transport/mcp"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName != "citygrid" {
		t.Errorf("Expected app name citygrid, got %s", AppName)
	}
}

func TestNewApp_Commands(t *testing.T) {
	app := newApp()

	assert.Equal(t, "serve", app.DefaultCommand)
	var names []string
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.Equal(t, []string{"serve", "stdio-mcp", "validate"}, names)
}

func TestLoadSettings_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("CITYGRID_HOST", "0.0.0.0")
	t.Setenv("CITYGRID_PORT", "7000")
	t.Setenv("CITYGRID_STARTING_MOVES", "4")

	var settings config.Settings
	cmd := &cli.Command{
		Name:  "test",
		Flags: serverFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) (err error) {
			settings, err = loadSettings(cmd)
			return err
		},
	}

	envFile := filepath.Join(t.TempDir(), "missing.env")
	err := cmd.Run(context.Background(), []string{"test", "--port", "9999", "--player-timeout", "2m", "--env-file", envFile})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", settings.Host)
	assert.Equal(t, 9999, settings.Port)
	assert.Equal(t, 4, settings.StartingMoves)
	assert.Equal(t, 2*time.Minute, settings.PlayerTimeout)
}

func TestLoadSettings_RejectsInvalid(t *testing.T) {
	cmd := &cli.Command{
		Name:  "test",
		Flags: serverFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, err := loadSettings(cmd)
			return err
		},
	}

	envFile := filepath.Join(t.TempDir(), "missing.env")
	err := cmd.Run(context.Background(), []string{"test", "--starting-moves", "0", "--env-file", envFile})
	assert.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	setupLogging(true, &bytes.Buffer{})
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	setupLogging(false, &bytes.Buffer{})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestInitializeServices_MissingBoardDir(t *testing.T) {
	settings := config.Settings{
		BoardDir:      "/non/existent/path",
		StartingMoves: 6,
		PlayerTimeout: time.Minute,
	}

	gameService, err := initializeServices(settings, nil)
	require.NoError(t, err)

	boards, err := gameService.ListBoards(context.Background())
	require.NoError(t, err)
	require.Len(t, boards, 1)
	assert.Equal(t, config.DefaultBoardName, boards[0].BoardID)
}

func TestInitializeServices_UnknownDefaultBoard(t *testing.T) {
	settings := config.Settings{
		BoardDir:      t.TempDir(),
		DefaultBoard:  "atlantis",
		StartingMoves: 6,
		PlayerTimeout: time.Minute,
	}

	_, err := initializeServices(settings, nil)
	assert.Error(t, err)
}

func TestRouter_MCPEndpoint(t *testing.T) {
	gameService, err := initializeServices(config.Settings{StartingMoves: 6, PlayerTimeout: time.Minute}, nil)
	require.NoError(t, err)

	apiServer := api.NewServer(gameService, nil)
	srv := httptest.NewServer(apiServer)
	defer srv.Close()

	router := newRouter(apiServer, mcp.NewClient(srv.URL))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/mcp", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = httptest.NewRecorder()
	body := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"list_boards","arguments":{}}}`
	router.ServeHTTP(w, httptest.NewRequest("POST", "/mcp", strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Available Boards (1)")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRunValidate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"name": "bad"}`), 0644))

	var out bytes.Buffer
	err := runValidate(&out, dir, nil)
	assert.Error(t, err)
	assert.Contains(t, out.String(), "✗ INVALID")
	assert.Contains(t, out.String(), "0/1 boards valid")
}

func TestRunValidate_ShippedBoards(t *testing.T) {
	if _, err := os.Stat("boards"); os.IsNotExist(err) {
		t.Skip("Skipping test - boards directory not found")
	}

	var out bytes.Buffer
	require.NoError(t, runValidate(&out, "boards", nil), out.String())
}
