// Command citygrid starts the citygrid game server.
//
// It supports three commands:
//  1. "serve" (default) runs the HTTP server exposing the REST API, WebSocket and an /mcp HTTP endpoint
//  2. "stdio-mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "validate" checks board files
//
// Settings come from CITYGRID_* environment variables (and a .env file);
// flags override them.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/citygrid/api"
	"github.com/wricardo/citygrid/game/config"
	"github.com/wricardo/citygrid/game/controller"
	"github.com/wricardo/citygrid/game/logging"
	"github.com/wricardo/citygrid/game/rules"
	"github.com/wricardo/citygrid/game/service"
	"github.com/wricardo/citygrid/transport/mcp"
	"github.com/wricardo/citygrid/transport/websocket"
	"github.com/wricardo/citygrid/validate"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "citygrid"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("citygrid failed")
	}
}

func serverFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "host", Usage: "HTTP server host"},
		&cli.IntFlag{Name: "port", Usage: "HTTP server port"},
		&cli.StringFlag{Name: "board-dir", Usage: "Directory containing board files"},
		&cli.StringFlag{Name: "default-board", Usage: "Board used when a game names none"},
		&cli.IntFlag{Name: "starting-moves", Usage: "Moves each player gets at the start of their turn"},
		&cli.DurationFlag{Name: "player-timeout", Usage: "How long a player id lives without a check-in"},
		&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
		&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "Environment file to load"},
	}
}

func newApp() *cli.Command {
	serve := &cli.Command{
		Name:    "serve",
		Aliases: []string{"server", "http"},
		Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
		Flags: append(serverFlags(),
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel"},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token (or use NGROK_AUTHTOKEN env var)"},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			return runHTTPServer(ctx, settings)
		},
	}

	return &cli.Command{
		Name:           AppName,
		Usage:          "Multiplayer city routing game server",
		Version:        Version,
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			serve,
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Flags:   serverFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					settings, err := loadSettings(cmd)
					if err != nil {
						return err
					}
					return runStdioMCPWithInternalServer(ctx, settings)
				},
			},
			{
				Name:      "validate",
				Usage:     "Validate board files (defaults to every board in the board directory)",
				ArgsUsage: "[board files...]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "board-dir", Value: "boards", Usage: "Directory to validate when no files are given"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runValidate(cmd.Root().Writer, cmd.String("board-dir"), cmd.Args().Slice())
				},
			},
		},
	}
}

// loadSettings reads env settings and applies any flags that were set
func loadSettings(cmd *cli.Command) (config.Settings, error) {
	settings, err := config.Load(cmd.String("env-file"))
	if err != nil {
		return settings, fmt.Errorf("failed to load settings: %w", err)
	}

	if cmd.IsSet("host") {
		settings.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		settings.Port = cmd.Int("port")
	}
	if cmd.IsSet("board-dir") {
		settings.BoardDir = cmd.String("board-dir")
	}
	if cmd.IsSet("default-board") {
		settings.DefaultBoard = cmd.String("default-board")
	}
	if cmd.IsSet("starting-moves") {
		settings.StartingMoves = cmd.Int("starting-moves")
	}
	if cmd.IsSet("player-timeout") {
		settings.PlayerTimeout = cmd.Duration("player-timeout")
	}
	if cmd.IsSet("debug") {
		settings.Debug = cmd.Bool("debug")
	}
	if cmd.IsSet("ngrok") {
		settings.Ngrok.Enabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-auth") {
		settings.Ngrok.AuthToken = cmd.String("ngrok-auth")
	}
	if cmd.IsSet("ngrok-domain") {
		settings.Ngrok.Domain = cmd.String("ngrok-domain")
	}

	setupLogging(settings.Debug, os.Stderr)
	return settings, settings.Validate()
}

// setupLogging writes human readable logs in debug mode and JSON otherwise
func setupLogging(debug bool, out io.Writer) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen})
		return
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// initializeServices wires the board manager, the controller and the game
// service
func initializeServices(settings config.Settings, broadcaster service.Broadcaster) (service.GameService, error) {
	boardDir := settings.BoardDir
	if _, err := os.Stat(boardDir); boardDir != "" && errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("dir", boardDir).Msg("board directory not found, serving the built-in board only")
		boardDir = ""
	}

	boards, err := config.NewManager(boardDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create board manager: %w", err)
	}
	if settings.DefaultBoard != "" && settings.DefaultBoard != config.DefaultBoardName {
		if err := boards.SetDefault(settings.DefaultBoard); err != nil {
			return nil, fmt.Errorf("failed to set default board: %w", err)
		}
	}

	ctrl := controller.New(
		logging.New(log.Logger),
		rules.Default(),
		controller.WithStartingMoves(settings.StartingMoves),
		controller.WithPlayerTimeout(settings.PlayerTimeout),
	)

	var opts []service.Option
	opts = append(opts, service.WithPlayerTimeout(settings.PlayerTimeout))
	if broadcaster != nil {
		opts = append(opts, service.WithBroadcaster(broadcaster))
	}
	return service.NewGameService(ctrl, boards, opts...), nil
}

// newRouter combines the API server and the /mcp proxy endpoint
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	mainRouter := http.NewServeMux()

	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return mainRouter
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled, it also provisions a public tunnel.
func runHTTPServer(parent context.Context, settings config.Settings) error {
	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	gameService, err := initializeServices(settings, hub)
	if err != nil {
		return err
	}

	addr := settings.Addr()
	mainRouter := newRouter(api.NewServer(gameService, hub), mcp.NewClient("http://"+addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		service.RunSweeper(ctx, gameService, settings.SweepInterval)
	}()

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("version", Version).Msg("HTTP server listening")
		log.Info().Msgf("REST API: http://%s/api", addr)
		log.Info().Msgf("WebSocket: ws://%s/ws?game=<game_id>", addr)
		log.Info().Msgf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if settings.Ngrok.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, settings.Ngrok, mainRouter)
		}()
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down...")
	case err := <-serveErr:
		if err != nil {
			stop()
			wg.Wait()
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info().Msg("Server stopped")
	return nil
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, settings config.NgrokSettings, handler http.Handler) {
	logger := log.With().Str("service", "ngrok").Logger()

	if settings.AuthToken == "" {
		logger.Warn().Msg("Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if settings.Domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(settings.Domain))
		logger.Info().Str("domain", settings.Domain).Msg("Using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(settings.AuthToken))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to start ngrok tunnel")
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	logger.Info().Str("url", ngrokURL).Msg("Ngrok tunnel established")
	logger.Info().Msgf("REST API (ngrok): %s/api", ngrokURL)
	logger.Info().Msgf("WebSocket (ngrok): %s/ws?game=<game_id>", strings.Replace(ngrokURL, "https://", "wss://", 1))
	logger.Info().Msgf("MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Error().Err(err).Msg("Ngrok server error")
	}
	logger.Info().Msg("Ngrok tunnel closed")
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at the configured address; if unavailable, it
// starts an internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, settings config.Settings) error {
	externalURL := "http://" + settings.Addr()
	log.Info().Str("url", externalURL).Msg("Checking for external API server")

	baseURL := externalURL
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Info().Str("url", externalURL).Msg("External API server found, using it for MCP")
	} else {
		log.Info().Msg("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		hub := websocket.NewHub()
		go hub.Run()
		defer hub.Stop()

		gameService, err := initializeServices(settings, hub)
		if err != nil {
			listener.Close()
			return err
		}

		sweepCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go service.RunSweeper(sweepCtx, gameService, settings.SweepInterval)

		httpServer := &http.Server{Handler: api.NewServer(gameService, hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("Internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + listener.Addr().String()
		log.Info().Str("url", baseURL).Msg("Internal HTTP server started for MCP stdio")
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info().Str("api", baseURL).Msg("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// runValidate validates the given files, or every board in dir when none
// are given, and prints a report. It fails when any board is invalid.
func runValidate(out io.Writer, dir string, files []string) error {
	var results []validate.Result
	if len(files) == 0 {
		var err error
		if results, err = validate.Dir(dir); err != nil {
			return err
		}
	} else {
		for _, file := range files {
			results = append(results, validate.File(file))
		}
	}

	invalid := 0
	for _, result := range results {
		fmt.Fprintf(out, "\n%s %s\n", strings.Repeat("=", 20), result.File)
		if result.Valid {
			fmt.Fprintln(out, "✓ VALID")
		} else {
			invalid++
			fmt.Fprintln(out, "✗ INVALID")
		}
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  error: %s\n", e)
		}
		for _, w := range result.Warnings {
			fmt.Fprintf(out, "  warning: %s\n", w)
		}
	}

	fmt.Fprintf(out, "\n%d/%d boards valid\n", len(results)-invalid, len(results))
	if invalid > 0 {
		return fmt.Errorf("%d invalid board(s)", invalid)
	}
	return nil
}
