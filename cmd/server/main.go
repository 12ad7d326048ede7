// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/pomotune/internal/api/connect"
	"github.com/osa030/pomotune/internal/api/pomotune/v1/pomotunev1connect"
	"github.com/osa030/pomotune/internal/app/catalog"
	"github.com/osa030/pomotune/internal/app/filter"
	"github.com/osa030/pomotune/internal/app/session"
	"github.com/osa030/pomotune/internal/infra/audio"
	"github.com/osa030/pomotune/internal/infra/config"
	"github.com/osa030/pomotune/internal/infra/cue"
	"github.com/osa030/pomotune/internal/infra/lastfm"
	"github.com/osa030/pomotune/internal/infra/logger"
	"github.com/osa030/pomotune/internal/infra/spotify"
	"github.com/osa030/pomotune/internal/infra/store"
	"github.com/osa030/pomotune/internal/infra/visibility"
)

var (
	app        = kingpin.New("pomotune-server", "pomotune focus timer and music server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
	noWatch    = app.Flag("no-watch", "Do not reload the config file when it changes").Bool()

	listFiltersCmd = app.Command("list-filters", "List available filters and exit")
	listSourcesCmd = app.Command("list-sources", "List available catalog source types and exit")
)

func init() {
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	switch command {
	case listFiltersCmd.FullCommand():
		printFilters()
		return
	case listSourcesCmd.FullCommand():
		printSources()
		return
	}

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	closeLog, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closeLog()

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %+v", err)
		closeLog()
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, err := store.Open(cfg.Store)
	if err != nil {
		return errors.Wrap(err, "failed to open store")
	}
	defer kv.Close()

	filterChain, err := filter.NewChainFromConfig(cfg)
	if err != nil {
		return errors.Wrap(err, "invalid filter config")
	}

	var spotifyClient catalog.SpotifyClient
	if cfg.HasSourceType("spotify") {
		client, err := spotify.New(ctx, spotify.Config{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			RefreshToken: cfg.Spotify.RefreshToken,
			Market:       cfg.Spotify.Market,
		})
		if err != nil {
			return errors.Wrap(err, "failed to create Spotify client")
		}
		if err := validatePlaylists(ctx, cfg, client); err != nil {
			return errors.Wrap(err, "playlist validation failed")
		}
		spotifyClient = client
	}

	var tagger catalog.GenreTagger
	if cfg.Catalog.LastFM.APIKey != "" {
		client, err := lastfm.New(lastfm.Config{
			APIKey:            cfg.Catalog.LastFM.APIKey,
			RequestsPerSecond: cfg.Catalog.LastFM.RequestsPerSecond,
		})
		if err != nil {
			return errors.Wrap(err, "failed to create Last.fm client")
		}
		tagger = client
	}

	catalogChain, err := catalog.NewChainFromConfig(cfg, spotifyClient, tagger, filterChain)
	if err != nil {
		return errors.Wrap(err, "invalid catalog config")
	}

	backend, err := audio.NewFromConfig(ctx, cfg.Audio)
	if err != nil {
		return errors.Wrap(err, "failed to start audio backend")
	}
	defer backend.Close()

	visibilitySource, err := visibility.NewFromConfig(ctx, cfg.Visibility)
	if err != nil {
		return errors.Wrap(err, "failed to start visibility source")
	}
	defer visibilitySource.Close()

	sessionMgr := session.NewManager(cfg, session.Deps{
		Store:      kv,
		Cue:        cue.NewFromConfig(cfg.Cue),
		Audio:      backend,
		Catalog:    catalogChain,
		Visibility: visibilitySource,
	})

	interceptors := connect.WithInterceptors(apiconnect.NewAuthInterceptor(cfg.Server.APIToken))
	if cfg.Server.APIToken == "" {
		zlog.Warn().Msg("server.api_token is empty, API authentication is disabled")
	}

	mux := http.NewServeMux()
	mux.Handle(pomotunev1connect.NewTimerServiceHandler(apiconnect.NewTimerService(sessionMgr), interceptors))
	mux.Handle(pomotunev1connect.NewPlayerServiceHandler(apiconnect.NewPlayerService(sessionMgr), interceptors))
	mux.Handle(pomotunev1connect.NewSessionServiceHandler(apiconnect.NewSessionService(sessionMgr), interceptors))

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}

	if err := sessionMgr.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start session")
	}

	if !*noWatch {
		if err := config.Watch(ctx, *configPath, sessionMgr.ApplyConfig); err != nil {
			zlog.Warn().Msgf("Config watch disabled: %v", err)
		}
	}

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Give the server a moment to start listening before running hooks
	time.Sleep(100 * time.Millisecond)
	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		runErr = errors.Wrap(err, "server error")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Close session manager first to terminate active streams
	sessionMgr.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}
	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")
	return runErr
}

// printFilters prints available filters.
func printFilters() {
	fmt.Println("Available Filters:")
	registry := filter.GetRegistered()
	for _, name := range filter.RegisteredNames() {
		f := registry[name]()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-24s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}

// printSources prints available catalog source types.
func printSources() {
	fmt.Println("Available Catalog Sources:")
	for _, s := range catalog.ListSourceTypes() {
		fmt.Printf("  %-10s - %s\n", s.Type, s.Description)
	}
}

// validatePlaylists checks that configured Spotify playlists exist.
// It retries with backoff to ride out transient errors during startup.
func validatePlaylists(ctx context.Context, cfg *config.Config, client *spotify.Client) error {
	const maxRetries = 5
	baseDelay := 1 * time.Second

	var errs []string
	for _, src := range cfg.Catalog.Sources {
		if src.Type != "spotify" {
			continue
		}
		url, _ := src.Settings["playlist_url"].(string)
		if url == "" {
			continue
		}

		var lastErr error
		for i := 0; i < maxRetries; i++ {
			if i > 0 {
				delay := baseDelay * time.Duration(1<<uint(i-1))
				zlog.Info().Msgf("Retrying playlist validation in %v: source=%s", delay, src.DisplayName)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(delay):
				}
			}
			if lastErr = client.CheckPlaylistExists(ctx, url); lastErr == nil {
				zlog.Info().Msgf("Playlist validated: source=%s", src.DisplayName)
				break
			}
			zlog.Warn().Msgf("Failed to validate playlist (attempt %d/%d): source=%s error=%v", i+1, maxRetries, src.DisplayName, lastErr)
		}
		if lastErr != nil {
			errs = append(errs, fmt.Sprintf("%s (%s): %v", src.DisplayName, url, lastErr))
		}
	}

	if len(errs) > 0 {
		return errors.Newf("playlist validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
