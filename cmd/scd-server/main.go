package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Guilhem-Bonnet/Stream-Channel/internal/adapters/httpapi"
	"github.com/Guilhem-Bonnet/Stream-Channel/internal/adapters/memorybus"
	"github.com/Guilhem-Bonnet/Stream-Channel/internal/adapters/memstate"
	"github.com/Guilhem-Bonnet/Stream-Channel/internal/adapters/sqlite"
	"github.com/Guilhem-Bonnet/Stream-Channel/internal/adapters/tabhub"
	"github.com/Guilhem-Bonnet/Stream-Channel/internal/app"
	"github.com/Guilhem-Bonnet/Stream-Channel/internal/buildinfo"
	"github.com/Guilhem-Bonnet/Stream-Channel/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, cfgErr := config.Load(os.Getenv("SCD_CONFIG"))
	addr := flag.String("addr", cfg.Addr, "Adresse d'écoute (ex: 127.0.0.1:8821)")
	dbPath := flag.String("db", cfg.DBPath, "Chemin SQLite (ex: streamchannel.db)")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("app", "scd-server").Logger()
	log.Logger = logger

	if cfgErr != nil {
		logger.Fatal().Err(cfgErr).Msg("failed to load config")
	}

	logger.Info().Interface("build", buildinfo.Current()).Str("db", *dbPath).Msg("starting")

	ctx := context.Background()
	db, err := sqlite.Open(ctx, *dbPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open db")
	}
	defer func() { _ = db.Close() }()

	bus := memorybus.New()
	channelsRepo := sqlite.NewChannelsRepository(db.SQL)
	settingsRepo := sqlite.NewSettingsRepository(db.SQL)
	stateRepo := memstate.New()
	tabs := tabhub.New(bus)

	channelsSvc := app.NewChannelService(channelsRepo, settingsRepo)
	channelsSvc.SetTitleProber(app.NewHTTPTitleProber())
	settingsSvc := app.NewSettingsService(settingsRepo)
	playbackSvc := app.NewPlaybackService(
		logger.With().Str("component", "playback").Logger(),
		channelsSvc, settingsRepo, stateRepo, tabs, bus,
	)

	// Migre les profils hérités au démarrage; une base saine est un no-op.
	if _, err := channelsSvc.LoadNormalized(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to normalize channels")
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := httpapi.NewServer(logger, playbackSvc, channelsSvc, settingsSvc, tabs, bus)
	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", *addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server crashed")
			stop()
		}
	}()

	<-shutdownCtx.Done()
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	logger.Info().Msg("bye")
}
