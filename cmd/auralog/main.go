// Command auralog runs the listening-tracker API server.
package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbenett/auralog/internal/catalog"
	"github.com/tbenett/auralog/internal/config"
	"github.com/tbenett/auralog/internal/db"
	"github.com/tbenett/auralog/internal/discogs"
	"github.com/tbenett/auralog/internal/history"
	"github.com/tbenett/auralog/internal/ingest"
	"github.com/tbenett/auralog/internal/lastfm"
	"github.com/tbenett/auralog/internal/playlist"
	"github.com/tbenett/auralog/internal/spotify"
	"github.com/tbenett/auralog/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("loading configuration")
	}

	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	location, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("resolving timezone")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to database")
	}
	defer database.Close()
	log.Info().Msg("database connection verified")

	historySvc := history.New(database.Listens(), history.Config{
		Location:        location,
		MaxPageSize:     cfg.MaxPageSize,
		TimelineHourCap: cfg.TimelineHourCap,
		CacheTTL:        cfg.CacheTTL,
	})

	playlistSvc := playlist.New(
		database.Playlists(),
		database.Listens(),
		playlist.DefaultGeneratorConfig(),
		location,
		log.With().Str("component", "playlist").Logger(),
	)

	// Optional collaborators: missing credentials disable them and the
	// service runs degraded on denormalized data.
	var trackSearcher catalog.TrackSearcher
	if cfg.SpotifyID != "" && cfg.SpotifySecret != "" {
		spotifyClient, err := spotify.New(ctx, cfg.SpotifyID, cfg.SpotifySecret)
		if err != nil {
			log.Error().Err(err).Msg("spotify client unavailable, continuing without it")
		} else {
			trackSearcher = spotifyClient
		}
	} else {
		log.Warn().Msg("SPOTIFY_ID/SPOTIFY_SECRET not set, spotify enrichment disabled")
	}

	var releaseSearcher catalog.ReleaseSearcher
	if cfg.DiscogsToken != "" {
		releaseSearcher = discogs.NewClient(cfg.DiscogsToken)
	} else {
		log.Warn().Msg("DISCOGS_TOKEN not set, discogs enrichment disabled")
	}

	catalogSvc := catalog.New(
		database.Tracks(),
		database.Artists(),
		trackSearcher,
		releaseSearcher,
		log.With().Str("component", "catalog").Logger(),
	)

	var syncer web.Syncer
	if lastfmCfg, err := lastfm.LoadConfig(); err != nil {
		log.Warn().Err(err).Msg("scrobble sync disabled")
	} else {
		ingestSvc := ingest.New(
			lastfm.NewClient(lastfmCfg),
			database.Listens(),
			database.Tracks(),
			database.Artists(),
			historySvc,
			log.With().Str("component", "ingest").Logger(),
		)
		syncer = ingestSvc

		scheduler := ingest.NewScheduler(
			ingestSvc,
			catalogSvc,
			cfg.SyncInterval,
			log.With().Str("component", "scheduler").Logger(),
		)
		go scheduler.Run(ctx)
	}

	handlers := web.NewHandlers(historySvc, playlistSvc, catalogSvc, syncer, database, log.Logger)
	server := web.NewServer(web.ServerConfig{
		Addr:     cfg.Addr,
		Handlers: handlers,
		Log:      log.Logger,
	})

	if err := server.Run(); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
