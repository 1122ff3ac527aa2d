// Command spotify-receipt runs the Spotify listening receipt web application.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/justestif/go-spotify-receipt/internal/commentary"
	"github.com/justestif/go-spotify-receipt/internal/config"
	"github.com/justestif/go-spotify-receipt/internal/db"
	"github.com/justestif/go-spotify-receipt/internal/web"
	webfs "github.com/justestif/go-spotify-receipt/web"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.ClientID == "" {
		return fmt.Errorf("spotify client ID not set: use SPOTIFY_ID or client_id in config.toml")
	}

	ctx := context.Background()

	var database *db.DB
	if cfg.DatabaseURL != "" {
		database, err = db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()

		if err := database.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("preparing database: %w", err)
		}
		if err := database.Sessions().DeleteExpired(ctx); err != nil {
			log.Warn().Err(err).Msg("cleaning up expired sessions failed")
		}
		log.Info().Msg("using database-backed sessions")
	}

	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		return fmt.Errorf("creating templates filesystem: %w", err)
	}

	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:        cfg.Addr,
		ClientID:    cfg.ClientID,
		RedirectURI: cfg.RedirectURI,
		Database:    database,
		Commentary:  commentary.NewClient(cfg.Commentary.BaseURL, cfg.Commentary.APIKey, cfg.Commentary.Model),
		TemplatesFS: templates,
		StaticFS:    static,
		Log:         log.Logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run()
}
