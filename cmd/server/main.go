package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/woozymasta/geopaint/internal/config"
	"github.com/woozymasta/geopaint/internal/event"
	"github.com/woozymasta/geopaint/internal/loader"
	"github.com/woozymasta/geopaint/internal/logger"
	"github.com/woozymasta/geopaint/internal/server"
	"github.com/woozymasta/geopaint/internal/tiles"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config"   env:"CONFIG_FILE"    description:"Path to configuration file" default:"config.yaml"`
	Addr       string `short:"a" long:"addr"     env:"LISTEN_ADDRESS" description:"Address to listen on"       default:"0.0.0.0"`
	Port       int    `short:"p" long:"port"     env:"LISTEN_PORT"    description:"Port to listen on"          default:"8080"`
	Minify     bool   `short:"m" long:"minify"   env:"MINIFY"         description:"Serve minified page assets"`
	NoTiles    bool   `long:"no-tiles"           env:"NO_TILES"       description:"Let the page load tiles from the upstream host"`
	NoDataset  bool   `long:"no-dataset"         env:"NO_DATASET"     description:"Skip loading the default dataset at startup"`
}

func main() {
	// .env is optional
	_ = godotenv.Load(".env")

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.Load(opts.ConfigFile, true)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := event.NewLoop(256)
	go loop.Run(ctx)

	var tileCache *tiles.Cache
	if !opts.NoTiles {
		tileCache = tiles.New(&http.Client{Timeout: 15 * time.Second}, cfg.Surface)
	}

	srvCtx, err := server.NewServerContext(cfg, loop, tileCache, opts.Minify)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}
	go srvCtx.Run(ctx)

	if !opts.NoDataset {
		go func() {
			// failures are logged and alerted by the loader
			_ = srvCtx.LoadDefault(ctx, loader.New(nil, cfg.Dataset, srvCtx))
		}()
	}

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           srvCtx.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", listenAddr).
			Bool("tiles_proxy", tileCache != nil).
			Str("dataset", cfg.Dataset.URL).
			Msg("Web server started")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
