package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/woozymasta/geopaint/internal/config"
	"github.com/woozymasta/geopaint/internal/geo"
	"github.com/woozymasta/geopaint/internal/loader"
	"github.com/woozymasta/geopaint/internal/logger"
	"github.com/woozymasta/geopaint/internal/tiles"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string `short:"c" long:"config"       env:"CONFIG_FILE" description:"Path to configuration file" default:"config.yaml"`
	Concurrency int    `short:"p" long:"concurrency"  env:"CONCURRENCY" description:"Concurrency" default:"16"`
	ZoomLimit   int    `short:"z" long:"zoom-limit"   env:"ZOOM_LIMIT"  description:"Tiles zoom limit, 0 for the surface max zoom" default:"9"`
	TilesOnly   bool   `short:"t" long:"tiles-only"   description:"Download tiles only"`
	DatasetOnly bool   `short:"g" long:"dataset-only" description:"Download the dataset only"`
	Force       bool   `short:"f" long:"force"        description:"Force overwrite of the cached dataset"`
}

func main() {
	_ = godotenv.Load(".env")

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile, true)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := &http.Client{
		Transport: &http.Transport{
			TLSNextProto:        make(map[string]func(string, *tls.Conn) http.RoundTripper),
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
		},
		Timeout: 30 * time.Second,
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = 16
	}

	log.Info().
		Str("dataset", cfg.Dataset.URL).
		Int("zoom_limit", opts.ZoomLimit).
		Bool("force", opts.Force).
		Msg("Starting loader")

	// tiles cover the dataset bound, so the dataset is always read
	l := loader.New(client, cfg.Dataset, nil)
	fc, err := l.Prefetch(ctx, opts.Force && !opts.TilesOnly)
	if err != nil {
		log.Fatal().Err(err).Str("url", cfg.Dataset.URL).Msg("Failed to fetch dataset")
	}

	log.Info().
		Str("path", l.CachePath()).
		Int("features", len(fc.Features)).
		Msg("Dataset cached")

	if opts.DatasetOnly && !opts.TilesOnly {
		log.Info().Msg("Loader finished successfully")
		return
	}

	bound, err := geo.CollectionBound(fc.Features)
	if err != nil {
		log.Fatal().Err(err).Msg("Dataset has no usable bounds")
	}

	start := time.Now()
	cache := tiles.New(client, cfg.Surface)
	count := cache.Prefetch(ctx, bound, opts.ZoomLimit, opts.Concurrency)

	log.Info().
		Int("tiles", count).
		Dur("duration", time.Since(start)).
		Msg("Loader finished successfully")
}
