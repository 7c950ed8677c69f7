// Package loader fetches region layers from the default remote dataset or local files.
package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/geopaint/internal/config"
	"github.com/woozymasta/geopaint/internal/geo"
	"github.com/woozymasta/geopaint/internal/metrics"
)

// AlertMessage is shown to the user when the default dataset cannot be loaded.
const AlertMessage = `Could not load the default GeoJSON. Use "Load local GeoJSON" in the panel.`

// Alerter presents a message to the user.
type Alerter interface {
	Alert(message string)
}

// AlertFunc adapts a function to the Alerter interface.
type AlertFunc func(message string)

// Alert calls f(message).
func (f AlertFunc) Alert(message string) {
	f(message)
}

// Loader loads the default dataset with a force-cache policy:
// a cached copy is always preferred over the network.
type Loader struct {
	Client   *http.Client
	Alerter  Alerter
	URL      string
	CacheDir string
}

// New creates a loader for the configured dataset.
func New(client *http.Client, cfg config.Dataset, alerter Alerter) *Loader {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Loader{
		Client:   client,
		Alerter:  alerter,
		URL:      cfg.URL,
		CacheDir: cfg.CacheDir,
	}
}

// CachePath returns the file the dataset is cached in, or "" when caching is off.
func (l *Loader) CachePath() string {
	if l.CacheDir == "" {
		return ""
	}

	name := "dataset.geojson"
	if u, err := url.Parse(l.URL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "." && base != "/" {
			name = base
		}
	}

	return filepath.Join(l.CacheDir, name)
}

// LoadDefault returns the default dataset. Any failure is logged and reported
// to the alerter once; there is no retry.
func (l *Loader) LoadDefault(ctx context.Context) (*geojson.FeatureCollection, error) {
	fc, source, err := l.loadDefault(ctx)
	if err != nil {
		metrics.DatasetLoadsTotal.WithLabelValues(source, "error").Inc()
		log.Error().
			Err(err).
			Str("url", l.URL).
			Msg("Failed to load default GeoJSON")

		if l.Alerter != nil {
			l.Alerter.Alert(AlertMessage)
		}
		return nil, err
	}

	metrics.DatasetLoadsTotal.WithLabelValues(source, "ok").Inc()
	log.Info().
		Str("source", source).
		Int("features", len(fc.Features)).
		Msg("Default GeoJSON loaded")

	return fc, nil
}

func (l *Loader) loadDefault(ctx context.Context) (*geojson.FeatureCollection, string, error) {
	cachePath := l.CachePath()

	if cachePath != "" {
		if data, err := os.ReadFile(cachePath); err == nil {
			fc, err := geo.Parse(data)
			if err == nil {
				return fc, "cache", nil
			}
			log.Warn().
				Err(err).
				Str("path", cachePath).
				Msg("Cached GeoJSON is corrupt, downloading again")
		}
	}

	data, err := l.download(ctx)
	if err != nil {
		return nil, "remote", err
	}

	fc, err := geo.Parse(data)
	if err != nil {
		return nil, "remote", err
	}

	if cachePath != "" {
		if err := saveFile(cachePath, data); err != nil {
			log.Warn().Err(err).Str("path", cachePath).Msg("Failed to cache GeoJSON")
		}
	}

	return fc, "remote", nil
}

// Prefetch downloads the dataset into the cache. An existing copy is kept unless force is set.
func (l *Loader) Prefetch(ctx context.Context, force bool) (*geojson.FeatureCollection, error) {
	cachePath := l.CachePath()
	if cachePath == "" {
		return nil, fmt.Errorf("dataset cache directory is not set")
	}

	if !force {
		if data, err := os.ReadFile(cachePath); err == nil {
			if fc, err := geo.Parse(data); err == nil {
				log.Debug().Str("path", cachePath).Msg("Dataset cache exists, skipping")
				return fc, nil
			}
		}
	}

	log.Info().
		Str("source", l.URL).
		Msg("Downloading dataset")

	data, err := l.download(ctx)
	if err != nil {
		return nil, err
	}

	fc, err := geo.Parse(data)
	if err != nil {
		return nil, err
	}

	return fc, saveFile(cachePath, data)
}

func (l *Loader) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, err
	}
	// Explicitly ignore close error as it's a read-only operation
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// LoadFile parses a user supplied GeoJSON document.
func LoadFile(r io.Reader) (*geojson.FeatureCollection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	fc, err := geo.Parse(data)
	if err != nil {
		metrics.DatasetLoadsTotal.WithLabelValues("file", "error").Inc()
		return nil, err
	}

	metrics.DatasetLoadsTotal.WithLabelValues("file", "ok").Inc()
	return fc, nil
}

// saveFile writes data next to its final path and renames it in place.
func saveFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}
