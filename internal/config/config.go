// Package config handles configuration loading and shared data structures.
package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultDatasetURL points at the Ceará municipalities layer.
const DefaultDatasetURL = "https://raw.githubusercontent.com/tbrugz/geodata-br/master/geojson/geojs-23-mun.json"

// Config represents the root configuration file structure.
type Config struct {
	Dataset Dataset `yaml:"dataset" json:"-"`
	Surface Surface `yaml:"surface" json:"surface"`
	Style   Style   `yaml:"style" json:"style"`
	Search  Search  `yaml:"search" json:"search"`
	Names   Names   `yaml:"names" json:"-"`

	// initial picker value
	Color      string `yaml:"color,omitempty" json:"color"`
	FitPadding int    `yaml:"fit_padding,omitempty" json:"fit_padding"`
}

// Dataset describes where the default region layer comes from.
type Dataset struct {
	URL      string        `yaml:"url"`
	CacheDir string        `yaml:"cache_dir,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

// Surface configures the base map layer and viewport.
type Surface struct {
	TileURL       string     `yaml:"tile_url" json:"-"`
	Subdomains    string     `yaml:"subdomains,omitempty" json:"-"`
	TileCacheDir  string     `yaml:"tile_cache_dir,omitempty" json:"-"`
	Attribution   string     `yaml:"attribution,omitempty" json:"attribution"`
	DefaultCenter [2]float64 `yaml:"default_center" json:"default_center"` // [Lat, Lon]
	MinZoom       int        `yaml:"min_zoom" json:"min_zoom"`
	MaxZoom       int        `yaml:"max_zoom" json:"max_zoom"`
	DefaultZoom   int        `yaml:"default_zoom" json:"default_zoom"`
	Width         int        `yaml:"width,omitempty" json:"width"`
	Height        int        `yaml:"height,omitempty" json:"height"`
	Opacity       float64    `yaml:"opacity" json:"opacity"`
}

// Style holds the outline and fill values applied to regions.
type Style struct {
	Color        string  `yaml:"color" json:"color"`
	FillColor    string  `yaml:"fill_color" json:"fill_color"`
	Weight       float64 `yaml:"weight" json:"weight"`
	HoverWeight  float64 `yaml:"hover_weight" json:"hover_weight"`
	Opacity      float64 `yaml:"opacity" json:"opacity"`
	FillOpacity  float64 `yaml:"fill_opacity" json:"fill_opacity"`
	PaintOpacity float64 `yaml:"paint_opacity" json:"paint_opacity"`
}

// Search configures the search emphasis.
type Search struct {
	Delay   time.Duration `yaml:"delay" json:"delay"`
	Weight  float64       `yaml:"weight" json:"weight"`
	MaxZoom int           `yaml:"max_zoom" json:"max_zoom"`
	Padding int           `yaml:"padding" json:"padding"`
}

// Names lists the property keys probed for a region display name.
type Names struct {
	Keys        []string `yaml:"keys,omitempty"`
	Placeholder string   `yaml:"placeholder,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Dataset: Dataset{
			URL:      DefaultDatasetURL,
			CacheDir: "cache",
			Timeout:  30 * time.Second,
		},
		Surface: Surface{
			TileURL:       "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
			Subdomains:    "abc",
			TileCacheDir:  "cache/tiles",
			Attribution:   "&copy; OpenStreetMap | Limites: IBGE / geodata-br",
			DefaultCenter: [2]float64{-5.2, -39.5},
			MinZoom:       5,
			MaxZoom:       12,
			DefaultZoom:   7,
			Width:         1280,
			Height:        800,
			Opacity:       0.35,
		},
		Style: Style{
			Color:        "#000",
			FillColor:    "#ffffff",
			Weight:       0.8,
			HoverWeight:  2,
			Opacity:      1,
			FillOpacity:  0.05,
			PaintOpacity: 0.8,
		},
		Search: Search{
			Delay:   800 * time.Millisecond,
			Weight:  3,
			MaxZoom: 10,
			Padding: 40,
		},
		Names: Names{
			Keys:        []string{"NM_MUN", "NM_MUNICIP", "NOME", "name", "NAME", "municipio", "MUNICIPIO"},
			Placeholder: "Município",
		},
		Color:      "#3388ff",
		FitPadding: 20,
	}
}

// Load reads the YAML configuration file from the specified path on top of the defaults.
// A missing file is not an error when allowMissing is set.
func Load(path string, allowMissing bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if allowMissing && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
