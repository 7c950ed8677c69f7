package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/woozymasta/geopaint/internal/config"
	"github.com/woozymasta/geopaint/internal/geo"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Input  string `short:"i" long:"in"     description:"Input GeoJSON file path. Reads from stdin if empty"`
	Output string `short:"o" long:"out"    description:"Output file path. Writes to stdout if empty"`
	Format string `short:"f" long:"format" description:"Output format" choice:"json" choice:"yaml" default:"json"`
	Prefix string `short:"s" long:"search" description:"Only list regions whose name starts with this text"`
	Config string `short:"c" long:"config" description:"Configuration file with name keys" default:"config.yaml"`
}

// Entry describes one region of the input file.
type Entry struct {
	Name  string      `json:"name" yaml:"name"`
	Bound *[4]float64 `json:"bound,omitempty" yaml:"bound,flow,omitempty"` // [minLon, minLat, maxLon, maxLat]
	Index int         `json:"index" yaml:"index"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	cfg, err := config.Load(opts.Config, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Read Input
	var inputData []byte
	if opts.Input != "" {
		inputData, err = os.ReadFile(opts.Input)
	} else {
		inputData, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}

	fc, err := geo.Parse(inputData)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing GeoJSON: %v\n", err)
		os.Exit(1)
	}

	entries := listRegions(fc.Features, geo.NewNameResolver(cfg.Names.Keys, cfg.Names.Placeholder), opts.Prefix)

	// marshal
	var outputData []byte
	if opts.Format == "yaml" {
		outputData, err = yaml.Marshal(entries)
	} else {
		outputData, err = json.MarshalIndent(entries, "", "  ")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling data: %v\n", err)
		os.Exit(1)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, outputData, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Listed %d regions to %s (format: %s)\n", len(entries), opts.Output, opts.Format)
	} else {
		fmt.Println(string(outputData))
	}
}
