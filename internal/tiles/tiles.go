// Package tiles proxies and caches base layer tiles as WebP.
package tiles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/chai2010/webp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"

	"github.com/woozymasta/geopaint/internal/config"
	"github.com/woozymasta/geopaint/internal/metrics"
)

var (
	// ErrTileNotFound is returned when the upstream has no tile at the coordinate.
	ErrTileNotFound = errors.New("tile not found")

	// ErrTileOutOfRange is returned for coordinates outside the layer zoom range or grid.
	ErrTileOutOfRange = errors.New("tile out of range")
)

const userAgent = "geopaint/1.0 (+https://github.com/woozymasta/geopaint)"

// TileCoordinate represents a specific tile.
type TileCoordinate struct {
	Z, X, Y int
}

// Cache serves tiles from disk, downloading and converting missing ones.
type Cache struct {
	client      *http.Client
	group       singleflight.Group
	urlTemplate string
	subdomains  string
	dir         string
	minZoom     int
	maxZoom     int
	quality     float32
}

// New creates a tile cache for the base layer of the surface.
func New(client *http.Client, cfg config.Surface) *Cache {
	if client == nil {
		client = http.DefaultClient
	}

	return &Cache{
		client:      client,
		urlTemplate: cfg.TileURL,
		subdomains:  cfg.Subdomains,
		dir:         cfg.TileCacheDir,
		minZoom:     cfg.MinZoom,
		maxZoom:     cfg.MaxZoom,
		quality:     80,
	}
}

// Path returns the cache file of a tile.
func (c *Cache) Path(t TileCoordinate) string {
	return filepath.Join(
		c.dir,
		strconv.Itoa(t.Z),
		strconv.Itoa(t.X),
		strconv.Itoa(t.Y)+".webp")
}

// InRange reports whether t belongs to the layer.
func (c *Cache) InRange(t TileCoordinate) bool {
	if t.Z < c.minZoom || t.Z > c.maxZoom {
		return false
	}
	size := 1 << t.Z
	return t.X >= 0 && t.Y >= 0 && t.X < size && t.Y < size
}

// Get returns the path of a cached tile, downloading it first when missing.
func (c *Cache) Get(ctx context.Context, t TileCoordinate) (string, error) {
	if !c.InRange(t) {
		metrics.TileRequestsTotal.WithLabelValues("out_of_range").Inc()
		return "", ErrTileOutOfRange
	}

	outPath := c.Path(t)
	if info, err := os.Stat(outPath); err == nil && info.Size() > 0 {
		metrics.TileRequestsTotal.WithLabelValues("hit").Inc()
		return outPath, nil
	}

	_, err, _ := c.group.Do(outPath, func() (interface{}, error) {
		return nil, c.downloadAndConvert(ctx, t, outPath)
	})
	if err != nil {
		if errors.Is(err, ErrTileNotFound) {
			metrics.TileRequestsTotal.WithLabelValues("not_found").Inc()
		} else {
			metrics.TileRequestsTotal.WithLabelValues("error").Inc()
		}
		return "", err
	}

	metrics.TileRequestsTotal.WithLabelValues("miss").Inc()
	return outPath, nil
}

func (c *Cache) downloadAndConvert(ctx context.Context, t TileCoordinate, outPath string) error {
	url := buildURL(c.urlTemplate, c.subdomains, t)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		log.Trace().Str("url", url).Msg("Tile not found (404)")
		return ErrTileNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status code %d", resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	img, _, err := image.Decode(bytes.NewReader(bodyBytes))
	if err != nil {
		log.Trace().Err(err).Str("url", url).Msg("Failed to decode image")
		return fmt.Errorf("decode tile: %w", err)
	}

	// Filter out empty/1px tiles often returned by map servers for OOB areas
	if img.Bounds().Dx() <= 1 {
		log.Trace().Str("url", url).Msg("Filtered empty tile")
		return ErrTileNotFound
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: false, Quality: c.quality}); err != nil {
		return err
	}

	tmp := outPath + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return err
	}

	return os.Rename(tmp, outPath)
}

// Prefetch warms the cache with every tile covering b from the minimum zoom up to maxZoom.
// It returns the number of tiles available afterwards.
func (c *Cache) Prefetch(ctx context.Context, b orb.Bound, maxZoom, concurrency int) int {
	if maxZoom <= 0 || maxZoom > c.maxZoom {
		maxZoom = c.maxZoom
	}
	if concurrency <= 0 {
		concurrency = 8
	}

	total := 0
	for z := c.minZoom; z <= maxZoom; z++ {
		if ctx.Err() != nil {
			break
		}

		tiles := Cover(b, z)
		log.Debug().Int("zoom", z).Int("count", len(tiles)).Msg("Processing zoom level")

		valid := c.processBatch(ctx, concurrency, tiles)
		total += valid
	}

	return total
}

func (c *Cache) processBatch(ctx context.Context, concurrency int, tiles []TileCoordinate) int {
	jobs := make(chan TileCoordinate, len(tiles))
	for _, t := range tiles {
		jobs <- t
	}
	close(jobs)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		valid int
	)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				if ctx.Err() != nil {
					return
				}
				if _, err := c.Get(ctx, t); err != nil {
					log.Trace().
						Err(err).
						Str("url", buildURL(c.urlTemplate, c.subdomains, t)).
						Msg("Failed to download tile")
					continue
				}
				mu.Lock()
				valid++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return valid
}

// Cover lists the tiles at zoom z intersecting b.
func Cover(b orb.Bound, z int) []TileCoordinate {
	nw := maptile.At(orb.Point{b.Min[0], b.Max[1]}, maptile.Zoom(z))
	se := maptile.At(orb.Point{b.Max[0], b.Min[1]}, maptile.Zoom(z))

	out := make([]TileCoordinate, 0, int(se.X-nw.X+1)*int(se.Y-nw.Y+1))
	for x := nw.X; x <= se.X; x++ {
		for y := nw.Y; y <= se.Y; y++ {
			out = append(out, TileCoordinate{Z: z, X: int(x), Y: int(y)})
		}
	}

	return out
}

func buildURL(tpl, subdomains string, c TileCoordinate) string {
	s := strings.ReplaceAll(tpl, "{z}", strconv.Itoa(c.Z))
	s = strings.ReplaceAll(s, "{x}", strconv.Itoa(c.X))
	s = strings.ReplaceAll(s, "{y}", strconv.Itoa(c.Y))

	if strings.Contains(s, "{s}") {
		sub := "a"
		if subdomains != "" {
			sub = string(subdomains[(c.X+c.Y)%len(subdomains)])
		}
		s = strings.ReplaceAll(s, "{s}", sub)
	}

	if strings.Contains(s, "{tms_y}") {
		maxCoord := (1 << c.Z) - 1
		tmsY := maxCoord - c.Y
		s = strings.ReplaceAll(s, "{tms_y}", strconv.Itoa(tmsY))
	}

	return s
}
