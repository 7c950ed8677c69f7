package tiles

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/paulmach/orb"

	"github.com/woozymasta/geopaint/internal/config"
)

func pngTile(t *testing.T, size int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newTestCache(t *testing.T, handler http.HandlerFunc) (*Cache, *int32) {
	t.Helper()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default().Surface
	cfg.TileURL = srv.URL + "/{z}/{x}/{y}.png"
	cfg.TileCacheDir = t.TempDir()

	return New(srv.Client(), cfg), &hits
}

func TestGet_DownloadsOnce(t *testing.T) {
	body := pngTile(t, 256)
	var (
		mu    sync.Mutex
		paths []string
	)
	c, hits := newTestCache(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	})

	tile := TileCoordinate{Z: 7, X: 47, Y: 66}
	path, err := c.Get(context.Background(), tile)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if path != c.Path(tile) {
		t.Errorf("path = %s, want %s", path, c.Path(tile))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		t.Error("cached tile is not WebP")
	}

	if _, err := c.Get(context.Background(), tile); err != nil {
		t.Fatalf("cached Get failed: %v", err)
	}
	if n := atomic.LoadInt32(hits); n != 1 {
		t.Errorf("upstream hits = %d, want 1", n)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(paths) != 1 || paths[0] != "/7/47/66.png" {
		t.Errorf("upstream paths = %v", paths)
	}
}

func TestGet_Errors(t *testing.T) {
	tests := []struct {
		name    string
		tile    TileCoordinate
		handler http.HandlerFunc
		want    error
	}{
		{"below min zoom", TileCoordinate{Z: 4}, nil, ErrTileOutOfRange},
		{"above max zoom", TileCoordinate{Z: 13}, nil, ErrTileOutOfRange},
		{"outside grid", TileCoordinate{Z: 5, X: 32}, nil, ErrTileOutOfRange},
		{"negative", TileCoordinate{Z: 5, Y: -1}, nil, ErrTileOutOfRange},
		{"upstream 404", TileCoordinate{Z: 5}, func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}, ErrTileNotFound},
		{"empty tile", TileCoordinate{Z: 5}, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(pngTile(t, 1))
		}, ErrTileNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := tt.handler
			if handler == nil {
				handler = func(w http.ResponseWriter, r *http.Request) {
					t.Error("upstream called for an out of range tile")
				}
			}
			c, _ := newTestCache(t, handler)

			if _, err := c.Get(context.Background(), tt.tile); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if _, err := os.Stat(c.Path(tt.tile)); err == nil {
				t.Error("failed tile was cached")
			}
		})
	}
}

func TestGet_UpstreamError(t *testing.T) {
	c, _ := newTestCache(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	})

	_, err := c.Get(context.Background(), TileCoordinate{Z: 5})
	if err == nil || errors.Is(err, ErrTileNotFound) {
		t.Errorf("expected generic error, got %v", err)
	}
}

func TestCover(t *testing.T) {
	// roughly the state of Ceará
	b := orb.Bound{Min: orb.Point{-41.4, -7.9}, Max: orb.Point{-37.2, -2.7}}

	at5 := Cover(b, 5)
	if len(at5) == 0 {
		t.Fatal("no tiles at zoom 5")
	}
	for _, tile := range at5 {
		if tile.Z != 5 || tile.X < 0 || tile.X >= 32 || tile.Y < 0 || tile.Y >= 32 {
			t.Errorf("invalid tile %+v", tile)
		}
	}

	if at7 := Cover(b, 7); len(at7) < len(at5) {
		t.Errorf("zoom 7 has fewer tiles (%d) than zoom 5 (%d)", len(at7), len(at5))
	}

	point := orb.Bound{Min: orb.Point{-38.5, -3.7}, Max: orb.Point{-38.5, -3.7}}
	if got := Cover(point, 10); len(got) != 1 {
		t.Errorf("point cover = %v, want one tile", got)
	}
}

func TestPrefetch(t *testing.T) {
	body := pngTile(t, 256)
	c, hits := newTestCache(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	})

	b := orb.Bound{Min: orb.Point{-38.6, -3.9}, Max: orb.Point{-38.4, -3.7}}
	n := c.Prefetch(context.Background(), b, 6, 4)

	want := len(Cover(b, 5)) + len(Cover(b, 6))
	if n != want {
		t.Errorf("prefetched %d tiles, want %d", n, want)
	}
	if got := int(atomic.LoadInt32(hits)); got != want {
		t.Errorf("upstream hits = %d, want %d", got, want)
	}
}

func TestBuildURL(t *testing.T) {
	tile := TileCoordinate{Z: 3, X: 1, Y: 2}

	tests := []struct {
		tpl  string
		subs string
		want string
	}{
		{"https://{s}.tile.example.org/{z}/{x}/{y}.png", "abc", "https://a.tile.example.org/3/1/2.png"},
		{"https://{s}.tile.example.org/{z}/{x}/{y}.png", "", "https://a.tile.example.org/3/1/2.png"},
		{"https://t.example.org/{z}/{x}/{tms_y}.png", "", "https://t.example.org/3/1/5.png"},
	}

	for _, tt := range tests {
		if got := buildURL(tt.tpl, tt.subs, tile); got != tt.want {
			t.Errorf("buildURL(%q) = %q, want %q", tt.tpl, got, tt.want)
		}
	}

	other := buildURL("https://{s}.example.org", "abc", TileCoordinate{X: 1, Y: 1})
	if !strings.HasPrefix(other, "https://c.") {
		t.Errorf("subdomain rotation gave %q", other)
	}
}
