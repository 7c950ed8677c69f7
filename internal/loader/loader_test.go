package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/woozymasta/geopaint/internal/config"
)

const dataset = `{"type":"FeatureCollection","features":[
  {"type":"Feature","properties":{"NM_MUN":"Fortaleza"},
   "geometry":{"type":"Polygon","coordinates":[[[-38.6,-3.9],[-38.4,-3.9],[-38.4,-3.7],[-38.6,-3.9]]]}}
]}`

type countingAlerter struct {
	messages []string
}

func (a *countingAlerter) Alert(message string) {
	a.messages = append(a.messages, message)
}

func newTestLoader(t *testing.T, handler http.HandlerFunc) (*Loader, *countingAlerter, *int32) {
	t.Helper()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	alerter := &countingAlerter{}
	l := New(srv.Client(), config.Dataset{
		URL:      srv.URL + "/geojson/geojs-23-mun.json",
		CacheDir: t.TempDir(),
		Timeout:  5 * time.Second,
	}, alerter)

	return l, alerter, &hits
}

func TestLoadDefault_DownloadsAndCaches(t *testing.T) {
	l, alerter, hits := newTestLoader(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(dataset))
	})

	fc, err := l.LoadDefault(context.Background())
	if err != nil {
		t.Fatalf("LoadDefault failed: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Errorf("features = %d, want 1", len(fc.Features))
	}

	if filepath.Base(l.CachePath()) != "geojs-23-mun.json" {
		t.Errorf("cache path = %s", l.CachePath())
	}
	if _, err := os.Stat(l.CachePath()); err != nil {
		t.Errorf("dataset not cached: %v", err)
	}

	// second load is served from the cache
	if _, err := l.LoadDefault(context.Background()); err != nil {
		t.Fatalf("cached LoadDefault failed: %v", err)
	}
	if n := atomic.LoadInt32(hits); n != 1 {
		t.Errorf("upstream hits = %d, want 1", n)
	}
	if len(alerter.messages) != 0 {
		t.Errorf("unexpected alerts: %v", alerter.messages)
	}
}

func TestLoadDefault_FailureAlertsOnce(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}},
		{"invalid json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, alerter, hits := newTestLoader(t, tt.handler)

			if _, err := l.LoadDefault(context.Background()); err == nil {
				t.Fatal("expected error")
			}
			if len(alerter.messages) != 1 || alerter.messages[0] != AlertMessage {
				t.Errorf("alerts = %v, want exactly one", alerter.messages)
			}
			if n := atomic.LoadInt32(hits); n != 1 {
				t.Errorf("upstream hits = %d, want 1 (no retry)", n)
			}
			if _, err := os.Stat(l.CachePath()); err == nil {
				t.Error("failed download was cached")
			}
		})
	}
}

func TestLoadDefault_NetworkError(t *testing.T) {
	alerter := &countingAlerter{}
	l := New(&http.Client{Timeout: time.Second}, config.Dataset{URL: "http://127.0.0.1:1/data.json"}, alerter)

	if _, err := l.LoadDefault(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(alerter.messages) != 1 {
		t.Errorf("alerts = %d, want 1", len(alerter.messages))
	}
	if l.CachePath() != "" {
		t.Errorf("cache path without cache dir = %q", l.CachePath())
	}
}

func TestLoadDefault_CorruptCache(t *testing.T) {
	l, _, hits := newTestLoader(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(dataset))
	})
	if err := os.WriteFile(l.CachePath(), []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := l.LoadDefault(context.Background()); err != nil {
		t.Fatalf("LoadDefault failed: %v", err)
	}
	if n := atomic.LoadInt32(hits); n != 1 {
		t.Errorf("upstream hits = %d, want 1", n)
	}
}

func TestPrefetch(t *testing.T) {
	l, _, hits := newTestLoader(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(dataset))
	})

	for i := 0; i < 2; i++ {
		if _, err := l.Prefetch(context.Background(), false); err != nil {
			t.Fatalf("Prefetch failed: %v", err)
		}
	}
	if n := atomic.LoadInt32(hits); n != 1 {
		t.Errorf("upstream hits = %d, want 1", n)
	}

	if _, err := l.Prefetch(context.Background(), true); err != nil {
		t.Fatalf("forced Prefetch failed: %v", err)
	}
	if n := atomic.LoadInt32(hits); n != 2 {
		t.Errorf("upstream hits after force = %d, want 2", n)
	}
}

func TestLoadFile(t *testing.T) {
	fc, err := LoadFile(strings.NewReader(dataset))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Errorf("features = %d", len(fc.Features))
	}

	if _, err := LoadFile(strings.NewReader("not json")); err == nil {
		t.Error("expected parse error")
	}
}
