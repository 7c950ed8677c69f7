package server

import (
	"context"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/geopaint/assets"
	"github.com/woozymasta/geopaint/internal/config"
	"github.com/woozymasta/geopaint/internal/event"
	"github.com/woozymasta/geopaint/internal/loader"
	"github.com/woozymasta/geopaint/internal/paint"
	"github.com/woozymasta/geopaint/internal/tiles"
)

// TileURL is the base layer template handed to the page.
const TileURL = "/tiles/{z}/{x}/{y}.webp"

const loopTimeout = 10 * time.Second

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config     *config.Config
	Loop       *event.Loop
	Painter    *paint.Painter
	Dispatcher *event.Dispatcher
	Tiles      *tiles.Cache
	Hub        *Hub
	IndexHTML  []byte
	Favicon    []byte
}

// NewServerContext wires the painter to the event loop and the websocket hub.
// The painter must only be touched from tasks running on loop.
func NewServerContext(cfg *config.Config, loop *event.Loop, tileCache *tiles.Cache, minified bool) (*ServerContext, error) {
	painter, err := paint.New(cfg, loop)
	if err != nil {
		return nil, err
	}

	index, err := assets.Index(minified)
	if err != nil {
		return nil, err
	}
	favicon, err := assets.Favicon(minified)
	if err != nil {
		return nil, err
	}

	s := &ServerContext{
		Config:     cfg,
		Loop:       loop,
		Painter:    painter,
		Dispatcher: event.NewDispatcher(),
		Tiles:      tileCache,
		IndexHTML:  index,
		Favicon:    favicon,
	}

	painter.Register(s.Dispatcher)
	s.Hub = NewHub(s.Dispatch, s.greet)
	painter.OnChange(s.publish)

	log.Info().
		Str("dataset", cfg.Dataset.URL).
		Int("min_zoom", cfg.Surface.MinZoom).
		Int("max_zoom", cfg.Surface.MaxZoom).
		Msg("Server context initialized successfully")

	return s, nil
}

// Run drives the hub until ctx is canceled. The loop is run by the caller.
func (s *ServerContext) Run(ctx context.Context) {
	s.Hub.Run(ctx)
}

// Dispatch runs an event on the loop.
func (s *ServerContext) Dispatch(ev event.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), loopTimeout)
	defer cancel()

	return s.Loop.Do(ctx, func() error {
		return s.Dispatcher.Dispatch(ev)
	})
}

// BuildLayer replaces the region layer on the loop.
func (s *ServerContext) BuildLayer(ctx context.Context, fc *geojson.FeatureCollection) error {
	err := s.Loop.Do(ctx, func() error {
		s.Painter.BuildLayer(fc)
		return nil
	})
	if err == nil {
		s.Hub.ClearAlert()
	}
	return err
}

// LoadDefault builds the region layer from the default dataset of l.
// A failed load leaves the attached layer untouched.
func (s *ServerContext) LoadDefault(ctx context.Context, l *loader.Loader) error {
	fc, err := l.LoadDefault(ctx)
	if err != nil {
		return err
	}

	if err := s.BuildLayer(ctx, fc); err != nil {
		log.Error().Err(err).Msg("Failed to build default region layer")
		return err
	}
	return nil
}

// Alert forwards loader alerts to the pages.
func (s *ServerContext) Alert(message string) {
	s.Hub.Alert(message)
}

// Snapshot reads the painter state on the loop.
func (s *ServerContext) Snapshot(ctx context.Context) (paint.Snapshot, error) {
	var snap paint.Snapshot
	err := s.Loop.Do(ctx, func() error {
		snap = s.snapshot()
		return nil
	})
	return snap, err
}

// snapshot must run on the loop.
func (s *ServerContext) snapshot() paint.Snapshot {
	snap := s.Painter.Snapshot()
	if s.Tiles != nil {
		snap.Surface.TileURL = TileURL
	}
	return snap
}

// publish must run on the loop.
func (s *ServerContext) publish() {
	s.Hub.Broadcast(Message{Type: MessageState, Data: s.snapshot()})
}

// greet hands a new websocket client the current state from the loop,
// where every later state broadcast is also published.
func (s *ServerContext) greet(join func(Message)) error {
	ctx, cancel := context.WithTimeout(context.Background(), loopTimeout)
	defer cancel()

	return s.Loop.Do(ctx, func() error {
		join(Message{Type: MessageState, Data: s.snapshot()})
		return nil
	})
}
