package event

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnhandled is returned for events without a registered handler.
var ErrUnhandled = errors.New("unhandled event")

// Component names the page control an event comes from.
type Component string

// Kind names the DOM event type.
type Kind string

// Controls of the painting page.
const (
	Region     Component = "region"
	Color      Component = "color"
	Eyedropper Component = "eyedrop"
	ResetSel   Component = "resetSel"
	ResetAll   Component = "resetAll"
	FitAll     Component = "fitAll"
	Search     Component = "search"
	Surface    Component = "surface"
)

// Event kinds.
const (
	Click     Kind = "click"
	MouseOver Kind = "mouseover"
	MouseOut  Kind = "mouseout"
	Input     Kind = "input"
	KeyUp     Kind = "keyup"
	Resize    Kind = "resize"
)

// Event is a single user interaction.
type Event struct {
	Component  Component `json:"component"`
	Kind       Kind      `json:"kind"`
	Value      string    `json:"value,omitempty"`
	Generation uint64    `json:"generation,omitempty"`
	Region     int       `json:"region"`
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
}

// Handler reacts to an event.
type Handler func(Event) error

type key struct {
	component Component
	kind      Kind
}

// Dispatcher is a callback table keyed by (component, kind).
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[key]Handler
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[key]Handler)}
}

// Register sets the handler for a component and kind, replacing any previous one.
func (d *Dispatcher) Register(c Component, k Kind, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[key{c, k}] = h
}

// Has reports whether a handler is registered.
func (d *Dispatcher) Has(c Component, k Kind) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[key{c, k}]
	return ok
}

// Dispatch runs the handler for ev synchronously.
func (d *Dispatcher) Dispatch(ev Event) error {
	d.mu.RLock()
	h, ok := d.handlers[key{ev.Component, ev.Kind}]
	d.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrUnhandled, ev.Component, ev.Kind)
	}

	return h(ev)
}
