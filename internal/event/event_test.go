package event

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDispatcher(t *testing.T) {
	d := NewDispatcher()

	var got []Event
	d.Register(Region, Click, func(ev Event) error {
		got = append(got, ev)
		return nil
	})

	if err := d.Dispatch(Event{Component: Region, Kind: Click, Region: 3}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if len(got) != 1 || got[0].Region != 3 {
		t.Errorf("handler received %v", got)
	}

	err := d.Dispatch(Event{Component: Region, Kind: KeyUp})
	if !errors.Is(err, ErrUnhandled) {
		t.Errorf("expected ErrUnhandled, got %v", err)
	}

	if !d.Has(Region, Click) || d.Has(Search, Click) {
		t.Error("Has reports wrong registrations")
	}
}

func TestDispatcher_HandlerError(t *testing.T) {
	d := NewDispatcher()
	want := errors.New("boom")
	d.Register(Color, Input, func(Event) error { return want })

	if err := d.Dispatch(Event{Component: Color, Kind: Input}); !errors.Is(err, want) {
		t.Errorf("expected handler error, got %v", err)
	}
}

func TestLoop_OrderAndDo(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLoop(8)
	go l.Run(ctx)

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() { order = append(order, i) })
	}

	// Do runs after every previously posted task
	var snapshot []int
	if err := l.Do(ctx, func() error {
		snapshot = append(snapshot, order...)
		return nil
	}); err != nil {
		t.Fatalf("Do failed: %v", err)
	}

	if len(snapshot) != 5 {
		t.Fatalf("expected 5 tasks before Do, got %v", snapshot)
	}
	for i, v := range snapshot {
		if v != i {
			t.Errorf("task order = %v", snapshot)
			break
		}
	}

	want := errors.New("failed")
	if err := l.Do(ctx, func() error { return want }); !errors.Is(err, want) {
		t.Errorf("Do returned %v, want %v", err, want)
	}
}

func TestLoop_Stopped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := NewLoop(1)

	stopped := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	if l.Post(func() {}) {
		// the buffered slot may accept one task, but never a second
		if l.Post(func() {}) {
			t.Error("Post accepted tasks after the loop stopped")
		}
	}

	err := l.Do(context.Background(), func() error { return nil })
	if !errors.Is(err, ErrLoopStopped) {
		t.Errorf("expected ErrLoopStopped, got %v", err)
	}
}

func TestLoop_AfterFunc(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLoop(4)
	go l.Run(ctx)

	fired := make(chan struct{})
	l.AfterFunc(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer task never ran")
	}

	stopped := l.AfterFunc(time.Hour, func() { t.Error("stopped timer fired") })
	if !stopped.Stop() {
		t.Error("Stop returned false for a pending timer")
	}
}
