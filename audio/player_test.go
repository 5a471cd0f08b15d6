package audio

import (
	"errors"
	"math"
	"testing"
	"time"

	"musicstream/models"
)

func newTestLoader(file, duration string) *Loader {
	l := NewLoader()
	l.Register(models.Track{ID: "t1", File: file, Duration: duration})
	return l
}

// waitFor drains sub until an event of type want arrives.
func waitFor(t *testing.T, sub *Subscription, want EventType) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-sub.Events:
			if e.Type == want {
				return e
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", want)
			return Event{}
		}
	}
}

// TestHeadlessInitial verifies a fresh device is paused with an unknown duration.
func TestHeadlessInitial(t *testing.T) {
	h := NewHeadless(nil)
	if !h.Paused() {
		t.Error("expected Paused()=true on a fresh device")
	}
	if !math.IsNaN(h.Duration()) {
		t.Errorf("Duration() = %v, want NaN before metadata", h.Duration())
	}
	if err := h.Play(); !errors.Is(err, ErrNoSource) {
		t.Errorf("Play() without source = %v, want ErrNoSource", err)
	}
}

func TestHeadlessLoadEmitsMetadata(t *testing.T) {
	h := NewHeadless(newTestLoader("a.mp3", "1:30"))
	sub := h.Subscribe()
	defer sub.Unsubscribe()

	if err := h.Load("a.mp3"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	waitFor(t, sub, EventLoadStart)
	e := waitFor(t, sub, EventLoadedMetadata)
	if e.Duration != 90 {
		t.Errorf("loadedmetadata duration = %v, want 90", e.Duration)
	}
	if h.Duration() != 90 {
		t.Errorf("Duration() = %v, want 90", h.Duration())
	}
}

func TestHeadlessLoadWithoutMetadata(t *testing.T) {
	h := NewHeadless(NewLoader())
	sub := h.Subscribe()
	defer sub.Unsubscribe()

	if err := h.Load("unknown.mp3"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	e := waitFor(t, sub, EventError)
	if !errors.Is(e.Error, ErrUnknownDuration) {
		t.Errorf("error event = %v, want ErrUnknownDuration", e.Error)
	}
	if !math.IsNaN(h.Duration()) {
		t.Errorf("Duration() = %v, want NaN", h.Duration())
	}
}

func TestHeadlessRequireGesture(t *testing.T) {
	h := NewHeadless(newTestLoader("a.mp3", "10"), RequireGesture())
	if err := h.Load("a.mp3"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := h.Play(); !errors.Is(err, ErrPlaybackRejected) {
		t.Fatalf("Play() before gesture = %v, want ErrPlaybackRejected", err)
	}
	if !h.Paused() {
		t.Error("device should stay paused after a rejected play")
	}

	h.Gesture()
	if err := h.Play(); err != nil {
		t.Fatalf("Play() after gesture: %v", err)
	}
	if h.Paused() {
		t.Error("device should be playing after gesture")
	}
	h.Pause()
}

// TestHeadlessPlaysToEnd verifies the clock emits timeupdate ticks and the
// end-of-media sequence once the duration is reached.
func TestHeadlessPlaysToEnd(t *testing.T) {
	h := NewHeadless(newTestLoader("short.mp3", "0.05"), WithTick(5*time.Millisecond))
	sub := h.Subscribe()
	defer sub.Unsubscribe()

	if err := h.Load("short.mp3"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := h.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}

	waitFor(t, sub, EventPlay)
	waitFor(t, sub, EventTimeUpdate)
	e := waitFor(t, sub, EventEnded)

	if e.CurrentTime != e.Duration {
		t.Errorf("ended at %v, want %v", e.CurrentTime, e.Duration)
	}
	if !h.Paused() {
		t.Error("device should be paused after ended")
	}
}

func TestHeadlessPauseStopsClock(t *testing.T) {
	h := NewHeadless(newTestLoader("a.mp3", "60"), WithTick(5*time.Millisecond))
	if err := h.Load("a.mp3"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := h.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	h.Pause()

	at := h.CurrentTime()
	time.Sleep(30 * time.Millisecond)
	if got := h.CurrentTime(); got != at {
		t.Errorf("CurrentTime moved while paused: %v -> %v", at, got)
	}
}

func TestHeadlessSetCurrentTimeClamps(t *testing.T) {
	h := NewHeadless(newTestLoader("a.mp3", "100"))
	if err := h.Load("a.mp3"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name string
		set  float64
		want float64
	}{
		{"inside", 42, 42},
		{"negative", -5, 0},
		{"past_end", 500, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.SetCurrentTime(tt.set)
			if got := h.CurrentTime(); got != tt.want {
				t.Errorf("CurrentTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubscriptionUnsubscribeStopsDelivery(t *testing.T) {
	h := NewHeadless(newTestLoader("a.mp3", "10"))
	sub := h.Subscribe()
	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	if err := h.Load("a.mp3"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	select {
	case e := <-sub.Events:
		t.Errorf("received %s after unsubscribe", e.Type)
	default:
	}
	select {
	case <-sub.Done:
	default:
		t.Error("Done should be closed after Unsubscribe")
	}
	if n := h.subs.len(); n != 0 {
		t.Errorf("device still holds %d subscriptions", n)
	}
}

func TestSubscriptionCoalescesTimeUpdates(t *testing.T) {
	var subs subscribers
	sub := subs.add()
	defer sub.Unsubscribe()

	subs.emit(Event{Type: EventPlay})
	for i := range 10 {
		subs.emit(Event{Type: EventTimeUpdate, CurrentTime: float64(i)})
	}
	subs.emit(Event{Type: EventEnded})

	want := []struct {
		typ     EventType
		current float64
	}{
		{EventPlay, 0},
		{EventTimeUpdate, 9},
		{EventEnded, 0},
	}
	for _, w := range want {
		select {
		case e := <-sub.Events:
			if e.Type != w.typ || e.CurrentTime != w.current {
				t.Errorf("got %s@%v, want %s@%v", e.Type, e.CurrentTime, w.typ, w.current)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s", w.typ)
		}
	}
}

func TestSubscriptionKeepsLifecycleEventsWhenFull(t *testing.T) {
	var subs subscribers
	sub := subs.add()
	defer sub.Unsubscribe()

	// nobody reads while the queue fills
	for range eventBufferSize + 10 {
		subs.emit(Event{Type: EventPause})
		subs.emit(Event{Type: EventTimeUpdate})
	}
	subs.emit(Event{Type: EventEnded})

	var last Event
	for range 2*eventBufferSize + 20 {
		select {
		case last = <-sub.Events:
			if last.Type == EventEnded {
				return
			}
		case <-time.After(time.Second):
			t.Fatalf("ended was not delivered, last event %s", last.Type)
		}
	}
	t.Fatal("ended was not delivered")
}
