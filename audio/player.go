package audio

import (
	"math"
	"sync"
	"time"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

// Headless is a clock-driven Device. It decodes nothing: it tracks the
// transport position of the loaded source against wall time and emits the
// same events a media element would.
type Headless struct {
	mutex          sync.Mutex
	subs           subscribers
	logger         *log.Entry
	resolver       DurationResolver
	tick           time.Duration
	requireGesture bool
	gestured       bool

	src      string
	current  float64
	duration float64
	paused   bool
	stop     chan struct{}
}

type HeadlessOption func(*Headless)

// WithTick sets the interval between timeupdate events.
func WithTick(d time.Duration) HeadlessOption {
	return func(h *Headless) {
		if d > 0 {
			h.tick = d
		}
	}
}

// RequireGesture makes Play fail with ErrPlaybackRejected until Gesture is
// called, the way browsers block autoplay.
func RequireGesture() HeadlessOption {
	return func(h *Headless) {
		h.requireGesture = true
	}
}

func NewHeadless(resolver DurationResolver, opts ...HeadlessOption) *Headless {
	h := &Headless{
		logger: log.WithFields(log.Fields{
			"module": "audio-device",
		}),
		resolver: resolver,
		tick:     250 * time.Millisecond,
		duration: Unknown,
		paused:   true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Gesture records a user activation, unblocking Play when RequireGesture is set.
func (h *Headless) Gesture() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.gestured = true
}

func (h *Headless) Subscribe() *Subscription {
	return h.subs.add()
}

func (h *Headless) Load(src string) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.halt()
	h.src = src
	h.current = 0
	h.duration = Unknown
	h.paused = true
	h.emit(EventLoadStart)

	if h.resolver == nil {
		return nil
	}
	duration, err := h.resolver.Resolve(src)
	if err != nil {
		// a source without metadata still plays; it just never reports a length
		h.logger.Warnf("no metadata for %s: %v", src, err)
		h.subs.emit(Event{Type: EventError, Source: src, CurrentTime: 0, Duration: Unknown, Error: err})
		return nil
	}
	h.duration = duration
	h.emit(EventLoadedMetadata)
	return nil
}

func (h *Headless) Play() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.src == "" {
		return ErrNoSource
	}
	if h.requireGesture && !h.gestured {
		return ErrPlaybackRejected
	}
	if !h.paused {
		return nil
	}
	if h.ended() {
		h.current = 0
	}

	h.paused = false
	h.emit(EventPlay)

	h.stop = make(chan struct{})
	go h.run(h.stop)
	return nil
}

func (h *Headless) Pause() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.paused {
		return
	}
	h.halt()
	h.paused = true
	h.emit(EventPause)
}

func (h *Headless) Paused() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.paused
}

func (h *Headless) CurrentTime() float64 {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.current
}

func (h *Headless) Duration() float64 {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.duration
}

// SetCurrentTime jumps to seconds, clamped to [0, duration].
func (h *Headless) SetCurrentTime(seconds float64) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if math.IsNaN(seconds) {
		return
	}
	if seconds < 0 {
		seconds = 0
	}
	if !math.IsNaN(h.duration) && seconds > h.duration {
		seconds = h.duration
	}
	h.current = seconds
	h.emit(EventTimeUpdate)
}

func (h *Headless) run(stop chan struct{}) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Errorf("device clock panicked: %v", r)
			sentry.CurrentHub().Recover(r)
		}
	}()

	ticker := time.NewTicker(h.tick)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			h.logger.Trace("device clock stopped")
			return
		case now := <-ticker.C:
			if done := h.advance(stop, now.Sub(last)); done {
				return
			}
			last = now
		}
	}
}

// advance moves the clock forward and reports whether the clock goroutine
// owning stop should exit.
func (h *Headless) advance(stop chan struct{}, elapsed time.Duration) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.stop != stop {
		return true
	}

	h.current += elapsed.Seconds()
	if !math.IsNaN(h.duration) && h.current >= h.duration {
		h.current = h.duration
		h.stop = nil
		h.paused = true
		h.emit(EventTimeUpdate)
		h.emit(EventPause)
		h.emit(EventEnded)
		h.logger.Debugf("reached end of %s", h.src)
		return true
	}
	h.emit(EventTimeUpdate)
	return false
}

// halt stops the clock goroutine. Callers hold h.mutex.
func (h *Headless) halt() {
	if h.stop != nil {
		close(h.stop)
		h.stop = nil
	}
}

func (h *Headless) ended() bool {
	return !math.IsNaN(h.duration) && h.current >= h.duration
}

// emit fans an event out with the current transport state. Callers hold h.mutex.
func (h *Headless) emit(t EventType) {
	h.subs.emit(Event{
		Type:        t,
		Source:      h.src,
		CurrentTime: h.current,
		Duration:    h.duration,
	})
}

var _ Device = (*Headless)(nil)
