package audio

import (
	"math"
	"sync"
)

// Mock is a synchronous test double for Device. It emits the same lifecycle
// events as Headless but its clock only moves when a test says so.
type Mock struct {
	mutex     sync.Mutex
	subs      subscribers
	src       string
	current   float64
	duration  float64
	paused    bool
	playErr   error
	durations map[string]float64
	loads     []string
	playCalls int
	seeks     []float64
}

func NewMock() *Mock {
	return &Mock{
		duration:  Unknown,
		paused:    true,
		durations: make(map[string]float64),
	}
}

func (m *Mock) Subscribe() *Subscription { return m.subs.add() }

func (m *Mock) Load(src string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.loads = append(m.loads, src)
	m.src = src
	m.current = 0
	m.paused = true
	m.duration = Unknown
	m.emitLocked(EventLoadStart)
	if d, ok := m.durations[src]; ok {
		m.duration = d
		m.emitLocked(EventLoadedMetadata)
	}
	return nil
}

func (m *Mock) Play() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.playCalls++
	if m.playErr != nil {
		return m.playErr
	}
	if m.src == "" {
		return ErrNoSource
	}
	if m.paused {
		m.paused = false
		m.emitLocked(EventPlay)
	}
	return nil
}

func (m *Mock) Pause() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if !m.paused {
		m.paused = true
		m.emitLocked(EventPause)
	}
}

func (m *Mock) Paused() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.paused
}

func (m *Mock) CurrentTime() float64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.current
}

func (m *Mock) Duration() float64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.duration
}

func (m *Mock) SetCurrentTime(seconds float64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.seeks = append(m.seeks, seconds)
	if seconds < 0 {
		seconds = 0
	}
	if !math.IsNaN(m.duration) && seconds > m.duration {
		seconds = m.duration
	}
	m.current = seconds
	m.emitLocked(EventTimeUpdate)
}

// Test helpers

func (m *Mock) SetDuration(src string, seconds float64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.durations[src] = seconds
}

func (m *Mock) SetPlayError(err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.playErr = err
}

// Advance moves the clock to seconds and fires timeupdate.
func (m *Mock) Advance(seconds float64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.current = seconds
	m.emitLocked(EventTimeUpdate)
}

// Finish runs the end-of-media sequence: timeupdate, pause, ended.
func (m *Mock) Finish() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if !math.IsNaN(m.duration) {
		m.current = m.duration
	}
	m.paused = true
	m.emitLocked(EventTimeUpdate)
	m.emitLocked(EventPause)
	m.emitLocked(EventEnded)
}

func (m *Mock) Loads() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]string(nil), m.loads...)
}

func (m *Mock) PlayCalls() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.playCalls
}

func (m *Mock) Seeks() []float64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]float64(nil), m.seeks...)
}

func (m *Mock) Subscribers() int { return m.subs.len() }

func (m *Mock) emitLocked(t EventType) {
	m.subs.emit(Event{Type: t, Source: m.src, CurrentTime: m.current, Duration: m.duration})
}

var _ Device = (*Mock)(nil)
