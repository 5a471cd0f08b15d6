package audio

import (
	"errors"
	"math"
)

type EventType string

const (
	EventLoadStart      EventType = "loadstart"
	EventLoadedMetadata EventType = "loadedmetadata"
	EventPlay           EventType = "play"
	EventPause          EventType = "pause"
	EventTimeUpdate     EventType = "timeupdate"
	EventEnded          EventType = "ended"
	EventError          EventType = "error"
)

// Event reflects the device state at the moment it fired.
type Event struct {
	Type        EventType
	Source      string
	CurrentTime float64
	Duration    float64
	Error       error
}

var (
	// ErrPlaybackRejected is returned by Play when the device refuses to start
	// without a prior user gesture.
	ErrPlaybackRejected = errors.New("playback rejected: user gesture required")
	ErrNoSource         = errors.New("no source loaded")
)

// Unknown is the duration reported before metadata has loaded.
var Unknown = math.NaN()

// Device is a single audio output with transport controls. A Device is owned by
// exactly one controller; nothing else may change its source or transport.
type Device interface {
	Load(src string) error
	Play() error
	Pause()
	Paused() bool
	CurrentTime() float64
	Duration() float64
	SetCurrentTime(seconds float64)
	Subscribe() *Subscription
}
