package controller

import (
	"fmt"
	"math"

	"musicstream/models"
)

// Phase is the transport phase of the current track.
//
//	Idle ──select/load──▶ Loading ──autoplay──▶ Playing ⇄ Paused
//	                         ▲                     │
//	                         └──track change/ended─┘
type Phase int

const (
	Idle Phase = iota
	Loading
	Playing
	Paused
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Clock is a whole minutes:seconds display time.
type Clock struct {
	Minute int `json:"minute"`
	Second int `json:"second"`
}

// ClockFrom splits seconds into whole minutes and seconds. Values that are not
// a finite non-negative number read as 0:00.
func ClockFrom(seconds float64) Clock {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return Clock{}
	}
	return Clock{
		Minute: int(math.Floor(seconds / 60)),
		Second: int(math.Floor(math.Mod(seconds, 60))),
	}
}

func (c Clock) String() string {
	return fmt.Sprintf("%d:%02d", c.Minute, c.Second)
}

// Fill returns the seek-bar fill percentage for position within duration.
// ok is false while the duration is unknown or zero.
func Fill(position, duration float64) (percent float64, ok bool) {
	if math.IsNaN(duration) || duration == 0 || math.IsNaN(position) {
		return 0, false
	}
	return 100 * position / duration, true
}

// State is a snapshot of the player. Track points into the loaded track list.
type State struct {
	Track   *models.Track `json:"track"`
	Playing bool          `json:"playing"`
	Phase   Phase         `json:"phase"`
	Elapsed Clock         `json:"elapsed"`
	Total   Clock         `json:"total"`
	Fill    float64       `json:"fill"`
}

// TrackID is the current track id, empty when there is none.
func (s State) TrackID() string {
	if s.Track == nil {
		return ""
	}
	return s.Track.ID
}
