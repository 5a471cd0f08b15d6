package audio

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"musicstream/models"
)

var ErrUnknownDuration = errors.New("unknown media duration")

// DurationResolver reports the length in seconds of the media at src.
type DurationResolver interface {
	Resolve(src string) (float64, error)
}

// Loader resolves media durations from catalog metadata. The catalog stores
// durations as display strings ("3:45"), so sources must be registered
// before the device can report their length.
type Loader struct {
	mutex     sync.RWMutex
	durations map[string]float64
	logger    *log.Entry
}

func NewLoader() *Loader {
	return &Loader{
		durations: make(map[string]float64),
		logger: log.WithFields(log.Fields{
			"module": "audio-loader",
		}),
	}
}

// Register records the duration of every track with a parsable duration.
func (l *Loader) Register(tracks ...models.Track) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	for _, track := range tracks {
		if track.File == "" {
			continue
		}
		seconds, err := ParseDuration(track.Duration)
		if err != nil {
			l.logger.Debugf("skipping duration for %s: %v", track.ID, err)
			continue
		}
		l.durations[track.File] = seconds
	}
}

func (l *Loader) Resolve(src string) (float64, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	if seconds, ok := l.durations[src]; ok {
		return seconds, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownDuration, src)
}

// ParseDuration parses "m:ss", "h:mm:ss" or plain seconds into seconds.
func ParseDuration(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrUnknownDuration
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	var total float64
	for i, part := range parts {
		n, err := strconv.ParseFloat(part, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		// every component after the first is a base-60 digit
		if i > 0 && n >= 60 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		total = total*60 + n
	}
	return total, nil
}
