package controller

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"

	"musicstream/audio"
	"musicstream/models"
	"musicstream/sentryhelper"
)

// Source supplies the catalog. Both the HTTP catalog client and the storage
// layer satisfy it.
type Source interface {
	ListSongs(ctx context.Context) ([]models.Track, error)
	ListAlbums(ctx context.Context) ([]models.Album, error)
}

// Recorder receives a play record whenever a track becomes current.
type Recorder interface {
	RecordPlay(ctx context.Context, trackID, name string) error
}

// ErrSuperseded is returned by a catalog load whose result was discarded
// because a newer load was issued before it resolved.
var ErrSuperseded = errors.New("catalog load superseded")

const observerBufferSize = 16

// Player owns the playback state and the single audio device it drives.
// All state changes go through its mutex; device events are consumed on a
// per-track subscription that is replaced whenever the current track changes.
type Player struct {
	source    Source
	history   Recorder
	durations *audio.Loader
	logger    *log.Entry

	mutex   sync.Mutex
	tracks  []models.Track
	albums  []models.Album
	current *models.Track
	playing bool
	phase   Phase
	elapsed Clock
	total   Clock
	fill    float64

	device  audio.Device
	binding *audio.Subscription
	bindGen uint64
	loadSeq uint64

	observers map[chan State]struct{}
	closed    bool

	writes sync.WaitGroup
}

type Option func(*Player)

func WithHistory(r Recorder) Option {
	return func(p *Player) {
		p.history = r
	}
}

// WithDurations registers every fetched song with l so a device resolving
// durations through it knows each source's length before it is loaded.
func WithDurations(l *audio.Loader) Option {
	return func(p *Player) {
		p.durations = l
	}
}

func WithDevice(d audio.Device) Option {
	return func(p *Player) {
		p.device = d
	}
}

func New(source Source, opts ...Option) *Player {
	p := &Player{
		source: source,
		logger: log.WithFields(log.Fields{
			"module": "player",
		}),
		observers: make(map[chan State]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LoadCatalog fetches songs and albums and replaces whichever collection was
// fetched successfully. A successful song fetch makes the first song current.
// Failures leave the previous collection in place and are only logged; the
// joined error is returned for callers that want it.
func (p *Player) LoadCatalog(ctx context.Context) error {
	p.mutex.Lock()
	p.loadSeq++
	seq := p.loadSeq
	p.mutex.Unlock()

	ctx, transaction := sentryhelper.StartOperationTransaction(ctx, "load_catalog")
	defer transaction.Finish()

	span := sentryhelper.StartSpan(ctx, "catalog.songs")
	songs, songsErr := p.source.ListSongs(ctx)
	span.Finish()

	span = sentryhelper.StartSpan(ctx, "catalog.albums")
	albums, albumsErr := p.source.ListAlbums(ctx)
	span.Finish()

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if seq != p.loadSeq {
		p.logger.Warnf("discarding catalog load %d, superseded by load %d", seq, p.loadSeq)
		return ErrSuperseded
	}

	if songsErr != nil {
		songsErr = fmt.Errorf("fetching songs: %w", songsErr)
		p.logger.Errorf("Error fetching songs: %v", songsErr)
		sentryhelper.CaptureException(ctx, songsErr)
	} else {
		p.tracks = songs
		if p.durations != nil {
			p.durations.Register(songs...)
		}
		p.logger.Infof("loaded %d songs", len(songs))
		sentryhelper.AddBreadcrumb(ctx, "catalog", fmt.Sprintf("loaded %d songs", len(songs)))
		if len(p.tracks) > 0 {
			p.setCurrent(&p.tracks[0])
		} else {
			p.setCurrent(nil)
		}
	}

	if albumsErr != nil {
		albumsErr = fmt.Errorf("fetching albums: %w", albumsErr)
		p.logger.Errorf("Error fetching albums: %v", albumsErr)
		sentryhelper.CaptureException(ctx, albumsErr)
	} else {
		p.albums = albums
		p.logger.Infof("loaded %d albums", len(albums))
	}

	p.notify()
	return errors.Join(songsErr, albumsErr)
}

// SelectTrack makes the loaded track with id current. Unknown ids, including
// selections made before the catalog has loaded, are ignored, and selecting
// the track that is already current changes nothing.
func (p *Player) SelectTrack(id string) bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	track := models.FindTrack(p.tracks, id)
	if track == nil {
		p.logger.Debugf("select %q: not in loaded catalog", id)
		return false
	}
	if track == p.current {
		return true
	}
	p.setCurrent(track)
	p.notify()
	return true
}

// Next moves to the following track. It does nothing on the last track.
func (p *Player) Next() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.step(1) {
		p.notify()
	}
}

// Previous moves to the preceding track. It does nothing on the first track.
func (p *Player) Previous() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.step(-1) {
		p.notify()
	}
}

func (p *Player) Play() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.device == nil || p.current == nil {
		return
	}
	if err := p.device.Play(); err != nil {
		p.playbackFailed(err)
	}
	p.syncTransport()
	p.notify()
}

func (p *Player) Pause() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.device == nil || p.current == nil {
		return
	}
	p.device.Pause()
	p.syncTransport()
	p.notify()
}

// Seek jumps to fraction of the current track's duration. The fraction is
// not clamped here; the device clamps the resulting time to [0, duration].
func (p *Player) Seek(fraction float64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.device == nil || p.current == nil {
		return
	}
	duration := p.device.Duration()
	if math.IsNaN(duration) {
		return
	}
	p.device.SetCurrentTime(fraction * duration)
}

// SeekPointer seeks to the position of a pointer at offsetX on a seek bar of
// the given width.
func (p *Player) SeekPointer(offsetX, width float64) {
	if width <= 0 {
		return
	}
	p.Seek(offsetX / width)
}

// Attach hands the player exclusive ownership of device. A current track is
// loaded onto it immediately.
func (p *Player) Attach(device audio.Device) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.release()
	p.device = device
	if p.current != nil {
		p.phase = Loading
		p.load(p.current)
	}
	p.notify()
}

// Detach pauses the device and releases its event subscription.
func (p *Player) Detach() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.release()
	p.device = nil
	p.playing = false
	p.phase = Idle
	p.notify()
}

// Close detaches the device, closes every observer channel and waits for
// pending history writes.
func (p *Player) Close() {
	p.mutex.Lock()
	p.release()
	p.device = nil
	p.closed = true
	for ch := range p.observers {
		close(ch)
	}
	p.observers = map[chan State]struct{}{}
	p.mutex.Unlock()

	p.writes.Wait()
}

func (p *Player) State() State {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.snapshot()
}

func (p *Player) Tracks() []models.Track {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return slices.Clone(p.tracks)
}

func (p *Player) Albums() []models.Album {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return slices.Clone(p.albums)
}

// Subscribe returns a channel receiving a snapshot after every state change.
// Snapshots are dropped while the channel is full. The returned func
// unsubscribes and closes the channel.
func (p *Player) Subscribe() (<-chan State, func()) {
	ch := make(chan State, observerBufferSize)

	p.mutex.Lock()
	if p.closed {
		p.mutex.Unlock()
		close(ch)
		return ch, func() {}
	}
	p.observers[ch] = struct{}{}
	p.mutex.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mutex.Lock()
			defer p.mutex.Unlock()
			if _, ok := p.observers[ch]; ok {
				delete(p.observers, ch)
				close(ch)
			}
		})
	}
}

// step moves the current pointer by delta positions, clamped to the loaded
// list. With no current track the position counts as -1.
func (p *Player) step(delta int) bool {
	index := -1
	if p.current != nil {
		index = models.TrackIndex(p.tracks, p.current.ID)
	}
	target := index + delta
	if target < 0 || target >= len(p.tracks) {
		return false
	}
	p.setCurrent(&p.tracks[target])
	return true
}

// setCurrent replaces the current track and, when a device is attached,
// assigns its source and starts playback. Callers hold p.mutex.
func (p *Player) setCurrent(track *models.Track) {
	p.current = track
	p.elapsed = Clock{}
	p.total = Clock{}
	p.fill = 0

	if track == nil {
		p.release()
		p.playing = false
		p.phase = Idle
		return
	}

	p.phase = Loading
	if p.device == nil {
		p.playing = false
		return
	}
	p.load(track)
}

func (p *Player) load(track *models.Track) {
	p.bind()
	p.logger.Debugf("loading %s (%s)", track.Name, track.File)

	if err := p.device.Load(track.File); err != nil {
		p.logger.Errorf("Error loading %s: %v", track.File, err)
		sentry.CaptureException(err)
		p.syncTransport()
		return
	}
	if err := p.device.Play(); err != nil {
		p.playbackFailed(err)
	}
	p.syncTransport()
	p.record(*track)
}

// syncTransport reads the is-playing flag back from the device instead of
// trusting the command that was just issued.
func (p *Player) syncTransport() {
	p.playing = !p.device.Paused()
	if p.playing {
		p.phase = Playing
	} else {
		p.phase = Paused
	}
}

func (p *Player) playbackFailed(err error) {
	if errors.Is(err, audio.ErrPlaybackRejected) {
		p.logger.Warnf("Audio playback rejected: %v", err)
		return
	}
	p.logger.Errorf("Audio playback error: %v", err)
	sentry.CaptureException(err)
}

// bind subscribes to the device for the current track, dropping the previous
// subscription first.
func (p *Player) bind() {
	p.unbind()
	sub := p.device.Subscribe()
	p.binding = sub
	gen := p.bindGen
	go p.listenForDeviceEvents(sub, gen)
}

func (p *Player) unbind() {
	if p.binding != nil {
		p.binding.Unsubscribe()
		p.binding = nil
	}
	p.bindGen++
}

// release gives up the device subscription and stops playback.
func (p *Player) release() {
	p.unbind()
	if p.device != nil {
		p.device.Pause()
	}
}

func (p *Player) listenForDeviceEvents(sub *audio.Subscription, gen uint64) {
	for {
		select {
		case <-sub.Done:
			return
		case event := <-sub.Events:
			p.handleDeviceEvent(event, gen)
		}
	}
}

func (p *Player) handleDeviceEvent(event audio.Event, gen uint64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	// events buffered for a previous track are stale
	if gen != p.bindGen || p.current == nil || p.device == nil {
		return
	}

	p.logger.Tracef("device event: %s", event.Type)
	switch event.Type {
	case audio.EventLoadStart:
		p.elapsed = Clock{}
		p.total = Clock{}
		p.fill = 0
	case audio.EventLoadedMetadata, audio.EventTimeUpdate:
		p.updateTime(event.CurrentTime, event.Duration)
	case audio.EventPlay, audio.EventPause:
		// the event may lag behind later commands; the device has the final word
		p.syncTransport()
	case audio.EventEnded:
		p.logger.Debugf("finished %s", p.current.Name)
		p.step(1)
	case audio.EventError:
		p.logger.Warnf("device error for %s: %v", event.Source, event.Error)
	default:
		p.logger.Warnf("Unknown device event: %s", event.Type)
	}
	p.notify()
}

func (p *Player) updateTime(current, duration float64) {
	p.elapsed = ClockFrom(current)
	p.total = ClockFrom(duration)
	if fill, ok := Fill(current, duration); ok {
		p.fill = fill
	}
}

// record must be called with p.mutex held.
func (p *Player) record(track models.Track) {
	if p.history == nil || p.closed {
		return
	}
	p.writes.Add(1)
	go func() {
		defer p.writes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.history.RecordPlay(ctx, track.ID, track.Name); err != nil {
			p.logger.Warnf("Failed to record play of %s: %v", track.ID, err)
		}
	}()
}

func (p *Player) snapshot() State {
	return State{
		Track:   p.current,
		Playing: p.playing,
		Phase:   p.phase,
		Elapsed: p.elapsed,
		Total:   p.total,
		Fill:    p.fill,
	}
}

func (p *Player) notify() {
	state := p.snapshot()
	for ch := range p.observers {
		select {
		case ch <- state:
		default:
		}
	}
}
