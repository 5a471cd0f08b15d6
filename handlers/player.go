package handlers

import (
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"musicstream/controller"
	"musicstream/pages"
)

func (m *Manager) respondState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"state":   m.Player.State(),
	})
}

func (m *Manager) PlayerState(c *gin.Context) {
	m.respondState(c)
}

// gesture marks a user-initiated command so a gated device accepts playback.
func (m *Manager) gesture() {
	if m.Device != nil {
		m.Device.Gesture()
	}
}

func (m *Manager) Play(c *gin.Context) {
	m.gesture()
	m.Player.Play()
	m.respondState(c)
}

func (m *Manager) Pause(c *gin.Context) {
	m.Player.Pause()
	m.respondState(c)
}

func (m *Manager) Next(c *gin.Context) {
	m.gesture()
	m.Player.Next()
	m.respondState(c)
}

func (m *Manager) Previous(c *gin.Context) {
	m.gesture()
	m.Player.Previous()
	m.respondState(c)
}

func (m *Manager) Select(c *gin.Context) {
	var req idRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "id is required")
		return
	}
	m.gesture()
	m.Player.SelectTrack(req.ID)
	m.respondState(c)
}

type seekRequest struct {
	Fraction *float64 `json:"fraction"`
	OffsetX  *float64 `json:"offsetX"`
	Width    *float64 `json:"width"`
}

func (m *Manager) Seek(c *gin.Context) {
	var req seekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid seek: "+err.Error())
		return
	}

	switch {
	case req.Fraction != nil:
		m.Player.Seek(*req.Fraction)
	case req.OffsetX != nil && req.Width != nil:
		m.Player.SeekPointer(*req.OffsetX, *req.Width)
	default:
		fail(c, http.StatusBadRequest, "fraction or offsetX and width are required")
		return
	}
	m.respondState(c)
}

func (m *Manager) Reload(c *gin.Context) {
	err := m.Player.LoadCatalog(c.Request.Context())
	if errors.Is(err, controller.ErrSuperseded) {
		fail(c, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	m.respondState(c)
}

func (m *Manager) CurrentLyrics(c *gin.Context) {
	state := m.Player.State()
	if state.Track == nil {
		fail(c, http.StatusNotFound, "nothing is playing")
		return
	}
	if m.Lyrics == nil {
		fail(c, http.StatusServiceUnavailable, "lyrics lookup is not configured")
		return
	}

	query := strings.TrimSpace(state.Track.Name + " " + state.Track.Album)
	res, err := m.Lyrics.Search(c.Request.Context(), query)
	if err != nil {
		m.logger.Warnf("lyrics lookup for %q failed: %v", query, err)
		fail(c, http.StatusBadGateway, "lyrics lookup failed")
		return
	}
	if res == nil || res.Lyrics == "" {
		fail(c, http.StatusNotFound, "no lyrics found for "+state.Track.Name)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"trackId":   state.Track.ID,
		"trackInfo": res.TrackInfo,
		"lyrics":    res.Lyrics,
	})
}

// NowPlaying renders the HTML now-playing page.
func (m *Manager) NowPlaying(c *gin.Context) {
	data := pages.NowPlaying{}
	if m.Player != nil {
		data = m.nowPlayingData()
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := pages.RenderNowPlaying(c.Writer, data); err != nil {
		m.logger.Errorf("Error rendering now playing page: %v", err)
	}
}

func (m *Manager) nowPlayingData() pages.NowPlaying {
	state := m.Player.State()
	data := pages.NowPlaying{
		Elapsed: state.Elapsed.String(),
		Total:   state.Total.String(),
		Fill:    math.Max(0, math.Min(100, state.Fill)),
		Playing: state.Playing,
	}

	current := state.TrackID()
	for _, t := range m.Player.Tracks() {
		data.Tracks = append(data.Tracks, pages.Entry{
			ID:       t.ID,
			Name:     t.Name,
			Album:    t.Album,
			Duration: t.Duration,
			Current:  t.ID == current,
		})
	}

	if state.Track == nil {
		return data
	}
	data.Title = state.Track.Name
	data.Album = state.Track.Album
	data.Desc = state.Track.Desc
	data.Image = state.Track.Image
	for _, a := range m.Player.Albums() {
		if a.Name == state.Track.Album {
			data.BgColour = a.BgColour
			break
		}
	}
	return data
}
