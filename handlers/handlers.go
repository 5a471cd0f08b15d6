package handlers

// handlers expose the catalog store and the server-hosted player over HTTP.
// Every JSON response carries "success"; failures add a "message".

import (
	"context"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"musicstream/controller"
	"musicstream/database"
	"musicstream/lyrics"
)

// LyricsSearcher looks up lyrics for a free-text query.
type LyricsSearcher interface {
	Search(ctx context.Context, query string) (*lyrics.Result, error)
}

// Gesturer is implemented by devices that gate autoplay on user activation.
type Gesturer interface {
	Gesture()
}

type Manager struct {
	Store        database.Store
	Player       *controller.Player
	Lyrics       LyricsSearcher
	Device       Gesturer
	HistoryLimit int
	logger       *log.Entry
}

func NewManager(store database.Store, player *controller.Player, lyricsClient LyricsSearcher, device Gesturer, historyLimit int) *Manager {
	return &Manager{
		Store:        store,
		Player:       player,
		Lyrics:       lyricsClient,
		Device:       device,
		HistoryLimit: historyLimit,
		logger: log.WithFields(log.Fields{
			"module": "handlers",
		}),
	}
}

// Register mounts every route on router.
func (m *Manager) Register(router gin.IRouter) {
	router.GET("/", m.NowPlaying)

	api := router.Group("/api")

	song := api.Group("/song")
	song.GET("/list", m.ListSongs)
	song.POST("/add", m.AddSong)
	song.POST("/remove", m.RemoveSong)

	album := api.Group("/album")
	album.GET("/list", m.ListAlbums)
	album.POST("/add", m.AddAlbum)
	album.POST("/remove", m.RemoveAlbum)

	if m.Player != nil {
		player := api.Group("/player")
		player.GET("/state", m.PlayerState)
		player.POST("/play", m.Play)
		player.POST("/pause", m.Pause)
		player.POST("/next", m.Next)
		player.POST("/previous", m.Previous)
		player.POST("/select", m.Select)
		player.POST("/seek", m.Seek)
		player.POST("/reload", m.Reload)
		player.GET("/lyrics", m.CurrentLyrics)
	}

	history := api.Group("/history")
	history.GET("", m.History)
	history.GET("/top", m.TopPlayed)
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

type idRequest struct {
	ID string `json:"id" binding:"required"`
}
