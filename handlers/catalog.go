package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"musicstream/database"
	"musicstream/models"
	"musicstream/sentry"
)

func (m *Manager) ListSongs(c *gin.Context) {
	songs, err := m.Store.ListSongs(c.Request.Context())
	if err != nil {
		m.storageFailed(c, "list songs", err)
		return
	}
	c.JSON(http.StatusOK, models.SongListResponse{Success: true, Songs: songs})
}

func (m *Manager) AddSong(c *gin.Context) {
	var song models.Track
	if err := c.ShouldBindJSON(&song); err != nil {
		fail(c, http.StatusBadRequest, "invalid song: "+err.Error())
		return
	}
	song.Name = strings.TrimSpace(song.Name)
	if song.Name == "" || song.File == "" {
		fail(c, http.StatusBadRequest, "name and file are required")
		return
	}

	added, err := m.Store.AddSong(c.Request.Context(), song)
	if err != nil {
		m.storageFailed(c, "add song", err)
		return
	}
	m.logger.Infof("added song %s (%s)", added.Name, added.ID)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Song Added",
		"song":    added,
	})
}

func (m *Manager) RemoveSong(c *gin.Context) {
	var req idRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "id is required")
		return
	}

	if err := m.Store.RemoveSong(c.Request.Context(), req.ID); err != nil {
		m.removeFailed(c, "remove song", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Song removed",
	})
}

func (m *Manager) ListAlbums(c *gin.Context) {
	albums, err := m.Store.ListAlbums(c.Request.Context())
	if err != nil {
		m.storageFailed(c, "list albums", err)
		return
	}
	c.JSON(http.StatusOK, models.AlbumListResponse{Success: true, Albums: albums})
}

func (m *Manager) AddAlbum(c *gin.Context) {
	var album models.Album
	if err := c.ShouldBindJSON(&album); err != nil {
		fail(c, http.StatusBadRequest, "invalid album: "+err.Error())
		return
	}
	album.Name = strings.TrimSpace(album.Name)
	if album.Name == "" {
		fail(c, http.StatusBadRequest, "name is required")
		return
	}

	added, err := m.Store.AddAlbum(c.Request.Context(), album)
	if err != nil {
		m.storageFailed(c, "add album", err)
		return
	}
	m.logger.Infof("added album %s (%s)", added.Name, added.ID)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Album Added",
		"album":   added,
	})
}

func (m *Manager) RemoveAlbum(c *gin.Context) {
	var req idRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "id is required")
		return
	}

	if err := m.Store.RemoveAlbum(c.Request.Context(), req.ID); err != nil {
		m.removeFailed(c, "remove album", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Album removed",
	})
}

func (m *Manager) removeFailed(c *gin.Context, op string, err error) {
	if errors.Is(err, database.ErrNotFound) {
		fail(c, http.StatusNotFound, err.Error())
		return
	}
	m.storageFailed(c, op, err)
}

func (m *Manager) storageFailed(c *gin.Context, op string, err error) {
	m.logger.Errorf("Error during %s: %v", op, err)
	sentry.ReportError(err)
	fail(c, http.StatusInternalServerError, err.Error())
}
