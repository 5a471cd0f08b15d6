package handlers

import (
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"musicstream/models"
)

const maxHistoryLimit = 100

type historyEntry struct {
	models.PlayRecord
	PlayedAgo string `json:"playedAgo"`
}

type topEntry struct {
	models.MostPlayedRecord
	LastPlayedAgo string `json:"lastPlayedAgo"`
}

// limit reads ?limit=, falling back to the configured default and clamping
// to [1, maxHistoryLimit].
func (m *Manager) limit(c *gin.Context) int {
	limit := m.HistoryLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return limit
}

func (m *Manager) History(c *gin.Context) {
	records, err := m.Store.GetHistory(c.Request.Context(), m.limit(c))
	if err != nil {
		m.storageFailed(c, "get history", err)
		return
	}

	entries := make([]historyEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, historyEntry{PlayRecord: r, PlayedAgo: humanize.Time(r.PlayedAt)})
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"history": entries,
	})
}

func (m *Manager) TopPlayed(c *gin.Context) {
	records, err := m.Store.GetMostPlayed(c.Request.Context(), m.limit(c))
	if err != nil {
		m.storageFailed(c, "get most played", err)
		return
	}

	entries := make([]topEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, topEntry{MostPlayedRecord: r, LastPlayedAgo: humanize.Time(r.LastPlayed)})
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"top":     entries,
	})
}
