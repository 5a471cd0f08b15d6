package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicstream/models"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSongsRoundTripInInsertionOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	songs, err := db.ListSongs(ctx)
	require.NoError(t, err)
	assert.NotNil(t, songs)
	assert.Empty(t, songs)

	names := []string{"Zebra", "Apple", "Mango"}
	for _, n := range names {
		added, err := db.AddSong(ctx, models.Track{Name: n, File: n + ".mp3", Duration: "3:00"})
		require.NoError(t, err)
		assert.Len(t, added.ID, 32)
	}

	songs, err = db.ListSongs(ctx)
	require.NoError(t, err)
	require.Len(t, songs, 3)
	for i, n := range names {
		assert.Equal(t, n, songs[i].Name)
		assert.Equal(t, "3:00", songs[i].Duration)
	}
}

func TestRemoveSong(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	added, err := db.AddSong(ctx, models.Track{Name: "One", File: "one.mp3"})
	require.NoError(t, err)

	require.NoError(t, db.RemoveSong(ctx, added.ID))
	assert.ErrorIs(t, db.RemoveSong(ctx, added.ID), ErrNotFound)

	songs, err := db.ListSongs(ctx)
	require.NoError(t, err)
	assert.Empty(t, songs)
}

func TestRemoveAlbumRemovesItsSongs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	album, err := db.AddAlbum(ctx, models.Album{Name: "Blue", BgColour: "#0000ff"})
	require.NoError(t, err)
	_, err = db.AddAlbum(ctx, models.Album{Name: "Red"})
	require.NoError(t, err)

	_, err = db.AddSong(ctx, models.Track{Name: "b1", Album: "Blue", File: "b1.mp3"})
	require.NoError(t, err)
	_, err = db.AddSong(ctx, models.Track{Name: "r1", Album: "Red", File: "r1.mp3"})
	require.NoError(t, err)

	require.NoError(t, db.RemoveAlbum(ctx, album.ID))
	assert.ErrorIs(t, db.RemoveAlbum(ctx, album.ID), ErrNotFound)

	albums, err := db.ListAlbums(ctx)
	require.NoError(t, err)
	require.Len(t, albums, 1)
	assert.Equal(t, "Red", albums[0].Name)

	songs, err := db.ListSongs(ctx)
	require.NoError(t, err)
	require.Len(t, songs, 1)
	assert.Equal(t, "r1", songs[0].Name)
}

func TestHistoryAndMostPlayed(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.RecordPlay(ctx, "a", "Song A"))
	require.NoError(t, db.RecordPlay(ctx, "b", "Song B"))
	require.NoError(t, db.RecordPlay(ctx, "a", "Song A"))

	history, err := db.GetHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "a", history[0].TrackID)
	assert.Equal(t, "b", history[1].TrackID)
	assert.WithinDuration(t, time.Now(), history[0].PlayedAt, time.Minute)

	limited, err := db.GetHistory(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	top, err := db.GetMostPlayed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "a", top[0].TrackID)
	assert.Equal(t, "Song A", top[0].Name)
	assert.Equal(t, 2, top[0].PlayCount)
	assert.Equal(t, 1, top[1].PlayCount)
	assert.False(t, top[0].LastPlayed.IsZero())
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	tests := []string{
		want.Format(timeLayout),
		want.Format(time.RFC3339Nano),
		"2024-03-01 12:30:00",
	}
	for _, in := range tests {
		assert.True(t, want.Equal(parseTimestamp(in)), in)
	}
	assert.True(t, parseTimestamp("yesterday").IsZero())
}
