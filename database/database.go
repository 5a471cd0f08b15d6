package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"musicstream/config"
	"musicstream/models"
)

var ErrNotFound = errors.New("not found")

// Store is the catalog and play-history storage used by the Catalog Service
// and the server-hosted player.
type Store interface {
	ListSongs(ctx context.Context) ([]models.Track, error)
	AddSong(ctx context.Context, song models.Track) (models.Track, error)
	RemoveSong(ctx context.Context, id string) error
	ListAlbums(ctx context.Context) ([]models.Album, error)
	AddAlbum(ctx context.Context, album models.Album) (models.Album, error)
	RemoveAlbum(ctx context.Context, id string) error
	RecordPlay(ctx context.Context, trackID, name string) error
	GetHistory(ctx context.Context, limit int) ([]models.PlayRecord, error)
	GetMostPlayed(ctx context.Context, limit int) ([]models.MostPlayedRecord, error)
	Close() error
}

// Open returns the store selected by cfg.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	if cfg.IsMongo() {
		return NewMongo(ctx, cfg.MongoURI)
	}
	return New(cfg.Path)
}

// timestamps are stored fixed-width so that text ordering is time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Database struct {
	db *sql.DB
}

// New opens (creating if needed) the SQLite database at dbPath.
func New(dbPath string) (*Database, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	d := &Database{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Infof("Database initialized at %s", dbPath)
	return d, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS songs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			album TEXT NOT NULL DEFAULT '',
			image TEXT NOT NULL DEFAULT '',
			file TEXT NOT NULL,
			duration TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_songs_album ON songs(album)`,
		`CREATE TABLE IF NOT EXISTS albums (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			bg_colour TEXT NOT NULL DEFAULT '',
			image TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS play_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			track_id TEXT NOT NULL,
			name TEXT NOT NULL,
			played_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_play_history_played_at ON play_history(played_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_play_history_track_id ON play_history(track_id)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return nil
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ListSongs returns every song in insertion order.
func (d *Database) ListSongs(ctx context.Context) ([]models.Track, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, name, description, album, image, file, duration FROM songs ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := []models.Track{}
	for rows.Next() {
		var s models.Track
		if err := rows.Scan(&s.ID, &s.Name, &s.Desc, &s.Album, &s.Image, &s.File, &s.Duration); err != nil {
			return nil, fmt.Errorf("failed to scan song row: %w", err)
		}
		songs = append(songs, s)
	}
	return songs, rows.Err()
}

func (d *Database) AddSong(ctx context.Context, song models.Track) (models.Track, error) {
	song.ID = newID()
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO songs (id, name, description, album, image, file, duration) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		song.ID, song.Name, song.Desc, song.Album, song.Image, song.File, song.Duration,
	)
	if err != nil {
		return models.Track{}, fmt.Errorf("failed to add song: %w", err)
	}
	return song, nil
}

func (d *Database) RemoveSong(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM songs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove song: %w", err)
	}
	return expectRow(res, "song", id)
}

// ListAlbums returns every album in insertion order.
func (d *Database) ListAlbums(ctx context.Context) ([]models.Album, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, name, description, bg_colour, image FROM albums ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query albums: %w", err)
	}
	defer rows.Close()

	albums := []models.Album{}
	for rows.Next() {
		var a models.Album
		if err := rows.Scan(&a.ID, &a.Name, &a.Desc, &a.BgColour, &a.Image); err != nil {
			return nil, fmt.Errorf("failed to scan album row: %w", err)
		}
		albums = append(albums, a)
	}
	return albums, rows.Err()
}

func (d *Database) AddAlbum(ctx context.Context, album models.Album) (models.Album, error) {
	album.ID = newID()
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO albums (id, name, description, bg_colour, image) VALUES (?, ?, ?, ?, ?)`,
		album.ID, album.Name, album.Desc, album.BgColour, album.Image,
	)
	if err != nil {
		return models.Album{}, fmt.Errorf("failed to add album: %w", err)
	}
	return album, nil
}

// RemoveAlbum deletes the album and every song filed under its name.
func (d *Database) RemoveAlbum(ctx context.Context, id string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var name string
	err = tx.QueryRowContext(ctx, `SELECT name FROM albums WHERE id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("album %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to look up album: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM songs WHERE album = ?`, name); err != nil {
		return fmt.Errorf("failed to remove album songs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM albums WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to remove album: %w", err)
	}
	return tx.Commit()
}

// RecordPlay inserts a play record stamped with the current time.
func (d *Database) RecordPlay(ctx context.Context, trackID, name string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO play_history (track_id, name, played_at) VALUES (?, ?, ?)`,
		trackID, name, time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to record play: %w", err)
	}
	return nil
}

// GetHistory returns the most recent plays, newest first.
func (d *Database) GetHistory(ctx context.Context, limit int) ([]models.PlayRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT id, track_id, name, played_at FROM play_history ORDER BY played_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	records := []models.PlayRecord{}
	for rows.Next() {
		var r models.PlayRecord
		var id int64
		var playedAt string
		if err := rows.Scan(&id, &r.TrackID, &r.Name, &playedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		r.ID = fmt.Sprint(id)
		r.PlayedAt = parseTimestamp(playedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetMostPlayed returns the most played tracks.
func (d *Database) GetMostPlayed(ctx context.Context, limit int) ([]models.MostPlayedRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT track_id, MAX(name), COUNT(*) AS play_count, MAX(played_at) AS last_played
		 FROM play_history
		 GROUP BY track_id
		 ORDER BY play_count DESC, last_played DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query most played: %w", err)
	}
	defer rows.Close()

	records := []models.MostPlayedRecord{}
	for rows.Next() {
		var r models.MostPlayedRecord
		var lastPlayed string
		if err := rows.Scan(&r.TrackID, &r.Name, &r.PlayCount, &lastPlayed); err != nil {
			return nil, fmt.Errorf("failed to scan most played row: %w", err)
		}
		r.LastPlayed = parseTimestamp(lastPlayed)
		records = append(records, r)
	}
	return records, rows.Err()
}

func parseTimestamp(s string) time.Time {
	formats := []string{
		timeLayout,
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	log.Warnf("failed to parse timestamp '%s' with all known formats", s)
	return time.Time{}
}

func expectRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

var _ Store = (*Database)(nil)
