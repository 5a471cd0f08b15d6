package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"musicstream/models"
)

const mongoDatabase = "spotify"

// Mongo stores the catalog in MongoDB. Document ids are ObjectIDs, exposed
// to callers as hex strings.
type Mongo struct {
	client  *mongo.Client
	songs   *mongo.Collection
	albums  *mongo.Collection
	history *mongo.Collection
	logger  *log.Entry
}

func NewMongo(ctx context.Context, uri string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	m := newMongo(client)
	m.logger.Infof("mongoose connected successfully to %s", mongoDatabase)
	return m, nil
}

func newMongo(client *mongo.Client) *Mongo {
	db := client.Database(mongoDatabase)
	return &Mongo{
		client:  client,
		songs:   db.Collection("songs"),
		albums:  db.Collection("albums"),
		history: db.Collection("history"),
		logger: log.WithFields(log.Fields{
			"module": "mongo",
		}),
	}
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// ObjectIDs grow with insertion time, so sorting on _id keeps insertion order.
var byInsertion = options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

func (m *Mongo) ListSongs(ctx context.Context) ([]models.Track, error) {
	cursor, err := m.songs.Find(ctx, bson.D{}, byInsertion)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	songs := []models.Track{}
	if err := cursor.All(ctx, &songs); err != nil {
		return nil, fmt.Errorf("failed to decode songs: %w", err)
	}
	return songs, nil
}

func (m *Mongo) AddSong(ctx context.Context, song models.Track) (models.Track, error) {
	song.ID = ""
	res, err := m.songs.InsertOne(ctx, song)
	if err != nil {
		return models.Track{}, fmt.Errorf("failed to add song: %w", err)
	}
	song.ID = insertedHex(res)
	return song, nil
}

func (m *Mongo) RemoveSong(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("song %s: %w", id, ErrNotFound)
	}
	res, err := m.songs.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to remove song: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("song %s: %w", id, ErrNotFound)
	}
	return nil
}

func (m *Mongo) ListAlbums(ctx context.Context) ([]models.Album, error) {
	cursor, err := m.albums.Find(ctx, bson.D{}, byInsertion)
	if err != nil {
		return nil, fmt.Errorf("failed to query albums: %w", err)
	}
	albums := []models.Album{}
	if err := cursor.All(ctx, &albums); err != nil {
		return nil, fmt.Errorf("failed to decode albums: %w", err)
	}
	return albums, nil
}

func (m *Mongo) AddAlbum(ctx context.Context, album models.Album) (models.Album, error) {
	album.ID = ""
	res, err := m.albums.InsertOne(ctx, album)
	if err != nil {
		return models.Album{}, fmt.Errorf("failed to add album: %w", err)
	}
	album.ID = insertedHex(res)
	return album, nil
}

// RemoveAlbum deletes every song filed under the album's name, then the album.
// If the song delete fails the album stays in place.
func (m *Mongo) RemoveAlbum(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("album %s: %w", id, ErrNotFound)
	}

	var album models.Album
	err = m.albums.FindOne(ctx, bson.M{"_id": oid}).Decode(&album)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("album %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to find album: %w", err)
	}

	res, err := m.songs.DeleteMany(ctx, bson.M{"album": album.Name})
	if err != nil {
		return fmt.Errorf("failed to remove album songs: %w", err)
	}

	if _, err := m.albums.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("failed to remove album: %w", err)
	}
	m.logger.Debugf("removed album %s with %d songs", album.Name, res.DeletedCount)
	return nil
}

func (m *Mongo) RecordPlay(ctx context.Context, trackID, name string) error {
	_, err := m.history.InsertOne(ctx, models.PlayRecord{
		TrackID:  trackID,
		Name:     name,
		PlayedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to record play: %w", err)
	}
	return nil
}

func (m *Mongo) GetHistory(ctx context.Context, limit int) ([]models.PlayRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "playedAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := m.history.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	records := []models.PlayRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return records, nil
}

func (m *Mongo) GetMostPlayed(ctx context.Context, limit int) ([]models.MostPlayedRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$trackId"},
			{Key: "name", Value: bson.D{{Key: "$last", Value: "$name"}}},
			{Key: "playCount", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "lastPlayed", Value: bson.D{{Key: "$max", Value: "$playedAt"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "playCount", Value: -1}, {Key: "lastPlayed", Value: -1}}}},
		{{Key: "$limit", Value: int64(limit)}},
	}

	cursor, err := m.history.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to query most played: %w", err)
	}
	records := []models.MostPlayedRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode most played: %w", err)
	}
	return records, nil
}

func insertedHex(res *mongo.InsertOneResult) string {
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(res.InsertedID)
}

var _ Store = (*Mongo)(nil)
