package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func startedCommands(mt *mtest.T) []string {
	var names []string
	for _, e := range mt.GetAllStartedEvents() {
		names = append(names, e.CommandName)
	}
	return names
}

func TestMongoRemoveAlbum(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	oid := primitive.NewObjectID()
	album := bson.D{{Key: "_id", Value: oid}, {Key: "name", Value: "Blue"}}

	mt.Run("songs then album", func(mt *mtest.T) {
		m := newMongo(mt.Client)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "spotify.albums", mtest.FirstBatch, album),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		require.NoError(mt, m.RemoveAlbum(context.Background(), oid.Hex()))
		assert.Equal(mt, []string{"find", "delete", "delete"}, startedCommands(mt))
	})

	mt.Run("song delete failure keeps album", func(mt *mtest.T) {
		m := newMongo(mt.Client)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "spotify.albums", mtest.FirstBatch, album),
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad value"}),
		)

		err := m.RemoveAlbum(context.Background(), oid.Hex())
		require.Error(mt, err)
		assert.False(mt, errors.Is(err, ErrNotFound))
		assert.Equal(mt, []string{"find", "delete"}, startedCommands(mt))
	})

	mt.Run("missing album", func(mt *mtest.T) {
		m := newMongo(mt.Client)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "spotify.albums", mtest.FirstBatch))

		err := m.RemoveAlbum(context.Background(), oid.Hex())
		assert.ErrorIs(mt, err, ErrNotFound)
		assert.Equal(mt, []string{"find"}, startedCommands(mt))
	})

	mt.Run("invalid id", func(mt *mtest.T) {
		m := newMongo(mt.Client)
		assert.ErrorIs(mt, m.RemoveAlbum(context.Background(), "nope"), ErrNotFound)
		assert.Empty(mt, startedCommands(mt))
	})
}
