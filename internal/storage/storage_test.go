package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"pastry-portal/internal/domain"
)

func savedQueryDoc(id, name string, isDefault bool) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "userId", Value: "7"},
		{Key: "name", Value: name},
		{Key: "resource", Value: "courses"},
		{Key: "query", Value: "q=cake&sort=ratingHigh"},
		{Key: "isDefault", Value: isDefault},
		{Key: "createdAt", Value: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
	}
}

func TestMongoSavedQueryStorage(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "pastry.saved_queries"

	mt.Run("find by id", func(mt *mtest.T) {
		s := NewMongoSavedQueryStorage(mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, savedQueryDoc("a", "Cakes", true)))

		q, err := s.FindByID(context.Background(), "a")
		require.NoError(mt, err)
		require.NotNil(mt, q)
		assert.Equal(mt, "Cakes", q.Name)
		assert.Equal(mt, domain.ResourceCourses, q.Resource)
		assert.True(mt, q.IsDefault)
	})

	mt.Run("find by id missing", func(mt *mtest.T) {
		s := NewMongoSavedQueryStorage(mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		q, err := s.FindByID(context.Background(), "nope")
		require.NoError(mt, err)
		assert.Nil(mt, q)
	})

	mt.Run("find by user", func(mt *mtest.T) {
		s := NewMongoSavedQueryStorage(mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			savedQueryDoc("a", "Cakes", true),
			savedQueryDoc("b", "Quick", false),
		))

		qs, err := s.FindByUser(context.Background(), "7", domain.ResourceCourses)
		require.NoError(mt, err)
		require.Len(mt, qs, 2)
		assert.Equal(mt, "b", qs[1].ID)
	})

	mt.Run("upsert", func(mt *mtest.T) {
		s := NewMongoSavedQueryStorage(mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := s.Upsert(context.Background(), domain.SavedQuery{ID: "a", UserID: "7", Name: "Cakes"})
		assert.NoError(mt, err)
	})

	mt.Run("delete reports removal", func(mt *mtest.T) {
		s := NewMongoSavedQueryStorage(mt.DB, mt.Coll.Name())
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		removed, err := s.Delete(context.Background(), "a")
		require.NoError(mt, err)
		assert.True(mt, removed)

		removed, err = s.Delete(context.Background(), "a")
		require.NoError(mt, err)
		assert.False(mt, removed)
	})

	mt.Run("write error", func(mt *mtest.T) {
		s := NewMongoSavedQueryStorage(mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		err := s.ClearDefault(context.Background(), "7", domain.ResourceCourses)
		assert.Error(mt, err)
	})
}

func TestMongoStatusStorage(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "pastry._status"

	mt.Run("get status", func(mt *mtest.T) {
		s := NewMongoStatusStorage(mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "posts"},
			{Key: "records", Value: 12},
			{Key: "lastError", Value: "backend down"},
		}))

		status, err := s.GetStatus(context.Background(), domain.ResourcePosts)
		require.NoError(mt, err)
		require.NotNil(mt, status)
		assert.Equal(mt, domain.ResourcePosts, status.Resource)
		assert.Equal(mt, 12, status.Records)
		assert.Equal(mt, "backend down", status.LastError)
	})

	mt.Run("never refreshed", func(mt *mtest.T) {
		s := NewMongoStatusStorage(mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		status, err := s.GetStatus(context.Background(), domain.ResourceCourses)
		require.NoError(mt, err)
		assert.Nil(mt, status)
	})

	mt.Run("set statuses", func(mt *mtest.T) {
		s := NewMongoStatusStorage(mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}))

		err := s.SetStatuses(context.Background(), []domain.SyncStatus{
			{Resource: domain.ResourceCourses, Records: 3},
			{Resource: domain.ResourcePosts, Records: 4},
		})
		assert.NoError(mt, err)
	})

	mt.Run("set statuses empty is a no-op", func(mt *mtest.T) {
		s := NewMongoStatusStorage(mt.DB, mt.Coll.Name())
		assert.NoError(mt, s.SetStatuses(context.Background(), nil))
	})
}
