// Path: internal/storage/status_storage.go
package storage

import (
	"context"
	"errors"

	"pastry-portal/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStatusStorage is the MongoDB implementation of the StatusStorage
// interface. It keeps one document per resource, keyed by resource name.
type MongoStatusStorage struct {
	collection *mongo.Collection
}

// NewMongoStatusStorage creates a new storage adapter for sync status.
func NewMongoStatusStorage(db *mongo.Database, collectionName string) *MongoStatusStorage {
	return &MongoStatusStorage{
		collection: db.Collection(collectionName),
	}
}

// GetStatus implements the StatusStorage interface.
func (s *MongoStatusStorage) GetStatus(ctx context.Context, resource domain.Resource) (*domain.SyncStatus, error) {
	var status domain.SyncStatus
	filter := bson.M{"_id": resource}
	err := s.collection.FindOne(ctx, filter).Decode(&status)
	if err != nil {
		// The resource has never been refreshed.
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &status, nil
}

// SetStatus implements the StatusStorage interface.
func (s *MongoStatusStorage) SetStatus(ctx context.Context, status domain.SyncStatus) error {
	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"_id": status.Resource}
	_, err := s.collection.ReplaceOne(ctx, filter, status, opts)
	return err
}

// SetStatuses writes several statuses in one round trip.
func (s *MongoStatusStorage) SetStatuses(ctx context.Context, statuses []domain.SyncStatus) error {
	if len(statuses) == 0 {
		return nil
	}

	writeModels := make([]mongo.WriteModel, len(statuses))
	for i, status := range statuses {
		filter := bson.M{"_id": status.Resource}
		writeModels[i] = mongo.NewReplaceOneModel().SetFilter(filter).SetReplacement(status).SetUpsert(true)
	}

	opts := options.BulkWrite().SetOrdered(false)
	_, err := s.collection.BulkWrite(ctx, writeModels, opts)
	return err
}
