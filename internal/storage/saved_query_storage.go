// Path: internal/storage/saved_query_storage.go
package storage

import (
	"context"
	"errors"
	"fmt"

	"pastry-portal/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSavedQueryStorage is the MongoDB implementation of the
// SavedQueryStorage interface.
type MongoSavedQueryStorage struct {
	collection *mongo.Collection
}

// NewMongoSavedQueryStorage creates a new storage adapter for saved queries.
func NewMongoSavedQueryStorage(db *mongo.Database, collectionName string) *MongoSavedQueryStorage {
	return &MongoSavedQueryStorage{
		collection: db.Collection(collectionName),
	}
}

// EnsureIndexes creates the index used by the per-user lookups.
func (s *MongoSavedQueryStorage) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "resource", Value: 1}, {Key: "name", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create saved query index: %w", err)
	}
	return nil
}

// Upsert implements the SavedQueryStorage interface.
func (s *MongoSavedQueryStorage) Upsert(ctx context.Context, q domain.SavedQuery) error {
	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"_id": q.ID}
	_, err := s.collection.ReplaceOne(ctx, filter, q, opts)
	return err
}

// FindByID implements the SavedQueryStorage interface.
func (s *MongoSavedQueryStorage) FindByID(ctx context.Context, id string) (*domain.SavedQuery, error) {
	var q domain.SavedQuery
	filter := bson.M{"_id": id}
	err := s.collection.FindOne(ctx, filter).Decode(&q)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // Return nil, nil if not found
		}
		return nil, err
	}
	return &q, nil
}

// FindByUser implements the SavedQueryStorage interface. An empty resource
// matches every resource.
func (s *MongoSavedQueryStorage) FindByUser(ctx context.Context, userID string, resource domain.Resource) ([]domain.SavedQuery, error) {
	filter := bson.M{"userId": userID}
	if resource != "" {
		filter["resource"] = resource
	}
	opts := options.Find().SetSort(bson.D{{Key: "resource", Value: 1}, {Key: "name", Value: 1}})

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	queries := []domain.SavedQuery{}
	if err := cursor.All(ctx, &queries); err != nil {
		return nil, err
	}
	return queries, nil
}

// FindDefault implements the SavedQueryStorage interface.
func (s *MongoSavedQueryStorage) FindDefault(ctx context.Context, userID string, resource domain.Resource) (*domain.SavedQuery, error) {
	var q domain.SavedQuery
	filter := bson.M{"userId": userID, "resource": resource, "isDefault": true}
	err := s.collection.FindOne(ctx, filter).Decode(&q)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // No default saved
		}
		return nil, err
	}
	return &q, nil
}

// Delete implements the SavedQueryStorage interface. It reports whether a
// document was removed.
func (s *MongoSavedQueryStorage) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// ClearDefault implements the SavedQueryStorage interface.
func (s *MongoSavedQueryStorage) ClearDefault(ctx context.Context, userID string, resource domain.Resource) error {
	filter := bson.M{"userId": userID, "resource": resource, "isDefault": true}
	update := bson.M{"$set": bson.M{"isDefault": false}}
	_, err := s.collection.UpdateMany(ctx, filter, update)
	return err
}
