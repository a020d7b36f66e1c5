// Path: internal/service/storage.go
package service

import (
	"context"

	"pastry-portal/internal/domain"
)

// SavedQueryStorage defines the interface for persisting saved list queries.
type SavedQueryStorage interface {
	// Upsert inserts a new saved query or replaces an existing one, identified by its ID.
	Upsert(ctx context.Context, q domain.SavedQuery) error

	// FindByID retrieves a single saved query. It returns nil, nil when none exists.
	FindByID(ctx context.Context, id string) (*domain.SavedQuery, error)

	// FindByUser lists a user's saved queries for one resource, or for all
	// resources when resource is empty.
	FindByUser(ctx context.Context, userID string, resource domain.Resource) ([]domain.SavedQuery, error)

	// FindDefault retrieves the user's default query for a resource, or nil.
	FindDefault(ctx context.Context, userID string, resource domain.Resource) (*domain.SavedQuery, error)

	// Delete removes a saved query and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)

	// ClearDefault unsets the default flag on every query of the user for a resource.
	ClearDefault(ctx context.Context, userID string, resource domain.Resource) error
}

// StatusStorage defines the interface for persisting refresh outcomes.
type StatusStorage interface {
	// GetStatus returns the last recorded status of a resource, or nil.
	GetStatus(ctx context.Context, resource domain.Resource) (*domain.SyncStatus, error)

	// SetStatus records the status of one resource.
	SetStatus(ctx context.Context, status domain.SyncStatus) error

	// SetStatuses records several statuses at once.
	SetStatuses(ctx context.Context, statuses []domain.SyncStatus) error
}

// Backend defines the read operations the service needs from the pastry API.
// This allows for fakes in tests.
type Backend interface {
	Courses(ctx context.Context) ([]domain.Course, error)
	Levels(ctx context.Context) ([]domain.Level, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Posts(ctx context.Context, viewerID int) ([]domain.Post, error)
	LikedPosts(ctx context.Context, userID int) ([]domain.Post, error)
	Reviews(ctx context.Context) ([]domain.Review, error)
	CourseReviewSummary(ctx context.Context, courseID int) (domain.ReviewSummary, error)
	UserCourses(ctx context.Context, userID int, status domain.CollectionStatus) ([]domain.UserCourse, error)
}
