// Path: internal/domain/saved.go
package domain

import "time"

// SavedQuery is a named list query a user keeps for one resource.
// Query holds the URL-encoded query state, e.g. "q=cake&level=Beginner&sort=ratingHigh".
type SavedQuery struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"userId" bson:"userId"`
	Name      string    `json:"name" bson:"name"`
	Resource  Resource  `json:"resource" bson:"resource"`
	Query     string    `json:"query" bson:"query"`
	IsDefault bool      `json:"isDefault" bson:"isDefault"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// SyncStatus records the outcome of the latest refreshes of one resource.
// It is stored so the portal can report staleness across restarts.
type SyncStatus struct {
	Resource    Resource  `json:"resource" bson:"_id"`
	LastAttempt time.Time `json:"lastAttempt" bson:"lastAttempt"`
	LastSuccess time.Time `json:"lastSuccess,omitempty" bson:"lastSuccess,omitempty"`
	Records     int       `json:"records" bson:"records"`
	LastError   string    `json:"lastError,omitempty" bson:"lastError,omitempty"`
}
