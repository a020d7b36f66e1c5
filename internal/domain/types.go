// Path: internal/domain/types.go
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// --- Custom Type for backend timestamps ---

// timestampLayouts lists the formats the backend is known to emit. The API
// serializes DateTime values without a zone designator, which time.Time's own
// UnmarshalJSON rejects.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp is a time value that can be unmarshaled from any of the layouts
// in timestampLayouts. Unparseable or null values decode to the zero time
// instead of failing the whole response, so a single bad record never aborts
// a list decode. The zero value means "missing".
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// UnmarshalJSON implements the json.Unmarshaler interface for Timestamp.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// null, numbers, objects: treat as missing.
		ts.Time = time.Time{}
		return nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.Time = t.UTC()
			return nil
		}
	}
	ts.Time = time.Time{}
	return nil
}

// MarshalJSON renders the timestamp as RFC 3339, or null when missing.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Time.Format(time.RFC3339))
}

// Resource names one of the browsable record collections.
type Resource string

const (
	ResourceCourses Resource = "courses"
	ResourcePosts   Resource = "posts"
	ResourceReviews Resource = "reviews"
)

// Resources lists every resource the portal keeps a snapshot of.
var Resources = []Resource{ResourceCourses, ResourcePosts, ResourceReviews}

// ParseResource validates a resource name.
func ParseResource(s string) (Resource, error) {
	switch r := Resource(strings.ToLower(strings.TrimSpace(s))); r {
	case ResourceCourses, ResourcePosts, ResourceReviews:
		return r, nil
	default:
		return "", fmt.Errorf("unknown resource: %q", s)
	}
}

// CollectionStatus selects one tab of a user's course collection.
type CollectionStatus string

const (
	CollectionProgressing CollectionStatus = "progressing"
	CollectionCompleted   CollectionStatus = "completed"
	CollectionBookmarked  CollectionStatus = "bookmarked"
)

// ParseCollectionStatus validates a collection tab name.
func ParseCollectionStatus(s string) (CollectionStatus, error) {
	switch c := CollectionStatus(strings.ToLower(strings.TrimSpace(s))); c {
	case CollectionProgressing, CollectionCompleted, CollectionBookmarked:
		return c, nil
	default:
		return "", fmt.Errorf("unknown collection status: %q", s)
	}
}
