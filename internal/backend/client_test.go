package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pastry-portal/internal/config"
	"pastry-portal/internal/domain"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.BackendConfig{BaseURL: srv.URL + "/api/", TimeoutSeconds: 5})
}

func TestClient_Courses(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/courses", r.URL.Path)
		w.Write([]byte(`[
			{"courseId": 1, "title": "Bread Basics", "level": {"title": "Beginner"}},
			{"courseId": 2, "title": "Cake Art", "levelName": "Advanced", "cookingTimeMin": 120}
		]`))
	}))

	courses, err := c.Courses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "Beginner", courses[0].LevelName)
	assert.Equal(t, 120, *courses[1].CookingTimeMin)
}

func TestClient_SkipsMalformedRecords(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[
			{"id": 1, "type": "review", "rating": 5},
			{"id": "two", "type": "review"},
			{"id": 3, "type": "website", "rating": 4, "createdAt": "not a date"}
		]`))
	}))

	reviews, err := c.Reviews(context.Background())
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, 1, reviews[0].ID)
	assert.Equal(t, 3, reviews[1].ID)
	assert.True(t, reviews[1].CreatedAt.IsZero())
}

func TestClient_EmptyResponses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"no content", http.StatusNoContent, ""},
		{"null", http.StatusOK, "null"},
		{"empty array", http.StatusOK, "[]"},
		{"blank", http.StatusOK, "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))

			posts, err := c.Posts(context.Background(), 0)
			require.NoError(t, err)
			assert.NotNil(t, posts)
			assert.Empty(t, posts)
		})
	}
}

func TestClient_StatusError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))

	_, err := c.Levels(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	assert.Equal(t, "levels", statusErr.Endpoint)
}

func TestClient_NotAnArray(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"message": "oops"}`))
	}))

	_, err := c.Categories(context.Background())
	assert.Error(t, err)
}

func TestClient_QueryParameters(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.RequestURI())
		mu.Unlock()
		if r.URL.Path == "/api/UserFeedbacks/course/9" {
			w.Write([]byte(`{"averageRating": 4.2, "totalReviews": 5}`))
			return
		}
		w.Write([]byte(`[]`))
	}))

	ctx := context.Background()
	_, err := c.Posts(ctx, 3)
	require.NoError(t, err)
	_, err = c.LikedPosts(ctx, 3)
	require.NoError(t, err)
	_, err = c.UserCourses(ctx, 3, domain.CollectionBookmarked)
	require.NoError(t, err)
	summary, err := c.CourseReviewSummary(ctx, 9)
	require.NoError(t, err)

	assert.Equal(t, domain.ReviewSummary{AverageRating: 4.2, TotalReviews: 5}, summary)
	assert.Equal(t, []string{
		"/api/UserPosts?userId=3",
		"/api/UserPosts/liked/3",
		"/api/usercourses?status=bookmarked&userId=3",
		"/api/UserFeedbacks/course/9",
	}, seen)
}

func TestClient_CoalescesConcurrentRequests(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		<-release
		w.Write([]byte(`[{"courseId": 1}]`))
	}))

	const callers = 5
	var wg sync.WaitGroup
	results := make([][]domain.Course, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			courses, err := c.Courses(context.Background())
			assert.NoError(t, err)
			results[i] = courses
		}(i)
	}

	// Give every caller time to join the in-flight request.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
	for _, r := range results {
		assert.Len(t, r, 1)
	}
}

func TestClient_ContextCanceled(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[]`))
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Courses(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
