// Path: internal/backend/client.go
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"pastry-portal/internal/config"
	"pastry-portal/internal/domain"
	"pastry-portal/internal/metrics"
)

// ErrUnexpectedStatus is wrapped by every StatusError.
var ErrUnexpectedStatus = errors.New("unexpected status code")

// StatusError reports a non-success response from the backend.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s: %d", e.Endpoint, ErrUnexpectedStatus, e.Code)
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// Client is a read-only client for the pastry backend API.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	// flights coalesces identical in-flight GETs.
	flights singleflight.Group
	log     *logrus.Entry
}

// NewClient creates and configures a new Client.
func NewClient(cfg config.BackendConfig) *Client {
	limit := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		limit = rate.Inf
	}
	burst := cfg.BurstLimit
	if burst <= 0 {
		burst = 1
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(limit, burst),
		log:     logrus.WithField("component", "backend"),
	}
}

// Courses fetches the course catalogue.
func (c *Client) Courses(ctx context.Context) ([]domain.Course, error) {
	return fetchList[domain.Course](ctx, c, "courses", "/courses", nil)
}

// Levels fetches the difficulty levels.
func (c *Client) Levels(ctx context.Context) ([]domain.Level, error) {
	return fetchList[domain.Level](ctx, c, "levels", "/levels", nil)
}

// Categories fetches the course categories.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	return fetchList[domain.Category](ctx, c, "categories", "/categories", nil)
}

// Posts fetches the community feed. When viewerID is positive the backend
// fills in IsLiked from that user's point of view.
func (c *Client) Posts(ctx context.Context, viewerID int) ([]domain.Post, error) {
	var q url.Values
	if viewerID > 0 {
		q = url.Values{"userId": {strconv.Itoa(viewerID)}}
	}
	return fetchList[domain.Post](ctx, c, "posts", "/UserPosts", q)
}

// LikedPosts fetches the posts userID has liked.
func (c *Client) LikedPosts(ctx context.Context, userID int) ([]domain.Post, error) {
	return fetchList[domain.Post](ctx, c, "liked_posts", "/UserPosts/liked/"+strconv.Itoa(userID), nil)
}

// Reviews fetches all user feedback.
func (c *Client) Reviews(ctx context.Context) ([]domain.Review, error) {
	return fetchList[domain.Review](ctx, c, "reviews", "/UserFeedbacks", nil)
}

// CourseReviewSummary fetches the rating summary of one course.
func (c *Client) CourseReviewSummary(ctx context.Context, courseID int) (domain.ReviewSummary, error) {
	var summary domain.ReviewSummary
	body, err := c.get(ctx, "review_summary", "/UserFeedbacks/course/"+strconv.Itoa(courseID), nil)
	if err != nil {
		return summary, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return summary, nil
	}
	if err := json.Unmarshal(body, &summary); err != nil {
		return summary, fmt.Errorf("failed to unmarshal review summary: %w", err)
	}
	return summary, nil
}

// UserCourses fetches one tab of a user's course collection.
func (c *Client) UserCourses(ctx context.Context, userID int, status domain.CollectionStatus) ([]domain.UserCourse, error) {
	q := url.Values{
		"userId": {strconv.Itoa(userID)},
		"status": {string(status)},
	}
	return fetchList[domain.UserCourse](ctx, c, "user_courses", "/usercourses", q)
}

// get performs a rate-limited GET and returns the response body. Concurrent
// calls for the same URL share one request.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	v, err, shared := c.flights.Do(target, func() (any, error) {
		start := time.Now()
		body, err := c.do(ctx, endpoint, target)
		metrics.RecordBackendRequest(endpoint, time.Since(start), err)
		return body, err
	})
	if shared {
		c.log.WithField("endpoint", endpoint).Debug("shared in-flight request")
	}
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Client) do(ctx context.Context, endpoint, target string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{Endpoint: endpoint, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// fetchList GETs a JSON array and decodes it record by record. A record that
// fails to decode is logged and skipped; only a body that is not an array at
// all fails the call. An empty body or null decodes to an empty list.
func fetchList[T any](ctx context.Context, c *Client, endpoint, path string, query url.Values) ([]T, error) {
	body, err := c.get(ctx, endpoint, path, query)
	if err != nil {
		return nil, err
	}
	return decodeList[T](c.log.WithField("endpoint", endpoint), endpoint, body)
}

func decodeList[T any](log *logrus.Entry, endpoint string, body []byte) ([]T, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return []T{}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal json response: %w", err)
	}

	out := make([]T, 0, len(raw))
	skipped := 0
	for i, msg := range raw {
		var rec T
		if err := json.Unmarshal(msg, &rec); err != nil {
			skipped++
			log.WithError(err).WithField("index", i).Warn("skipping malformed record")
			continue
		}
		out = append(out, rec)
	}
	metrics.RecordSkippedRecords(endpoint, skipped)
	return out, nil
}
