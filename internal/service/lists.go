// Path: internal/service/lists.go
package service

import (
	"context"
	"fmt"
	"time"

	"pastry-portal/internal/domain"
	"pastry-portal/internal/listing"
	"pastry-portal/internal/query"
	"pastry-portal/internal/snapshot"
	"pastry-portal/internal/stats"
)

// Page is one derived list view.
type Page[T any] struct {
	Items []T `json:"items"`
	// Total is the number of records before searching and filtering.
	Total int `json:"total"`
	// LoadFailed is set when the records could not be fetched; Items is
	// then empty and a "failed to load" state should be shown instead of
	// "no results".
	LoadFailed bool      `json:"loadFailed"`
	FetchedAt  time.Time `json:"fetchedAt"`
}

// ReviewPage is a page of reviews with rating statistics.
type ReviewPage struct {
	Page[domain.Review]
	Stats stats.ReviewStats `json:"stats"`
}

// CourseRatingsPage lists courses with their review averages, summarized
// over every course review.
type CourseRatingsPage struct {
	Page[domain.Course]
	Stats stats.Summary `json:"stats"`
}

// Post list tabs.
const (
	PostsDiscover = "discover"
	PostsLiked    = "liked"
	PostsMine     = "mine"
)

// Review list tabs.
const (
	ReviewsAll     = "all"
	ReviewsWebsite = "website"
	ReviewsMine    = "mine"
)

func newPage[T any](items []T, total int, failed bool, fetchedAt time.Time) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, LoadFailed: failed, FetchedAt: fetchedAt}
}

// view returns the snapshot of resource, fetching it first if no fetch has
// completed yet. If that fetch is overtaken by a newer one, view waits for
// the newer one to complete.
func view[T any](ctx context.Context, s *Service, resource domain.Resource, store *snapshot.Store[T]) snapshot.View[T] {
	v := store.Load()
	if v.Loaded {
		return v
	}
	if err := s.Refresh(ctx, resource); err != nil {
		s.log.WithError(err).WithField("resource", resource).Debug("initial load failed")
	}
	v, err := store.Wait(ctx)
	if err != nil && !v.Loaded {
		v.Err = fmt.Errorf("waiting for %s: %w", resource, err)
	}
	return v
}

// ListCourses runs state over the course catalogue.
func (s *Service) ListCourses(ctx context.Context, state query.State) Page[domain.Course] {
	v := view(ctx, s, domain.ResourceCourses, s.courses)
	items := listing.Courses(s.locale).Run(v.Records, state)
	return newPage(items, len(v.Records), v.Failed(), v.FetchedAt)
}

// CourseRatings lists courses with their averages recomputed from the
// current reviews. The summary covers all course reviews regardless of state.
func (s *Service) CourseRatings(ctx context.Context, state query.State) CourseRatingsPage {
	cv := view(ctx, s, domain.ResourceCourses, s.courses)
	rv := view(ctx, s, domain.ResourceReviews, s.reviews)

	rated := stats.CourseAverages(cv.Records, rv.Records)
	items := listing.Courses(s.locale).Run(rated, state)

	courseReviews := make([]domain.Review, 0, len(rv.Records))
	for _, r := range rv.Records {
		if r.Type == domain.ReviewTypeCourse {
			courseReviews = append(courseReviews, r)
		}
	}

	fetchedAt := cv.FetchedAt
	if rv.FetchedAt.Before(fetchedAt) {
		fetchedAt = rv.FetchedAt
	}
	return CourseRatingsPage{
		Page:  newPage(items, len(rated), cv.Failed() || rv.Failed(), fetchedAt),
		Stats: stats.Ratings(courseReviews),
	}
}

// ListPosts runs state over one tab of the community feed.
func (s *Service) ListPosts(ctx context.Context, session domain.Session, tab string, state query.State) (Page[domain.Post], error) {
	cfg := listing.Posts(s.locale)

	switch tab {
	case "", PostsDiscover:
		v := view(ctx, s, domain.ResourcePosts, s.posts)
		records := v.Records
		if session.IsLoggedIn() && !v.Failed() {
			records = s.markLiked(ctx, session, records)
		}
		return newPage(cfg.Run(records, state), len(records), v.Failed(), v.FetchedAt), nil

	case PostsMine:
		if !session.IsLoggedIn() {
			return Page[domain.Post]{}, ErrLoginRequired
		}
		v := view(ctx, s, domain.ResourcePosts, s.posts)
		mine := make([]domain.Post, 0)
		for _, p := range v.Records {
			if p.UserID == session.UserID {
				mine = append(mine, p)
			}
		}
		return newPage(cfg.Run(mine, state), len(mine), v.Failed(), v.FetchedAt), nil

	case PostsLiked:
		if !session.IsLoggedIn() {
			return Page[domain.Post]{}, ErrLoginRequired
		}
		fetchedAt := s.now().UTC()
		liked, err := s.backend.LikedPosts(ctx, session.UserID)
		if err != nil {
			s.log.WithError(err).WithField("user", session.UserID).Warn("failed to load liked posts")
			return newPage[domain.Post](nil, 0, true, fetchedAt), nil
		}
		return newPage(cfg.Run(liked, state), len(liked), false, fetchedAt), nil

	default:
		return Page[domain.Post]{}, fmt.Errorf("%w: unknown posts tab %q", listing.ErrInvalidQuery, tab)
	}
}

// markLiked returns a copy of posts with IsLiked set from the user's liked
// posts. On failure the posts are returned unchanged.
func (s *Service) markLiked(ctx context.Context, session domain.Session, posts []domain.Post) []domain.Post {
	liked, err := s.backend.LikedPosts(ctx, session.UserID)
	if err != nil {
		s.log.WithError(err).WithField("user", session.UserID).Warn("failed to load liked posts")
		return posts
	}
	ids := make(map[int]struct{}, len(liked))
	for _, p := range liked {
		ids[p.ID] = struct{}{}
	}
	out := make([]domain.Post, len(posts))
	for i, p := range posts {
		_, p.IsLiked = ids[p.ID]
		out[i] = p
	}
	return out
}

// ListReviews runs state over one tab of the reviews. Only course and
// website reviews are listed.
func (s *Service) ListReviews(ctx context.Context, session domain.Session, tab string, state query.State) (ReviewPage, error) {
	var keep func(domain.Review) bool
	switch tab {
	case "", ReviewsAll:
		keep = func(domain.Review) bool { return true }
	case ReviewsWebsite:
		keep = func(r domain.Review) bool { return r.Type == domain.ReviewTypeWebsite }
	case ReviewsMine:
		if !session.IsLoggedIn() {
			return ReviewPage{}, ErrLoginRequired
		}
		keep = func(r domain.Review) bool { return r.UserID == session.UserID }
	default:
		return ReviewPage{}, fmt.Errorf("%w: unknown reviews tab %q", listing.ErrInvalidQuery, tab)
	}

	v := view(ctx, s, domain.ResourceReviews, s.reviews)
	tabReviews := make([]domain.Review, 0, len(v.Records))
	for _, r := range v.Records {
		if r.IsBrowsable() && keep(r) {
			tabReviews = append(tabReviews, r)
		}
	}

	items := listing.Reviews(s.locale).Run(tabReviews, state)
	return ReviewPage{
		Page: newPage(items, len(tabReviews), v.Failed(), v.FetchedAt),
		Stats: stats.ReviewStats{
			Matching: stats.Ratings(items),
			Overall:  stats.Ratings(tabReviews),
		},
	}, nil
}

// Collection runs state over one tab of the user's course collection,
// fetched live.
func (s *Service) Collection(ctx context.Context, session domain.Session, status domain.CollectionStatus, state query.State) (Page[domain.UserCourse], error) {
	if !session.IsLoggedIn() {
		return Page[domain.UserCourse]{}, ErrLoginRequired
	}
	fetchedAt := s.now().UTC()
	courses, err := s.backend.UserCourses(ctx, session.UserID, status)
	if err != nil {
		s.log.WithError(err).WithField("status", status).Warn("failed to load collection")
		return newPage[domain.UserCourse](nil, 0, true, fetchedAt), nil
	}
	items := listing.UserCourses(s.locale).Run(courses, state)
	return newPage(items, len(courses), false, fetchedAt), nil
}

// Levels returns the difficulty levels offered by the level filter.
func (s *Service) Levels(ctx context.Context) ([]domain.Level, error) {
	levels, err := s.backend.Levels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load levels: %w", err)
	}
	return levels, nil
}

// Categories returns the categories offered by the category filter.
func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.backend.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return categories, nil
}

// CourseReviewSummary returns the backend's rating summary of one course.
func (s *Service) CourseReviewSummary(ctx context.Context, courseID int) (domain.ReviewSummary, error) {
	summary, err := s.backend.CourseReviewSummary(ctx, courseID)
	if err != nil {
		return summary, fmt.Errorf("failed to load review summary for course %d: %w", courseID, err)
	}
	return summary, nil
}
