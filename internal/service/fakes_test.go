package service

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/text/language"

	"pastry-portal/internal/config"
	"pastry-portal/internal/domain"
	"pastry-portal/internal/events"
)

type fakeBackend struct {
	mu sync.Mutex

	courses     []domain.Course
	coursesErr  error
	coursesFn   func(ctx context.Context) ([]domain.Course, error)
	posts       []domain.Post
	postsErr    error
	liked       map[int][]domain.Post
	likedErr    error
	reviews     []domain.Review
	reviewsErr  error
	userCourses []domain.UserCourse
	userErr     error
	levels      []domain.Level
	summary     domain.ReviewSummary
	summaryErr  error

	calls map[string]int
}

func (f *fakeBackend) called(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) Courses(ctx context.Context) ([]domain.Course, error) {
	f.called("courses")
	if f.coursesFn != nil {
		return f.coursesFn(ctx)
	}
	return f.courses, f.coursesErr
}

func (f *fakeBackend) Levels(context.Context) ([]domain.Level, error) {
	f.called("levels")
	return f.levels, nil
}

func (f *fakeBackend) Categories(context.Context) ([]domain.Category, error) {
	f.called("categories")
	return []domain.Category{}, nil
}

func (f *fakeBackend) Posts(context.Context, int) ([]domain.Post, error) {
	f.called("posts")
	return f.posts, f.postsErr
}

func (f *fakeBackend) LikedPosts(_ context.Context, userID int) ([]domain.Post, error) {
	f.called("liked")
	return f.liked[userID], f.likedErr
}

func (f *fakeBackend) Reviews(context.Context) ([]domain.Review, error) {
	f.called("reviews")
	return f.reviews, f.reviewsErr
}

func (f *fakeBackend) CourseReviewSummary(context.Context, int) (domain.ReviewSummary, error) {
	f.called("summary")
	return f.summary, f.summaryErr
}

func (f *fakeBackend) UserCourses(context.Context, int, domain.CollectionStatus) ([]domain.UserCourse, error) {
	f.called("userCourses")
	return f.userCourses, f.userErr
}

type fakeSavedQueries struct {
	mu      sync.Mutex
	queries map[string]domain.SavedQuery
}

func newFakeSavedQueries(qs ...domain.SavedQuery) *fakeSavedQueries {
	f := &fakeSavedQueries{queries: make(map[string]domain.SavedQuery)}
	for _, q := range qs {
		f.queries[q.ID] = q
	}
	return f
}

func (f *fakeSavedQueries) Upsert(_ context.Context, q domain.SavedQuery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries[q.ID] = q
	return nil
}

func (f *fakeSavedQueries) FindByID(_ context.Context, id string) (*domain.SavedQuery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.queries[id]
	if !ok {
		return nil, nil
	}
	return &q, nil
}

func (f *fakeSavedQueries) FindByUser(_ context.Context, userID string, resource domain.Resource) ([]domain.SavedQuery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.SavedQuery
	for _, q := range f.queries {
		if q.UserID == userID && (resource == "" || q.Resource == resource) {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeSavedQueries) FindDefault(_ context.Context, userID string, resource domain.Resource) (*domain.SavedQuery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.queries {
		if q.UserID == userID && q.Resource == resource && q.IsDefault {
			return &q, nil
		}
	}
	return nil, nil
}

func (f *fakeSavedQueries) Delete(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.queries[id]
	delete(f.queries, id)
	return ok, nil
}

func (f *fakeSavedQueries) ClearDefault(_ context.Context, userID string, resource domain.Resource) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, q := range f.queries {
		if q.UserID == userID && q.Resource == resource {
			q.IsDefault = false
			f.queries[id] = q
		}
	}
	return nil
}

type fakeStatuses struct {
	mu       sync.Mutex
	statuses map[domain.Resource]domain.SyncStatus
	bulk     int
}

func newFakeStatuses() *fakeStatuses {
	return &fakeStatuses{statuses: make(map[domain.Resource]domain.SyncStatus)}
}

func (f *fakeStatuses) GetStatus(_ context.Context, r domain.Resource) (*domain.SyncStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.statuses[r]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (f *fakeStatuses) SetStatus(_ context.Context, st domain.SyncStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[st.Resource] = st
	return nil
}

func (f *fakeStatuses) SetStatuses(_ context.Context, sts []domain.SyncStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulk++
	for _, st := range sts {
		f.statuses[st.Resource] = st
	}
	return nil
}

func (f *fakeStatuses) get(r domain.Resource) (domain.SyncStatus, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.statuses[r]
	return st, ok
}

type harness struct {
	svc      *Service
	backend  *fakeBackend
	saved    *fakeSavedQueries
	statuses *fakeStatuses
	broker   *events.Broker
}

func newHarness(backend *fakeBackend, saved ...domain.SavedQuery) *harness {
	h := &harness{
		backend:  backend,
		saved:    newFakeSavedQueries(saved...),
		statuses: newFakeStatuses(),
		broker:   events.NewBroker(),
	}
	h.svc = NewService(config.RefreshConfig{IntervalMinutes: 60}, language.English, backend, h.saved, h.statuses, h.broker)
	return h
}

func intPtr(v int) *int { return &v }

func catalogue() []domain.Course {
	return []domain.Course{
		{ID: 1, Title: "Bread Basics", LevelName: "Beginner", CategoryName: "Bread", CookingTimeMin: intPtr(60)},
		{ID: 2, Title: "Cake Art", LevelName: "Advanced", CategoryName: "Cake", CookingTimeMin: intPtr(120)},
		{ID: 3, Title: "Pie Craft", LevelName: "Intermediate", CategoryName: "Pie", CookingTimeMin: intPtr(90)},
	}
}

func feedback() []domain.Review {
	return []domain.Review{
		{ID: 1, UserID: 7, UserName: "Ana", Type: domain.ReviewTypeCourse, CourseID: 1, CourseTitle: "Bread Basics", Rating: 5, Title: "Lovely crust"},
		{ID: 2, UserID: 8, UserName: "Ben", Type: domain.ReviewTypeCourse, CourseID: 1, CourseTitle: "Bread Basics", Rating: 3, Title: "Too salty"},
		{ID: 3, UserID: 7, UserName: "Ana", Type: domain.ReviewTypeWebsite, Rating: 4, Title: "Nice site"},
		{ID: 4, UserID: 9, Type: domain.ReviewTypeCourse, CourseID: 2, CourseTitle: "Cake Art", Rating: 2, Title: "Crumbly"},
		{ID: 5, UserID: 9, Type: "bug", Rating: 1, Title: "Broken button"},
	}
}

func feed() []domain.Post {
	return []domain.Post{
		{ID: 10, UserID: 7, UserName: "Ana", Type: "tip", Title: "Proofing tips", LikeCount: 3},
		{ID: 11, UserID: 8, UserName: "Ben", Type: "photo", Title: "My cake", LikeCount: 9},
		{ID: 12, UserID: 7, UserName: "Ana", Type: "photo", Title: "Pie night", LikeCount: 1},
	}
}
