package listing

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"pastry-portal/internal/domain"
	"pastry-portal/internal/query"
)

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func catalogue() []domain.Course {
	return []domain.Course{
		{ID: 1, Title: "Bread Basics", LevelName: "Beginner", CategoryName: "Bread", AverageRating: floatp(4), CookingTimeMin: intp(30), Servings: intp(8), TotalReviews: 3},
		{ID: 2, Title: "Cake Art", LevelName: "Advanced", CategoryName: "Cakes", AverageRating: floatp(5), CookingTimeMin: intp(90), Servings: intp(12), TotalReviews: 1},
		{ID: 3, Title: "Pie Craft", LevelName: "Intermediate", CategoryName: "Pies", AverageRating: floatp(3), CookingTimeMin: intp(45), Servings: intp(6), TotalReviews: 7},
		{ID: 4, Title: "Unrated Scones", Description: "new"},
	}
}

func courseIDs(cs []domain.Course) []int {
	out := make([]int, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func TestCourses_FilterAndSort(t *testing.T) {
	cfg := Courses(language.English)

	tests := []struct {
		name   string
		values url.Values
		want   []int
	}{
		{name: "empty query keeps fetch order", values: url.Values{}, want: []int{1, 2, 3, 4}},
		{name: "max time excludes untimed", values: url.Values{"maxTime": {"40"}}, want: []int{1}},
		{name: "level filter", values: url.Values{"level": {"Advanced", "Beginner"}}, want: []int{1, 2}},
		{name: "unrated sort last when high first", values: url.Values{"sort": {"ratingHigh"}}, want: []int{2, 1, 3, 4}},
		{name: "unrated sort first when low first", values: url.Values{"sort": {"ratingLow"}}, want: []int{4, 3, 1, 2}},
		{name: "search matches level name", values: url.Values{"q": {"inter"}}, want: []int{3}},
		{name: "search matches description", values: url.Values{"q": {"NEW"}}, want: []int{4}},
		{name: "min rating", values: url.Values{"minRating": {"4"}, "sort": {"titleDesc"}}, want: []int{2, 1}},
		{name: "most reviewed", values: url.Values{"sort": {"mostReviewed"}}, want: []int{3, 1, 2, 4}},
		{name: "category and servings", values: url.Values{"category": {"Cakes", "Pies"}, "maxServings": {"10"}}, want: []int{3}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			state, err := ParseState(domain.ResourceCourses, tc.values)
			require.NoError(t, err)
			assert.Equal(t, tc.want, courseIDs(cfg.Run(catalogue(), state)))
		})
	}
}

func TestUserCourses_SharesCourseDefinition(t *testing.T) {
	var collection []domain.UserCourse
	for _, c := range catalogue() {
		collection = append(collection, domain.UserCourse{Course: c, Bookmark: c.ID%2 == 0})
	}
	state, err := ParseState(domain.ResourceCourses, url.Values{"q": {"a"}, "sort": {"timeShort"}})
	require.NoError(t, err)

	got := UserCourses(language.English).Run(collection, state)
	var ids []int
	for _, uc := range got {
		ids = append(ids, uc.ID)
	}
	// "Unrated Scones" has no cooking time and sorts first.
	assert.Equal(t, []int{4, 1, 3, 2}, ids)
}

func TestPosts_Config(t *testing.T) {
	now := time.Date(2025, 11, 12, 10, 0, 0, 0, time.UTC)
	posts := []domain.Post{
		{ID: 1, UserID: 7, Title: "My tart", Type: "normal", LikeCount: 2, CreatedAt: domain.NewTimestamp(now.Add(-time.Hour))},
		{ID: 2, UserID: 8, Title: "Cake done", Type: "course", CourseName: "Cake Art", LikeCount: 9, CreatedAt: domain.NewTimestamp(now)},
		{ID: 3, UserID: 7, Title: "Old loaf", Type: "course", CourseName: "Bread Basics", LikeCount: 9},
	}
	cfg := Posts(language.English)
	run := func(values url.Values) []int {
		state, err := ParseState(domain.ResourcePosts, values)
		require.NoError(t, err)
		var ids []int
		for _, p := range cfg.Run(posts, state) {
			ids = append(ids, p.ID)
		}
		return ids
	}

	assert.Equal(t, []int{2, 1, 3}, run(url.Values{"sort": {"newest"}}))
	assert.Equal(t, []int{3, 1, 2}, run(url.Values{"sort": {"oldest"}}))
	assert.Equal(t, []int{2, 3, 1}, run(url.Values{"sort": {"mostLiked"}}))
	assert.Equal(t, []int{1, 3}, run(url.Values{"user": {"7"}}))
	assert.Equal(t, []int{2}, run(url.Values{"type": {"course"}, "q": {"cake"}}))
	assert.Equal(t, []int{2, 3}, run(url.Values{"minLikes": {"5"}}))
}

func TestReviews_SearchUsesDisplayName(t *testing.T) {
	reviews := []domain.Review{
		{ID: 1, UserName: "Mia Chen", Title: "Lovely", Rating: 5, Type: domain.ReviewTypeCourse},
		{ID: 2, Title: "Meh", Rating: 2, Type: domain.ReviewTypeWebsite},
	}
	state, err := ParseState(domain.ResourceReviews, url.Values{"q": {"anonym"}})
	require.NoError(t, err)

	got := Reviews(language.English).Run(reviews, state)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].ID)
}

func TestParseState_Errors(t *testing.T) {
	tests := []struct {
		name     string
		resource domain.Resource
		values   url.Values
	}{
		{name: "unknown resource", resource: "recipes", values: url.Values{}},
		{name: "unknown sort", resource: domain.ResourceCourses, values: url.Values{"sort": {"mostLiked"}}},
		{name: "malformed number", resource: domain.ResourceCourses, values: url.Values{"maxTime": {"soon"}}},
		{name: "negative bound", resource: domain.ResourceReviews, values: url.Values{"minRating": {"-1"}}},
		{name: "inverted range", resource: domain.ResourceCourses, values: url.Values{"minTime": {"50"}, "maxTime": {"10"}}},
		{name: "not a number", resource: domain.ResourcePosts, values: url.Values{"maxLikes": {"NaN"}}},
		{name: "sort with punctuation", resource: domain.ResourcePosts, values: url.Values{"sort": {"newest;drop"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseState(tc.resource, tc.values)
			assert.ErrorIs(t, err, ErrInvalidQuery)
		})
	}
}

func TestParseState_IgnoresBlankAndUnknown(t *testing.T) {
	state, err := ParseState(domain.ResourceCourses, url.Values{
		"q":       {"  "},
		"level":   {"", " "},
		"colour":  {"red"},
		"maxTime": {""},
		"sort":    {"default"},
	})
	require.NoError(t, err)
	assert.True(t, state.IsEmpty())
	assert.Nil(t, state.Categories)
	assert.Nil(t, state.Ranges)
}

func TestEncodeState_ReadsBack(t *testing.T) {
	in := query.State{
		Search:     "choux",
		Categories: map[string][]string{FilterLevel: {"Beginner", "Advanced"}},
		Ranges:     map[string]query.Range{RangeTime: {Max: query.At(40)}, RangeRating: {Min: query.At(3.5)}},
		Sort:       SortRatingHigh,
	}
	out, err := ParseState(domain.ResourceCourses, EncodeState(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRangeParam(t *testing.T) {
	lower, upper := RangeParam(RangeServings)
	assert.Equal(t, "minServings", lower)
	assert.Equal(t, "maxServings", upper)
}

func TestSchemaFor(t *testing.T) {
	s, ok := SchemaFor(domain.ResourceReviews)
	require.True(t, ok)
	assert.Equal(t, []string{FilterCourse, FilterType, FilterUser}, s.Categories)
	assert.Equal(t, []string{RangeRating}, s.Ranges)
	assert.Equal(t, query.DefaultSort, s.Sorts[0])
}
