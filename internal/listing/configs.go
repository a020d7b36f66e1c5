// Path: internal/listing/configs.go
package listing

import (
	"strconv"

	"golang.org/x/text/language"

	"pastry-portal/internal/domain"
	"pastry-portal/internal/query"
)

// Sort keys offered by the browsing views.
const (
	SortTitleAsc     query.SortKey = "titleAsc"
	SortTitleDesc    query.SortKey = "titleDesc"
	SortRatingHigh   query.SortKey = "ratingHigh"
	SortRatingLow    query.SortKey = "ratingLow"
	SortTimeShort    query.SortKey = "timeShort"
	SortTimeLong     query.SortKey = "timeLong"
	SortServingsHigh query.SortKey = "servingsHigh"
	SortMostReviewed query.SortKey = "mostReviewed"
	SortNewest       query.SortKey = "newest"
	SortOldest       query.SortKey = "oldest"
	SortMostLiked    query.SortKey = "mostLiked"
)

// Filter names. Each categorical filter is selected with repeated URL
// parameters of the same name; each range filter with min<Name>/max<Name>.
const (
	FilterLevel    = "level"
	FilterCategory = "category"
	FilterType     = "type"
	FilterCourse   = "course"
	FilterUser     = "user"

	RangeRating   = "rating"
	RangeTime     = "time"
	RangeServings = "servings"
	RangeLikes    = "likes"
)

func createdAt[T any](get func(T) domain.Timestamp) query.Number[T] {
	return func(rec T) (float64, bool) {
		ts := get(rec)
		if ts.IsZero() {
			return 0, false
		}
		return float64(ts.UnixNano()), true
	}
}

func userID[T any](get func(T) int) query.Category[T] {
	return func(rec T) (string, bool) {
		id := get(rec)
		if id <= 0 {
			return "", false
		}
		return strconv.Itoa(id), true
	}
}

// courseConfig builds the course pipeline for any record that carries a
// course, so the catalogue and the user collection share one definition.
func courseConfig[T any](course func(T) domain.Course, tag language.Tag) query.Config[T] {
	title := func(rec T) string { return course(rec).Title }
	rating := query.FloatPtr(func(rec T) *float64 { return course(rec).AverageRating })
	cookingTime := query.IntPtr(func(rec T) *int { return course(rec).CookingTimeMin })
	servings := query.IntPtr(func(rec T) *int { return course(rec).Servings })

	return query.Config[T]{
		Search: []query.Text[T]{
			title,
			func(rec T) string { return course(rec).Description },
			func(rec T) string { return course(rec).LevelName },
		},
		Categories: map[string]query.Category[T]{
			FilterLevel:    query.String(func(rec T) string { return course(rec).LevelName }),
			FilterCategory: query.String(func(rec T) string { return course(rec).CategoryName }),
		},
		Ranges: map[string]query.Number[T]{
			RangeRating:   rating,
			RangeTime:     cookingTime,
			RangeServings: servings,
		},
		Sorts: query.Sorts[T]{
			SortTitleAsc:     query.ByText(title, false),
			SortTitleDesc:    query.ByText(title, true),
			SortRatingHigh:   query.ByNumber(rating, true),
			SortRatingLow:    query.ByNumber(rating, false),
			SortTimeShort:    query.ByNumber(cookingTime, false),
			SortTimeLong:     query.ByNumber(cookingTime, true),
			SortServingsHigh: query.ByNumber(servings, true),
			SortMostReviewed: query.ByNumber(query.Int(func(rec T) int { return course(rec).TotalReviews }), true),
		},
		Locale: tag,
	}
}

// Courses returns the pipeline configuration of the course catalogue.
func Courses(tag language.Tag) query.Config[domain.Course] {
	return courseConfig(func(c domain.Course) domain.Course { return c }, tag)
}

// UserCourses returns the pipeline configuration of a user's collection.
func UserCourses(tag language.Tag) query.Config[domain.UserCourse] {
	return courseConfig(func(u domain.UserCourse) domain.Course { return u.Course }, tag)
}

// Posts returns the pipeline configuration of post listings.
func Posts(tag language.Tag) query.Config[domain.Post] {
	title := func(p domain.Post) string { return p.Title }
	created := createdAt(func(p domain.Post) domain.Timestamp { return p.CreatedAt })
	likes := query.Int(func(p domain.Post) int { return p.LikeCount })

	return query.Config[domain.Post]{
		Search: []query.Text[domain.Post]{
			title,
			func(p domain.Post) string { return p.Description },
			func(p domain.Post) string { return p.UserName },
			func(p domain.Post) string { return p.CourseName },
		},
		Categories: map[string]query.Category[domain.Post]{
			FilterType:     query.String(func(p domain.Post) string { return p.Type }),
			FilterCourse:   query.String(func(p domain.Post) string { return p.CourseName }),
			FilterCategory: query.String(func(p domain.Post) string { return p.CategoryName }),
			FilterUser:     userID(func(p domain.Post) int { return p.UserID }),
		},
		Ranges: map[string]query.Number[domain.Post]{
			RangeLikes: likes,
		},
		Sorts: query.Sorts[domain.Post]{
			SortNewest:    query.ByNumber(created, true),
			SortOldest:    query.ByNumber(created, false),
			SortMostLiked: query.ByNumber(likes, true),
			SortTitleAsc:  query.ByText(title, false),
		},
		Locale: tag,
	}
}

// Reviews returns the pipeline configuration of review listings.
func Reviews(tag language.Tag) query.Config[domain.Review] {
	created := createdAt(func(r domain.Review) domain.Timestamp { return r.CreatedAt })
	rating := query.Int(func(r domain.Review) int { return r.Rating })

	return query.Config[domain.Review]{
		Search: []query.Text[domain.Review]{
			func(r domain.Review) string { return r.Title },
			func(r domain.Review) string { return r.Description },
			func(r domain.Review) string { return r.DisplayName() },
		},
		Categories: map[string]query.Category[domain.Review]{
			FilterType:   query.String(func(r domain.Review) string { return r.Type }),
			FilterCourse: query.String(func(r domain.Review) string { return r.CourseTitle }),
			FilterUser:   userID(func(r domain.Review) int { return r.UserID }),
		},
		Ranges: map[string]query.Number[domain.Review]{
			RangeRating: rating,
		},
		Sorts: query.Sorts[domain.Review]{
			SortNewest:     query.ByNumber(created, true),
			SortOldest:     query.ByNumber(created, false),
			SortRatingHigh: query.ByNumber(rating, true),
			SortRatingLow:  query.ByNumber(rating, false),
		},
		Locale: tag,
	}
}
