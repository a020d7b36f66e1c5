// Path: internal/stats/stats.go
package stats

import (
	"fmt"
	"math"
	"time"

	"pastry-portal/internal/domain"
)

// Summary is the star-rating overview shown above review lists.
type Summary struct {
	Total   int     `json:"totalReviews"`
	Average float64 `json:"averageRating"`
	// Distribution counts reviews per star, keys 1 through 5.
	Distribution map[int]int `json:"ratingDistribution"`
}

func emptyDistribution() map[int]int {
	return map[int]int{5: 0, 4: 0, 3: 0, 2: 0, 1: 0}
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Ratings summarizes reviews. Ratings outside 1..5 count towards the total
// and the average but not towards the histogram.
func Ratings(reviews []domain.Review) Summary {
	s := Summary{Distribution: emptyDistribution()}
	if len(reviews) == 0 {
		return s
	}

	sum := 0
	for _, r := range reviews {
		sum += r.Rating
		if _, ok := s.Distribution[r.Rating]; ok {
			s.Distribution[r.Rating]++
		}
	}
	s.Total = len(reviews)
	s.Average = round1(float64(sum) / float64(len(reviews)))
	return s
}

// Percent returns the share of reviews with the given star count, 0..100.
func (s Summary) Percent(star int) float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Distribution[star]) / float64(s.Total) * 100
}

// ReviewStats reports review statistics twice: over the reviews the current query
// matches and over the whole tab, so a view can show either.
type ReviewStats struct {
	Matching Summary `json:"matching"`
	Overall  Summary `json:"overall"`
}

// CourseAverages returns a copy of courses with AverageRating and
// TotalReviews recomputed from course reviews. Website reviews are ignored.
// A course without reviews has no average.
func CourseAverages(courses []domain.Course, reviews []domain.Review) []domain.Course {
	type acc struct {
		sum, n int
	}
	byCourse := make(map[int]*acc)
	for _, r := range reviews {
		if r.Type != domain.ReviewTypeCourse {
			continue
		}
		a, ok := byCourse[r.CourseID]
		if !ok {
			a = &acc{}
			byCourse[r.CourseID] = a
		}
		a.sum += r.Rating
		a.n++
	}

	out := make([]domain.Course, len(courses))
	for i, c := range courses {
		c.AverageRating = nil
		c.TotalReviews = 0
		if a, ok := byCourse[c.ID]; ok {
			avg := round1(float64(a.sum) / float64(a.n))
			c.AverageRating = &avg
			c.TotalReviews = a.n
		}
		out[i] = c
	}
	return out
}

// TimeAgo renders the age of t relative to now the way listings show it,
// e.g. "1 min ago", "3 hours ago", "12 days ago". Future times count as 0.
func TimeAgo(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}
	mins := int(d / time.Minute)
	hours := int(d / time.Hour)
	days := int(d / (24 * time.Hour))

	switch {
	case mins < 60:
		return plural(mins, "min", "mins")
	case hours < 24:
		return plural(hours, "hour", "hours")
	default:
		return plural(days, "day", "days")
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s ago", n, one)
	}
	return fmt.Sprintf("%d %s ago", n, many)
}
