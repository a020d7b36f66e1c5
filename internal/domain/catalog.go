// Path: internal/domain/catalog.go
package domain

import (
	"encoding/json"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Level is a course difficulty level.
type Level struct {
	ID          int    `json:"levelId"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Category groups courses by subject.
type Category struct {
	ID          int    `json:"categoryId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CatImg      string `json:"catImg"`
}

// Course is one entry of the course catalogue.
// Numeric attributes the backend may omit are pointers; nil means missing.
type Course struct {
	ID             int      `json:"courseId"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	CourseImg      string   `json:"courseImg"`
	CookingTimeMin *int     `json:"cookingTimeMin"`
	Servings       *int     `json:"servings"`
	LevelID        int      `json:"levelId"`
	LevelName      string   `json:"levelName"`
	CategoryID     int      `json:"categoryId"`
	CategoryName   string   `json:"categoryName"`
	Rating         float64  `json:"rating"`
	AverageRating  *float64 `json:"averageRating"`
	TotalReviews   int      `json:"totalReviews"`
}

// UnmarshalJSON implements the json.Unmarshaler interface for Course.
// The course list endpoint nests the level and category objects while the
// collection endpoint flattens them into levelName; both shapes are accepted.
func (c *Course) UnmarshalJSON(data []byte) error {
	type plain Course
	var aux struct {
		plain
		Level *struct {
			Title string `json:"title"`
		} `json:"level"`
		Category *struct {
			Title string `json:"title"`
		} `json:"category"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = Course(aux.plain)
	if c.LevelName == "" && aux.Level != nil {
		c.LevelName = aux.Level.Title
	}
	if c.CategoryName == "" && aux.Category != nil {
		c.CategoryName = aux.Category.Title
	}
	return nil
}

// UserCourse is a course as seen from one user's collection.
type UserCourse struct {
	Course
	Bookmark     bool   `json:"bookmark"`
	Completed    bool   `json:"completed"`
	QuizStatus   string `json:"quizStatus"`
	QuizProgress int    `json:"quizProgress"`
}

// UnmarshalJSON implements the json.Unmarshaler interface for UserCourse.
// It is needed because the embedded Course's UnmarshalJSON would otherwise be
// promoted and swallow the collection fields.
func (u *UserCourse) UnmarshalJSON(data []byte) error {
	var course Course
	if err := json.Unmarshal(data, &course); err != nil {
		return err
	}
	var extra struct {
		Bookmark     bool   `json:"bookmark"`
		Completed    bool   `json:"completed"`
		QuizStatus   string `json:"quizStatus"`
		QuizProgress int    `json:"quizProgress"`
	}
	if err := json.Unmarshal(data, &extra); err != nil {
		return err
	}
	*u = UserCourse{
		Course:       course,
		Bookmark:     extra.Bookmark,
		Completed:    extra.Completed,
		QuizStatus:   extra.QuizStatus,
		QuizProgress: extra.QuizProgress,
	}
	return nil
}

// Post is a social post shared by a learner.
type Post struct {
	ID           int       `json:"postId"`
	UserID       int       `json:"userId"`
	UserName     string    `json:"userName"`
	Type         string    `json:"type"`
	CourseID     int       `json:"courseId"`
	CourseName   string    `json:"courseName"`
	CategoryName string    `json:"categoryName"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	PostImg      string    `json:"postImg"`
	CreatedAt    Timestamp `json:"createdAt"`
	LikeCount    int       `json:"likeCount"`
	IsLiked      bool      `json:"isLiked"`
}

// Review types as stored by the backend.
const (
	ReviewTypeCourse  = "review"
	ReviewTypeWebsite = "website"
)

// Review is a piece of user feedback about a course or about the site.
type Review struct {
	ID          int       `json:"id"`
	UserID      int       `json:"userId"`
	UserName    string    `json:"userName"`
	Type        string    `json:"type"`
	CourseID    int       `json:"courseId"`
	CourseTitle string    `json:"courseTitle"`
	Rating      int       `json:"rating"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   Timestamp `json:"createdAt"`
	EditedAt    Timestamp `json:"editedAt"`
}

// DisplayName returns the reviewer's name, or "Anonymous".
func (r Review) DisplayName() string {
	if strings.TrimSpace(r.UserName) == "" {
		return "Anonymous"
	}
	return r.UserName
}

// UserInitial returns the upper-cased first letter of the reviewer's name,
// or "U" when the name is missing.
func (r Review) UserInitial() string {
	name := strings.TrimSpace(r.UserName)
	if name == "" {
		return "U"
	}
	first, _ := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(first))
}

// IsBrowsable reports whether the review belongs in review listings.
// Other feedback types (bug reports and the like) are not shown.
func (r Review) IsBrowsable() bool {
	return r.Type == ReviewTypeCourse || r.Type == ReviewTypeWebsite
}

// ReviewSummary is the backend's per-course feedback summary.
type ReviewSummary struct {
	AverageRating float64 `json:"averageRating"`
	TotalReviews  int     `json:"totalReviews"`
}
