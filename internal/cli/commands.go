package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"pastry-portal/internal/domain"
	"pastry-portal/internal/listing"
	"pastry-portal/internal/stats"
)

func newCoursesCommand(a *app) *cobra.Command {
	var f listFlags
	var noColor bool
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "Search and filter the course catalogue",
		Long: `Search and filter the course catalogue.

Sort keys: titleAsc, titleDesc, ratingHigh, ratingLow, timeShort, timeLong,
servingsHigh, mostReviewed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := f.state(domain.ResourceCourses)
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()

			courses, err := a.client.Courses(ctx)
			if err != nil {
				return fmt.Errorf("fetching courses: %w", err)
			}
			out := listing.Courses(a.cfg.Display.LocaleTag()).Run(courses, state)

			p := newPrinter(a.out, noColor)
			if f.json {
				return p.JSON(out)
			}
			if len(out) == 0 {
				p.Warning("No courses match your search.")
				return nil
			}
			rows := make([][]string, 0, len(out))
			for _, c := range out {
				rows = append(rows, []string{
					strconv.Itoa(c.ID),
					truncate(c.Title, 40),
					c.LevelName,
					c.CategoryName,
					optInt(c.CookingTimeMin, " min"),
					optInt(c.Servings, ""),
					optRating(c.AverageRating),
				})
			}
			if err := p.Table([]string{"ID", "Title", "Level", "Category", "Time", "Servings", "Rating"}, rows); err != nil {
				return err
			}
			p.Info("%d of %d courses", len(out), len(courses))
			return nil
		},
	}
	f.bindCommon(cmd)
	f.bindRating(cmd)
	cmd.Flags().StringSliceVar(&f.levels, "level", nil, "level name (repeatable)")
	cmd.Flags().StringSliceVar(&f.categories, "category", nil, "category name (repeatable)")
	cmd.Flags().StringVar(&f.minTime, "min-time", "", "minimum cooking time in minutes")
	cmd.Flags().StringVar(&f.maxTime, "max-time", "", "maximum cooking time in minutes")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}

func newPostsCommand(a *app) *cobra.Command {
	var f listFlags
	var viewer int
	var noColor bool
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Search the learners' post feed",
		Long: `Search the learners' post feed.

Sort keys: newest, oldest, mostLiked, titleAsc.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := f.state(domain.ResourcePosts)
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()

			posts, err := a.client.Posts(ctx, viewer)
			if err != nil {
				return fmt.Errorf("fetching posts: %w", err)
			}
			out := listing.Posts(a.cfg.Display.LocaleTag()).Run(posts, state)

			p := newPrinter(a.out, noColor)
			if f.json {
				return p.JSON(out)
			}
			if len(out) == 0 {
				p.Warning("No posts match your search.")
				return nil
			}
			now := time.Now()
			rows := make([][]string, 0, len(out))
			for _, post := range out {
				rows = append(rows, []string{
					strconv.Itoa(post.ID),
					truncate(post.Title, 40),
					post.Type,
					post.UserName,
					strconv.Itoa(post.LikeCount),
					stats.TimeAgo(now, post.CreatedAt.Time),
				})
			}
			return p.Table([]string{"ID", "Title", "Type", "Author", "Likes", "Posted"}, rows)
		},
	}
	f.bindCommon(cmd)
	cmd.Flags().StringSliceVar(&f.types, "type", nil, "post type (repeatable)")
	cmd.Flags().StringSliceVar(&f.categories, "category", nil, "category name (repeatable)")
	cmd.Flags().IntSliceVar(&f.users, "user", nil, "author user ID (repeatable)")
	cmd.Flags().IntVar(&viewer, "viewer", 0, "user ID to fetch the feed as")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}

func newReviewsCommand(a *app) *cobra.Command {
	var f listFlags
	var noColor bool
	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "Search course and website reviews",
		Long: `Search course and website reviews.

Review types are "review" for course reviews and "website" for site feedback.
Sort keys: newest, oldest, ratingHigh, ratingLow.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := f.state(domain.ResourceReviews)
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()

			reviews, err := browsableReviews(ctx, a)
			if err != nil {
				return err
			}
			out := listing.Reviews(a.cfg.Display.LocaleTag()).Run(reviews, state)

			p := newPrinter(a.out, noColor)
			if f.json {
				return p.JSON(struct {
					Reviews []domain.Review `json:"reviews"`
					Stats   stats.Summary   `json:"stats"`
				}{out, stats.Ratings(out)})
			}
			if len(out) == 0 {
				p.Warning("No reviews match your search.")
				return nil
			}
			now := time.Now()
			rows := make([][]string, 0, len(out))
			for _, r := range out {
				subject := r.CourseTitle
				if r.Type == domain.ReviewTypeWebsite {
					subject = "(website)"
				}
				rows = append(rows, []string{
					p.Stars(r.Rating),
					truncate(r.Title, 40),
					subject,
					r.DisplayName(),
					stats.TimeAgo(now, r.CreatedAt.Time),
				})
			}
			if err := p.Table([]string{"Rating", "Title", "Course", "Reviewer", "Posted"}, rows); err != nil {
				return err
			}
			s := stats.Ratings(out)
			p.Info("%d reviews, average %.1f", s.Total, s.Average)
			return nil
		},
	}
	f.bindCommon(cmd)
	f.bindRating(cmd)
	cmd.Flags().StringSliceVar(&f.types, "type", nil, "review type (repeatable)")
	cmd.Flags().IntSliceVar(&f.users, "user", nil, "reviewer user ID (repeatable)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}

func newCollectionCommand(a *app) *cobra.Command {
	var f listFlags
	var user int
	var noColor bool
	cmd := &cobra.Command{
		Use:   "collection <progressing|completed|bookmarked>",
		Short: "List one tab of a user's course collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := domain.ParseCollectionStatus(args[0])
			if err != nil {
				return err
			}
			if user <= 0 {
				return fmt.Errorf("--user is required")
			}
			state, err := f.state(domain.ResourceCourses)
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()

			courses, err := a.client.UserCourses(ctx, user, status)
			if err != nil {
				return fmt.Errorf("fetching %s courses: %w", status, err)
			}
			out := listing.UserCourses(a.cfg.Display.LocaleTag()).Run(courses, state)

			p := newPrinter(a.out, noColor)
			if f.json {
				return p.JSON(out)
			}
			if len(out) == 0 {
				p.Warning("No %s courses.", status)
				return nil
			}
			rows := make([][]string, 0, len(out))
			for _, c := range out {
				rows = append(rows, []string{
					strconv.Itoa(c.ID),
					truncate(c.Title, 40),
					c.LevelName,
					optInt(c.CookingTimeMin, " min"),
					fmt.Sprintf("%d%%", c.QuizProgress),
				})
			}
			return p.Table([]string{"ID", "Title", "Level", "Time", "Progress"}, rows)
		},
	}
	f.bindCommon(cmd)
	cmd.Flags().StringSliceVar(&f.levels, "level", nil, "level name (repeatable)")
	cmd.Flags().IntVar(&user, "user", 0, "user ID whose collection to list")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}

func newStatsCommand(a *app) *cobra.Command {
	var asJSON, noColor bool
	var top int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show review statistics and the best rated courses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			courses, err := a.client.Courses(ctx)
			if err != nil {
				return fmt.Errorf("fetching courses: %w", err)
			}
			reviews, err := browsableReviews(ctx, a)
			if err != nil {
				return err
			}

			var course, website []domain.Review
			for _, r := range reviews {
				if r.Type == domain.ReviewTypeWebsite {
					website = append(website, r)
				} else {
					course = append(course, r)
				}
			}
			rated := listing.Courses(a.cfg.Display.LocaleTag()).Run(
				stats.CourseAverages(courses, reviews),
				queryByRating(),
			)
			if top > 0 && len(rated) > top {
				rated = rated[:top]
			}

			p := newPrinter(a.out, noColor)
			summaries := []struct {
				Name    string        `json:"name"`
				Summary stats.Summary `json:"summary"`
			}{
				{"Course reviews", stats.Ratings(course)},
				{"Website reviews", stats.Ratings(website)},
			}
			if asJSON {
				return p.JSON(map[string]any{"reviews": summaries, "topCourses": rated})
			}

			for _, s := range summaries {
				p.Header(fmt.Sprintf("%s (%d, average %.1f)", s.Name, s.Summary.Total, s.Summary.Average))
				rows := make([][]string, 0, 5)
				for star := 5; star >= 1; star-- {
					rows = append(rows, []string{
						p.Stars(star),
						strconv.Itoa(s.Summary.Distribution[star]),
						fmt.Sprintf("%.0f%%", s.Summary.Percent(star)),
					})
				}
				if err := p.Table([]string{"Stars", "Reviews", "Share"}, rows); err != nil {
					return err
				}
			}

			p.Header("Top rated courses")
			rows := make([][]string, 0, len(rated))
			for _, c := range rated {
				if c.AverageRating == nil {
					continue
				}
				rows = append(rows, []string{truncate(c.Title, 40), optRating(c.AverageRating), strconv.Itoa(c.TotalReviews)})
			}
			if len(rows) == 0 {
				p.Warning("No course has been reviewed yet.")
				return nil
			}
			return p.Table([]string{"Title", "Rating", "Reviews"}, rows)
		},
	}
	cmd.Flags().IntVar(&top, "top", 5, "number of top rated courses to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}
