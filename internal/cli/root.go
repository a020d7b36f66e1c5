// Package cli implements the pastryctl command line: it fetches lists from
// the pastry backend and runs the same list queries the portal serves.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pastry-portal/internal/backend"
	"pastry-portal/internal/config"
	"pastry-portal/internal/domain"
	"pastry-portal/internal/listing"
	"pastry-portal/internal/logging"
	"pastry-portal/internal/query"
)

// app carries state shared by the commands of one invocation.
type app struct {
	v       *viper.Viper
	cfg     *config.Config
	client  *backend.Client
	out     io.Writer
	verbose bool
}

// NewRootCommand builds the pastryctl command tree writing to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	a := &app{v: viper.New(), out: out}

	root := &cobra.Command{
		Use:   "pastryctl",
		Short: "Browse the pastry school catalogue from the terminal",
		Long: `pastryctl fetches courses, posts and reviews from the pastry backend
and searches, filters and sorts them the same way the portal does.

Example usage:
  pastryctl courses --search cake --sort ratingHigh
  pastryctl courses --level Beginner --max-time 60
  pastryctl reviews --type website --sort newest
  pastryctl collection bookmarked --user 7
  pastryctl stats`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	root.SetOut(out)

	root.PersistentFlags().String("base-url", "", "backend API base URL (default from config)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	_ = a.v.BindPFlag("BACKEND.BASE_URL", root.PersistentFlags().Lookup("base-url"))

	root.AddCommand(
		newCoursesCommand(a),
		newPostsCommand(a),
		newReviewsCommand(a),
		newCollectionCommand(a),
		newStatsCommand(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.LoadFrom(a.v)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	} else if cfg.Logging.Level == "info" {
		cfg.Logging.Level = "warn"
	}
	logging.Setup(cfg.Logging)

	a.cfg = cfg
	a.client = backend.NewClient(cfg.Backend)
	return nil
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeout := time.Duration(a.cfg.Backend.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(cmd.Context(), timeout)
}

// listFlags are the query flags shared by the list commands.
type listFlags struct {
	search     string
	sort       string
	levels     []string
	categories []string
	types      []string
	users      []int
	minRating  string
	maxRating  string
	minTime    string
	maxTime    string
	json       bool
}

func (f *listFlags) bindCommon(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "case-insensitive text search")
	cmd.Flags().StringVar(&f.sort, "sort", "", "sort key")
	cmd.Flags().BoolVar(&f.json, "json", false, "output as JSON")
}

func (f *listFlags) bindRating(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.minRating, "min-rating", "", "minimum rating")
	cmd.Flags().StringVar(&f.maxRating, "max-rating", "", "maximum rating")
}

// state turns the flags into a validated list query for resource.
func (f *listFlags) state(resource domain.Resource) (query.State, error) {
	values := url.Values{}
	set := func(key, v string) {
		if v != "" {
			values.Set(key, v)
		}
	}
	set("q", f.search)
	set("sort", f.sort)
	values[listing.FilterLevel] = f.levels
	values[listing.FilterCategory] = f.categories
	values[listing.FilterType] = f.types
	for _, u := range f.users {
		values.Add(listing.FilterUser, strconv.Itoa(u))
	}

	minRating, maxRating := listing.RangeParam(listing.RangeRating)
	set(minRating, f.minRating)
	set(maxRating, f.maxRating)
	minTime, maxTime := listing.RangeParam(listing.RangeTime)
	set(minTime, f.minTime)
	set(maxTime, f.maxTime)

	return listing.ParseState(resource, values)
}

// browsableReviews fetches reviews and drops feedback types that are not
// listed anywhere.
func browsableReviews(ctx context.Context, a *app) ([]domain.Review, error) {
	all, err := a.client.Reviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching reviews: %w", err)
	}
	out := make([]domain.Review, 0, len(all))
	for _, r := range all {
		if r.IsBrowsable() {
			out = append(out, r)
		}
	}
	return out, nil
}

func queryByRating() query.State {
	return query.State{Sort: listing.SortRatingHigh}
}
