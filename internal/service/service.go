// Path: internal/service/service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"pastry-portal/internal/config"
	"pastry-portal/internal/domain"
	"pastry-portal/internal/events"
	"pastry-portal/internal/metrics"
	"pastry-portal/internal/snapshot"
)

var (
	// ErrNotFound is returned when a requested item does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the session may not touch an item.
	ErrForbidden = errors.New("forbidden")
	// ErrLoginRequired is returned by operations that need a logged-in session.
	ErrLoginRequired = errors.New("login required")
)

// Service is the central orchestrator of the portal: it keeps a snapshot of
// every browsable resource fresh and derives list views from them.
type Service struct {
	cfg          config.RefreshConfig
	locale       language.Tag
	backend      Backend
	savedQueries SavedQueryStorage
	statuses     StatusStorage
	broker       *events.Broker

	courses *snapshot.Store[domain.Course]
	posts   *snapshot.Store[domain.Post]
	reviews *snapshot.Store[domain.Review]

	statusMu sync.RWMutex
	status   map[domain.Resource]domain.SyncStatus

	stopChan chan struct{} // Used for graceful shutdown
	stopOnce sync.Once
	now      func() time.Time
	log      *logrus.Entry
}

// NewService creates a new core application service.
func NewService(
	cfg config.RefreshConfig,
	locale language.Tag,
	backend Backend,
	savedQueries SavedQueryStorage,
	statuses StatusStorage,
	broker *events.Broker,
) *Service {
	return &Service{
		cfg:          cfg,
		locale:       locale,
		backend:      backend,
		savedQueries: savedQueries,
		statuses:     statuses,
		broker:       broker,
		courses:      snapshot.New[domain.Course](),
		posts:        snapshot.New[domain.Post](),
		reviews:      snapshot.New[domain.Review](),
		status:       make(map[domain.Resource]domain.SyncStatus),
		stopChan:     make(chan struct{}),
		now:          time.Now,
		log:          logrus.WithField("component", "service"),
	}
}

// Start begins the refresh loop of the service. The first cycle runs
// immediately. It is a long-running, blocking method.
func (s *Service) Start(ctx context.Context) error {
	s.log.Info("Service starting...")
	if err := s.loadStatuses(ctx); err != nil {
		return fmt.Errorf("could not load refresh status: %w", err)
	}

	interval := time.Duration(s.cfg.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	s.log.WithField("interval", interval).Info("Starting refresh loop")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.RefreshAll(ctx)

	for {
		select {
		case <-ticker.C:
			s.RefreshAll(ctx)
		case <-s.stopChan:
			s.log.Info("Refresh loop stopped.")
			return nil
		case <-ctx.Done():
			s.log.Info("Refresh loop context cancelled.")
			return nil
		}
	}
}

// Stop gracefully shuts down the service's background processes.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		s.log.Info("Service stopping...")
		close(s.stopChan)
	})
}

// loadStatuses seeds the in-memory status table from storage so LastSuccess
// survives restarts.
func (s *Service) loadStatuses(ctx context.Context) error {
	for _, r := range domain.Resources {
		st, err := s.statuses.GetStatus(ctx, r)
		if err != nil {
			return err
		}
		if st != nil {
			s.statusMu.Lock()
			s.status[r] = *st
			s.statusMu.Unlock()
		}
	}
	return nil
}

// RefreshAll refreshes every resource concurrently and records the
// outcomes in one write. It returns the first refresh error, if any.
func (s *Service) RefreshAll(ctx context.Context) error {
	results := make([]*domain.SyncStatus, len(domain.Resources))

	var g errgroup.Group
	for i, r := range domain.Resources {
		g.Go(func() error {
			st, err := s.refresh(ctx, r)
			results[i] = st
			return err
		})
	}
	err := g.Wait()

	statuses := make([]domain.SyncStatus, 0, len(results))
	for _, st := range results {
		if st != nil {
			statuses = append(statuses, *st)
		}
	}
	if werr := s.statuses.SetStatuses(ctx, statuses); werr != nil {
		s.log.WithError(werr).Warn("failed to persist refresh status")
	}
	if err != nil {
		s.log.WithError(err).Warn("Refresh cycle finished with errors")
	} else {
		s.log.Debug("Refresh cycle finished")
	}
	return err
}

// Refresh fetches one resource and replaces its snapshot. A fetch failure
// leaves the snapshot empty and marked failed. A fetch overtaken by a newer
// one is discarded without error.
func (s *Service) Refresh(ctx context.Context, resource domain.Resource) error {
	st, err := s.refresh(ctx, resource)
	if st != nil {
		if werr := s.statuses.SetStatus(ctx, *st); werr != nil {
			s.log.WithError(werr).WithField("resource", resource).Warn("failed to persist refresh status")
		}
	}
	return err
}

func (s *Service) refresh(ctx context.Context, resource domain.Resource) (*domain.SyncStatus, error) {
	switch resource {
	case domain.ResourceCourses:
		return refreshStore(ctx, s, resource, s.courses, s.backend.Courses)
	case domain.ResourcePosts:
		return refreshStore(ctx, s, resource, s.posts, func(ctx context.Context) ([]domain.Post, error) {
			return s.backend.Posts(ctx, 0)
		})
	case domain.ResourceReviews:
		return refreshStore(ctx, s, resource, s.reviews, s.backend.Reviews)
	default:
		return nil, fmt.Errorf("unknown resource: %q", resource)
	}
}

func refreshStore[T any](
	ctx context.Context,
	s *Service,
	resource domain.Resource,
	store *snapshot.Store[T],
	fetch func(context.Context) ([]T, error),
) (*domain.SyncStatus, error) {
	tok := store.Begin()
	log := s.log.WithFields(logrus.Fields{"resource": resource, "token": tok})

	records, err := fetch(ctx)
	now := s.now().UTC()

	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	st := s.status[resource]
	st.Resource = resource
	st.LastAttempt = now

	if err != nil {
		if !store.Fail(tok, err) {
			metrics.RecordRefresh(string(resource), metrics.OutcomeStale, 0)
			log.Debug("discarding stale failed fetch")
			return nil, nil
		}
		metrics.RecordRefresh(string(resource), metrics.OutcomeFailure, 0)
		log.WithError(err).Warn("refresh failed")
		st.Records = 0
		st.LastError = err.Error()
		s.status[resource] = st
		s.broker.Publish(events.TopicRefreshFailed, events.RefreshEvent{Resource: string(resource), Err: err, At: now})
		return &st, fmt.Errorf("refresh %s: %w", resource, err)
	}

	if !store.Commit(tok, records) {
		metrics.RecordRefresh(string(resource), metrics.OutcomeStale, 0)
		log.Debug("discarding stale fetch")
		return nil, nil
	}
	metrics.RecordRefresh(string(resource), metrics.OutcomeSuccess, len(records))
	log.WithField("records", len(records)).Info("refreshed")
	st.Records = len(records)
	st.LastSuccess = now
	st.LastError = ""
	s.status[resource] = st
	s.broker.Publish(events.TopicRefreshed, events.RefreshEvent{Resource: string(resource), Records: len(records), At: now})
	return &st, nil
}

// SyncStatuses reports the refresh status of every resource. Resources that
// have never been refreshed are reported with zero times.
func (s *Service) SyncStatuses(_ context.Context) []domain.SyncStatus {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()

	out := make([]domain.SyncStatus, 0, len(domain.Resources))
	for _, r := range domain.Resources {
		st, ok := s.status[r]
		if !ok {
			st = domain.SyncStatus{Resource: r}
		}
		out = append(out, st)
	}
	return out
}
