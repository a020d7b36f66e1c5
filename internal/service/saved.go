// Path: internal/service/saved.go
package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pastry-portal/internal/domain"
	"pastry-portal/internal/listing"
	"pastry-portal/internal/query"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// SaveQueryInput describes a saved query to create, or to replace when ID is set.
type SaveQueryInput struct {
	ID        string `json:"id" validate:"omitempty,uuid"`
	Name      string `json:"name" validate:"required,max=80"`
	Resource  string `json:"resource" validate:"required,oneof=courses posts reviews"`
	Query     string `json:"query" validate:"max=2000"`
	IsDefault bool   `json:"isDefault"`
}

// SaveQuery stores a named query for the session's user. The query string
// is validated against the resource and stored in canonical form. Marking
// a query as default clears the user's previous default for that resource.
func (s *Service) SaveQuery(ctx context.Context, session domain.Session, in SaveQueryInput) (*domain.SavedQuery, error) {
	if !session.IsLoggedIn() {
		return nil, ErrLoginRequired
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Resource = strings.ToLower(strings.TrimSpace(in.Resource))
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", listing.ErrInvalidQuery, err)
	}
	resource, err := domain.ParseResource(in.Resource)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", listing.ErrInvalidQuery, err)
	}
	values, err := url.ParseQuery(strings.TrimPrefix(in.Query, "?"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", listing.ErrInvalidQuery, err)
	}
	state, err := listing.ParseState(resource, values)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	saved := domain.SavedQuery{
		ID:        in.ID,
		UserID:    session.Subject(),
		Name:      in.Name,
		Resource:  resource,
		Query:     listing.EncodeState(state).Encode(),
		IsDefault: in.IsDefault,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if in.ID != "" {
		existing, err := s.ownedQuery(ctx, session, in.ID)
		if err != nil {
			return nil, err
		}
		saved.CreatedAt = existing.CreatedAt
	} else {
		saved.ID = uuid.NewString()
	}

	if saved.IsDefault {
		if err := s.savedQueries.ClearDefault(ctx, saved.UserID, resource); err != nil {
			return nil, fmt.Errorf("failed to clear default query: %w", err)
		}
	}
	if err := s.savedQueries.Upsert(ctx, saved); err != nil {
		return nil, fmt.Errorf("failed to save query: %w", err)
	}
	s.log.WithFields(logrus.Fields{"user": saved.UserID, "resource": resource, "id": saved.ID}).Info("saved query")
	return &saved, nil
}

// SavedQueries lists the session user's saved queries, optionally for one
// resource only.
func (s *Service) SavedQueries(ctx context.Context, session domain.Session, resource domain.Resource) ([]domain.SavedQuery, error) {
	if !session.IsLoggedIn() {
		return nil, ErrLoginRequired
	}
	queries, err := s.savedQueries.FindByUser(ctx, session.Subject(), resource)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved queries: %w", err)
	}
	if queries == nil {
		queries = []domain.SavedQuery{}
	}
	return queries, nil
}

// DeleteSavedQuery removes one of the session user's saved queries.
func (s *Service) DeleteSavedQuery(ctx context.Context, session domain.Session, id string) error {
	if _, err := s.ownedQuery(ctx, session, id); err != nil {
		return err
	}
	removed, err := s.savedQueries.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete saved query: %w", err)
	}
	if !removed {
		return ErrNotFound
	}
	return nil
}

// ApplySavedQuery resolves a saved query into the resource it targets and
// the list state it encodes.
func (s *Service) ApplySavedQuery(ctx context.Context, session domain.Session, id string) (domain.Resource, query.State, error) {
	saved, err := s.ownedQuery(ctx, session, id)
	if err != nil {
		return "", query.State{}, err
	}
	state, err := decodeSaved(saved)
	if err != nil {
		return "", query.State{}, err
	}
	return saved.Resource, state, nil
}

// DefaultState returns the state of the user's default query for resource.
// ok is false when the session is anonymous or has no default.
func (s *Service) DefaultState(ctx context.Context, session domain.Session, resource domain.Resource) (state query.State, ok bool, err error) {
	if !session.IsLoggedIn() {
		return query.State{}, false, nil
	}
	saved, err := s.savedQueries.FindDefault(ctx, session.Subject(), resource)
	if err != nil {
		return query.State{}, false, fmt.Errorf("failed to load default query: %w", err)
	}
	if saved == nil {
		return query.State{}, false, nil
	}
	state, err = decodeSaved(saved)
	if err != nil {
		return query.State{}, false, err
	}
	return state, true, nil
}

func (s *Service) ownedQuery(ctx context.Context, session domain.Session, id string) (*domain.SavedQuery, error) {
	if !session.IsLoggedIn() {
		return nil, ErrLoginRequired
	}
	saved, err := s.savedQueries.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load saved query: %w", err)
	}
	if saved == nil {
		return nil, ErrNotFound
	}
	if saved.UserID != session.Subject() {
		return nil, ErrForbidden
	}
	return saved, nil
}

// decodeSaved parses a stored query string. Sort keys or filters that are
// no longer offered make the saved query invalid rather than silently
// changing its meaning.
func decodeSaved(saved *domain.SavedQuery) (query.State, error) {
	values, err := url.ParseQuery(saved.Query)
	if err != nil {
		return query.State{}, fmt.Errorf("%w: %v", listing.ErrInvalidQuery, err)
	}
	return listing.ParseState(saved.Resource, values)
}
