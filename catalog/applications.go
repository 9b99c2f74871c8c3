package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/jacentio/canopy/store"
)

// Applications manages registered applications.
type Applications struct {
	base
	apps store.Backend[Application]
}

// NewApplications creates the application service.
func NewApplications(apps store.Backend[Application], opts ...Option) *Applications {
	return &Applications{
		base: newBase(opts),
		apps: apps,
	}
}

// Create registers an application.
func (s *Applications) Create(ctx context.Context, in ApplicationInput) (Application, error) {
	in = in.normalize()
	if err := in.Validate(); err != nil {
		return Application{}, err
	}

	now := s.now().UTC()
	a := Application{ID: s.newID(), CreatedAt: now, UpdatedAt: now}
	in.apply(&a)
	if err := s.apps.Add(ctx, a); err != nil {
		return Application{}, fmt.Errorf("add application: %w", err)
	}
	s.logger.Info("application created", "id", a.ID, "type", a.Type)
	return a, nil
}

// Update replaces an application's fields. CreatedAt is kept and
// UpdatedAt is bumped.
func (s *Applications) Update(ctx context.Context, id string, in ApplicationInput) (Application, error) {
	in = in.normalize()
	if err := in.Validate(); err != nil {
		return Application{}, err
	}

	a, err := s.Get(ctx, id)
	if err != nil {
		return Application{}, err
	}
	in.apply(&a)
	a.UpdatedAt = s.now().UTC()
	if err := s.apps.Put(ctx, a); err != nil {
		return Application{}, fmt.Errorf("update application: %w", err)
	}
	s.logger.Info("application updated", "id", a.ID)
	return a, nil
}

// Delete removes an application. Deleting an unknown id is a no-op.
func (s *Applications) Delete(ctx context.Context, id string) error {
	if err := s.apps.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	s.logger.Info("application deleted", "id", id)
	return nil
}

// Get returns an application by id.
func (s *Applications) Get(ctx context.Context, id string) (Application, error) {
	a, ok, err := s.apps.Get(ctx, id)
	if err != nil {
		return Application{}, fmt.Errorf("get application %s: %w", id, err)
	}
	if !ok {
		return Application{}, fmt.Errorf("%w: application %s", ErrNotFound, id)
	}
	return a, nil
}

// List returns every application, newest first.
func (s *Applications) List(ctx context.Context) ([]Application, error) {
	all, err := s.apps.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return newestFirst(all, appCreated, appID), nil
}

// ListByType returns the applications of one type, newest first.
func (s *Applications) ListByType(ctx context.Context, t AppType) ([]Application, error) {
	found, err := s.apps.GetAllByIndex(ctx, IndexAppType, store.Key(string(t)))
	if err != nil {
		return nil, fmt.Errorf("list %s applications: %w", t, err)
	}
	return newestFirst(found, appCreated, appID), nil
}

func (in ApplicationInput) apply(a *Application) {
	a.Name = in.Name
	a.Type = in.Type
	a.Remark = in.Remark
	a.DeploymentURL = in.DeploymentURL
	a.TemplateType = in.TemplateType
	a.NavigationType = in.NavigationType
	a.BusinessEntityType = in.BusinessEntityType
}

func appCreated(a Application) time.Time { return a.CreatedAt }
func appID(a Application) string         { return a.ID }
