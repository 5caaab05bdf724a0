package reviewcycle

import (
	"context"
	"errors"
	"time"

	"perfhub/internal/platform/clock"
	"perfhub/internal/platform/db"
)

type Service struct {
	store StoreAPI
	clock clock.Clock
}

func NewService(store StoreAPI, clk clock.Clock) *Service {
	return &Service{store: store, clock: clk}
}

func (s *Service) Create(ctx context.Context, orgID string, in Input) (ReviewCycle, error) {
	if err := in.Validate(); err != nil {
		return ReviewCycle{}, err
	}
	id, err := s.store.CreateCycle(ctx, orgID, in)
	if err != nil {
		return ReviewCycle{}, err
	}
	return s.Get(ctx, orgID, id)
}

func (s *Service) Update(ctx context.Context, orgID, cycleID string, in Input) (ReviewCycle, error) {
	if err := in.Validate(); err != nil {
		return ReviewCycle{}, err
	}
	if err := s.store.UpdateCycle(ctx, orgID, cycleID, in); err != nil {
		return ReviewCycle{}, notFound(err)
	}
	return s.Get(ctx, orgID, cycleID)
}

func (s *Service) Get(ctx context.Context, orgID, cycleID string) (ReviewCycle, error) {
	cycle, err := s.store.GetCycle(ctx, orgID, cycleID)
	if err != nil {
		return ReviewCycle{}, notFound(err)
	}
	today, err := s.Today(ctx, orgID)
	if err != nil {
		return ReviewCycle{}, err
	}
	return cycle.ActiveOn(today), nil
}

func (s *Service) List(ctx context.Context, orgID string, filter ListFilter) ([]ReviewCycle, error) {
	cycles, err := s.store.ListCycles(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}
	today, err := s.Today(ctx, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]ReviewCycle, 0, len(cycles))
	for _, c := range cycles {
		out = append(out, c.ActiveOn(today))
	}
	return out, nil
}

func (s *Service) SetPublished(ctx context.Context, orgID, cycleID string, published bool) error {
	return notFound(s.store.SetPublished(ctx, orgID, cycleID, published))
}

// UnpublishExpired unpublishes every cycle whose overall end date is before today, a
// calendar date already resolved in the organisation's zone, and reports how many changed.
func (s *Service) UnpublishExpired(ctx context.Context, orgID string, today time.Time) (int64, error) {
	return s.store.UnpublishEndedBefore(ctx, orgID, clock.DateOf(today))
}

// Today is the current calendar date in the organisation's zone.
func (s *Service) Today(ctx context.Context, orgID string) (time.Time, error) {
	zone, err := s.store.OrganisationTimeZone(ctx, orgID)
	if err != nil {
		return time.Time{}, err
	}
	return clock.Today(s.clock.Now(), zone)
}

func notFound(err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
