package org

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"perfhub/internal/platform/clock"
	"perfhub/internal/platform/db"
	"perfhub/internal/platform/validation"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) Organisation(ctx context.Context, orgID string) (Organisation, error) {
	o, err := s.store.GetOrganisation(ctx, orgID)
	if err != nil {
		return Organisation{}, notFound(err)
	}
	return o, nil
}

// SetTimeZone rejects ids the zone database cannot resolve, so that every later
// "today" computation for the organisation succeeds.
func (s *Service) SetTimeZone(ctx context.Context, orgID, zone string) error {
	zone = strings.TrimSpace(zone)
	if _, err := clock.LoadZone(zone); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTimeZone, err)
	}
	return notFound(s.store.UpdateTimeZone(ctx, orgID, zone))
}

func (s *Service) CreateDepartment(ctx context.Context, orgID, name string) (Unit, error) {
	return s.create(ctx, orgID, KindDepartment, "", name)
}

func (s *Service) CreateTeam(ctx context.Context, orgID, departmentID, name string) (Unit, error) {
	return s.create(ctx, orgID, KindTeam, departmentID, name)
}

func (s *Service) CreateDesignation(ctx context.Context, orgID, teamID, name string) (Unit, error) {
	return s.create(ctx, orgID, KindDesignation, teamID, name)
}

func (s *Service) CreateKRA(ctx context.Context, orgID, name string) (Unit, error) {
	return s.create(ctx, orgID, KindKRA, "", name)
}

func (s *Service) List(ctx context.Context, orgID string, kind Kind, filter ListFilter) ([]Unit, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	return s.store.ListUnits(ctx, orgID, kind, filter)
}

func (s *Service) SetActive(ctx context.Context, orgID string, kind Kind, id string, active bool) error {
	if !kind.Valid() {
		return ErrInvalidKind
	}
	return notFound(s.store.SetUnitActive(ctx, orgID, kind, id, active))
}

func (s *Service) create(ctx context.Context, orgID string, kind Kind, parentID, name string) (Unit, error) {
	name = strings.TrimSpace(name)
	if !validation.IsOrgName(name) || len(name) > maxNameLength {
		return Unit{}, ErrInvalidName
	}

	if parentKind := kind.parent(); parentKind != "" {
		parent, err := s.store.GetUnit(ctx, orgID, parentKind, parentID)
		if errors.Is(err, db.ErrNotFound) {
			return Unit{}, ErrParentNotFound
		}
		if err != nil {
			return Unit{}, err
		}
		if !parent.Active {
			return Unit{}, ErrParentInactive
		}
	}

	id, err := s.store.CreateUnit(ctx, orgID, kind, parentID, name)
	if _, ok := db.AsConstraint(err, db.UniqueViolation); ok {
		return Unit{}, ErrDuplicateName
	}
	if err != nil {
		return Unit{}, err
	}
	return notFoundUnit(s.store.GetUnit(ctx, orgID, kind, id))
}

func notFoundUnit(u Unit, err error) (Unit, error) {
	return u, notFound(err)
}

func notFound(err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
