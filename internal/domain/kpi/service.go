package kpi

import (
	"context"
	"log/slog"

	"perfhub/internal/domain/audit"
)

type Service struct {
	store   StoreAPI
	auditor Auditor
}

func NewService(store StoreAPI, auditor Auditor) *Service {
	return &Service{store: store, auditor: auditor}
}

// Create validates in and inserts the KPI as version 1.
func (s *Service) Create(ctx context.Context, orgID, actorID string, in Input) (KPI, error) {
	if err := in.Validate(); err != nil {
		return KPI{}, err
	}
	return s.CreateValidated(ctx, orgID, actorID, in)
}

// CreateValidated inserts an input whose fields were already checked by the caller.
func (s *Service) CreateValidated(ctx context.Context, orgID, actorID string, in Input) (KPI, error) {
	id, err := s.store.CreateKPI(ctx, orgID, actorID, in)
	if err != nil {
		return KPI{}, classify(err)
	}
	s.record(ctx, audit.Entry{
		OrganisationID: orgID,
		ActorID:        actorID,
		Action:         audit.ActionKPICreate,
		EntityType:     EntityType,
		EntityID:       id,
		After:          in,
	})
	return KPI{
		ID:             id,
		OrganisationID: orgID,
		Version:        1,
		KRAID:          in.KRAID,
		Title:          in.Title,
		Description:    in.Description,
		Status:         in.Status,
		Mappings:       in.Mappings,
		CreatedBy:      actorID,
	}, nil
}

// Edit applies in to the KPI. A change to anything but status retires the current
// version and appends a new one; a status-only change updates the current version.
func (s *Service) Edit(ctx context.Context, orgID, actorID, kpiID string, in Input) (KPI, error) {
	if err := in.Validate(); err != nil {
		return KPI{}, err
	}
	current, err := s.store.GetCurrent(ctx, orgID, kpiID)
	if err != nil {
		return KPI{}, classify(err)
	}

	if !HasContentChanges(current, in) {
		if current.Status != in.Status {
			if err := s.store.UpdateVersionStatus(ctx, kpiID, current.Version, in.Status); err != nil {
				return KPI{}, classify(err)
			}
			s.recordEdit(ctx, orgID, actorID, current, in, current.Version)
		}
		current.Status = in.Status
		return current, nil
	}

	maxVersion, err := s.store.MaxVersion(ctx, kpiID)
	if err != nil {
		return KPI{}, err
	}
	if err := s.store.UpdateVersionStatus(ctx, kpiID, current.Version, false); err != nil {
		return KPI{}, classify(err)
	}

	next := maxVersion + 1
	if err := s.store.CreateVersion(ctx, kpiID, next, actorID, in); err != nil {
		if current.Status {
			if restoreErr := s.store.UpdateVersionStatus(ctx, kpiID, current.Version, true); restoreErr != nil {
				slog.Warn("kpi status restore failed", "kpiId", kpiID, "version", current.Version, "err", restoreErr)
			}
		}
		return KPI{}, classify(err)
	}
	s.recordEdit(ctx, orgID, actorID, current, in, next)

	return KPI{
		ID:             kpiID,
		OrganisationID: orgID,
		Version:        next,
		KRAID:          in.KRAID,
		Title:          in.Title,
		Description:    in.Description,
		Status:         in.Status,
		Mappings:       in.Mappings,
		CreatedBy:      actorID,
	}, nil
}

func (s *Service) Get(ctx context.Context, orgID, kpiID string) (KPI, error) {
	k, err := s.store.GetCurrent(ctx, orgID, kpiID)
	if err != nil {
		return KPI{}, classify(err)
	}
	return k, nil
}

func (s *Service) List(ctx context.Context, orgID string, filter ListFilter) ([]KPI, int, error) {
	total, err := s.store.CountKPIs(ctx, orgID, filter)
	if err != nil {
		return nil, 0, err
	}
	items, err := s.store.ListKPIs(ctx, orgID, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Service) Versions(ctx context.Context, orgID, kpiID string) ([]Version, error) {
	versions, err := s.store.ListVersions(ctx, orgID, kpiID)
	if err != nil {
		return nil, classify(err)
	}
	return versions, nil
}

func (s *Service) recordEdit(ctx context.Context, orgID, actorID string, before KPI, after Input, version int) {
	s.record(ctx, audit.Entry{
		OrganisationID: orgID,
		ActorID:        actorID,
		Action:         audit.ActionKPIEdit,
		EntityType:     EntityType,
		EntityID:       before.ID,
		Before:         before,
		After:          map[string]any{"versionNumber": version, "kpi": after},
	})
}

func (s *Service) record(ctx context.Context, e audit.Entry) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Record(ctx, e); err != nil {
		slog.Warn("audit log failed", "action", e.Action, "entityId", e.EntityID, "err", err)
	}
}
