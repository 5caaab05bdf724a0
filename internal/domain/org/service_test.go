package org

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"perfhub/internal/platform/db"
)

type StoreMock struct {
	mock.Mock
}

var _ StoreAPI = (*StoreMock)(nil)

func (m *StoreMock) GetOrganisation(ctx context.Context, orgID string) (Organisation, error) {
	args := m.Called(ctx, orgID)
	return args.Get(0).(Organisation), args.Error(1)
}

func (m *StoreMock) UpdateTimeZone(ctx context.Context, orgID, zone string) error {
	return m.Called(ctx, orgID, zone).Error(0)
}

func (m *StoreMock) CreateUnit(ctx context.Context, orgID string, kind Kind, parentID, name string) (string, error) {
	args := m.Called(ctx, orgID, kind, parentID, name)
	return args.String(0), args.Error(1)
}

func (m *StoreMock) GetUnit(ctx context.Context, orgID string, kind Kind, id string) (Unit, error) {
	args := m.Called(ctx, orgID, kind, id)
	return args.Get(0).(Unit), args.Error(1)
}

func (m *StoreMock) ListUnits(ctx context.Context, orgID string, kind Kind, filter ListFilter) ([]Unit, error) {
	args := m.Called(ctx, orgID, kind, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Unit), args.Error(1)
}

func (m *StoreMock) SetUnitActive(ctx context.Context, orgID string, kind Kind, id string, active bool) error {
	return m.Called(ctx, orgID, kind, id, active).Error(0)
}

func (m *StoreMock) FindUnit(ctx context.Context, orgID string, kind Kind, parentID, name string) (Ref, error) {
	args := m.Called(ctx, orgID, kind, parentID, name)
	return args.Get(0).(Ref), args.Error(1)
}

func TestSetTimeZoneRejectsUnknownZone(t *testing.T) {
	store := new(StoreMock)
	svc := NewService(store)

	err := svc.SetTimeZone(context.Background(), "org-1", "Mars/Olympus")
	assert.ErrorIs(t, err, ErrInvalidTimeZone)

	err = svc.SetTimeZone(context.Background(), "org-1", "")
	assert.ErrorIs(t, err, ErrInvalidTimeZone)
	store.AssertNotCalled(t, "UpdateTimeZone", mock.Anything, mock.Anything, mock.Anything)
}

func TestSetTimeZoneStoresValidZone(t *testing.T) {
	store := new(StoreMock)
	store.On("UpdateTimeZone", mock.Anything, "org-1", "Asia/Kolkata").Return(nil)

	require.NoError(t, NewService(store).SetTimeZone(context.Background(), "org-1", " Asia/Kolkata "))
	store.AssertExpectations(t)
}

func TestCreateTeamChecksDepartment(t *testing.T) {
	ctx := context.Background()
	store := new(StoreMock)
	svc := NewService(store)

	store.On("GetUnit", ctx, "org-1", KindDepartment, "missing").Return(Unit{}, db.ErrNotFound)
	_, err := svc.CreateTeam(ctx, "org-1", "missing", "BE Team")
	assert.ErrorIs(t, err, ErrParentNotFound)

	store.On("GetUnit", ctx, "org-1", KindDepartment, "closed").Return(Unit{ID: "closed", Active: false}, nil)
	_, err = svc.CreateTeam(ctx, "org-1", "closed", "BE Team")
	assert.ErrorIs(t, err, ErrParentInactive)

	store.AssertNotCalled(t, "CreateUnit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateTeam(t *testing.T) {
	ctx := context.Background()
	store := new(StoreMock)
	store.On("GetUnit", ctx, "org-1", KindDepartment, "dep-1").Return(Unit{ID: "dep-1", Active: true}, nil)
	store.On("CreateUnit", ctx, "org-1", KindTeam, "dep-1", "BE Team").Return("team-1", nil)
	store.On("GetUnit", ctx, "org-1", KindTeam, "team-1").
		Return(Unit{ID: "team-1", Kind: KindTeam, ParentID: "dep-1", Name: "BE Team", Active: true}, nil)

	team, err := NewService(store).CreateTeam(ctx, "org-1", "dep-1", "  BE Team ")
	require.NoError(t, err)
	assert.Equal(t, "team-1", team.ID)
	assert.Equal(t, "dep-1", team.ParentID)
	store.AssertExpectations(t)
}

func TestCreateRejectsBadNames(t *testing.T) {
	svc := NewService(new(StoreMock))
	for _, name := range []string{"", "R&D", "Two  Spaces", "under_score"} {
		_, err := svc.CreateDepartment(context.Background(), "org-1", name)
		if !errors.Is(err, ErrInvalidName) {
			t.Fatalf("name %q: expected ErrInvalidName, got %v", name, err)
		}
	}
}

func TestCreateMapsUniqueViolation(t *testing.T) {
	ctx := context.Background()
	store := new(StoreMock)
	store.On("CreateUnit", ctx, "org-1", KindKRA, "", "Delivery").
		Return("", &db.ConstraintError{Kind: db.UniqueViolation, Constraint: "kras_org_name_unique"})

	_, err := NewService(store).CreateKRA(ctx, "org-1", "Delivery")
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestSetActiveUnknownKind(t *testing.T) {
	err := NewService(new(StoreMock)).SetActive(context.Background(), "org-1", Kind("branch"), "x", false)
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestLookupsScopeByParent(t *testing.T) {
	ctx := context.Background()
	store := new(StoreMock)
	store.On("FindUnit", ctx, "org-1", KindTeam, "dep-1", "BE Team").Return(Ref{ID: "team-1", Exists: true, Active: true}, nil)
	store.On("FindUnit", ctx, "org-1", KindDesignation, "team-1", "Lead").Return(Ref{ID: "des-1", Exists: true}, nil)
	store.On("FindUnit", ctx, "org-1", KindKRA, "", "Comm").Return(Ref{}, nil)

	l := NewLookups(store)
	team, err := l.Team(ctx, "org-1", "dep-1", "BE Team")
	require.NoError(t, err)
	assert.True(t, team.Usable())

	lead, err := l.Designation(ctx, "org-1", "team-1", "Lead")
	require.NoError(t, err)
	assert.False(t, lead.Usable(), "inactive designation must not be usable")

	kra, err := l.KRA(ctx, "org-1", "Comm")
	require.NoError(t, err)
	assert.False(t, kra.Exists)
}
