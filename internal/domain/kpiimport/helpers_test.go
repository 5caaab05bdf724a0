package kpiimport

import (
	"context"
	"strings"

	"github.com/stretchr/testify/mock"

	"perfhub/internal/domain/kpi"
	"perfhub/internal/domain/org"
)

const validDescription = "Shares a written status update with stakeholders every week."

type fakeLookups struct {
	kras         map[string]org.Ref
	departments  map[string]org.Ref
	teams        map[string]org.Ref
	designations map[string]org.Ref
	calls        int
	err          error
}

func newFakeLookups() *fakeLookups {
	return &fakeLookups{
		kras: map[string]org.Ref{
			"delivery": {ID: "kra-1", Exists: true, Active: true},
		},
		departments: map[string]org.Ref{
			"engineering": {ID: "dep-1", Exists: true, Active: true},
			"sales":       {ID: "dep-2", Exists: true, Active: false},
		},
		teams: map[string]org.Ref{
			"dep-1/be team": {ID: "team-1", Exists: true, Active: true},
			"dep-1/fe team": {ID: "team-2", Exists: true, Active: true},
		},
		designations: map[string]org.Ref{
			"team-1/lead":   {ID: "des-1", Exists: true, Active: true},
			"team-1/sde":    {ID: "des-2", Exists: true, Active: true},
			"team-1/intern": {ID: "des-3", Exists: true, Active: false},
			"team-2/sde":    {ID: "des-4", Exists: true, Active: true},
		},
	}
}

func (f *fakeLookups) find(m map[string]org.Ref, key string) (org.Ref, error) {
	f.calls++
	if f.err != nil {
		return org.Ref{}, f.err
	}
	return m[strings.ToLower(key)], nil
}

func (f *fakeLookups) KRA(_ context.Context, _, name string) (org.Ref, error) {
	return f.find(f.kras, name)
}

func (f *fakeLookups) Department(_ context.Context, _, name string) (org.Ref, error) {
	return f.find(f.departments, name)
}

func (f *fakeLookups) Team(_ context.Context, _, departmentID, name string) (org.Ref, error) {
	return f.find(f.teams, departmentID+"/"+name)
}

func (f *fakeLookups) Designation(_ context.Context, _, teamID, name string) (org.Ref, error) {
	return f.find(f.designations, teamID+"/"+name)
}

type creatorMock struct {
	mock.Mock
}

func (m *creatorMock) CreateValidated(ctx context.Context, orgID, actorID string, in kpi.Input) (kpi.KPI, error) {
	args := m.Called(ctx, orgID, actorID, in)
	return args.Get(0).(kpi.KPI), args.Error(1)
}

type observerStub struct {
	outcome         string
	created, failed int
}

func (o *observerStub) ImportFinished(outcome string, created, failed int) {
	o.outcome, o.created, o.failed = outcome, created, failed
}

func csvFile(rows ...string) []byte {
	return []byte(strings.Join(Header, ",") + "\n" + strings.Join(rows, "\n"))
}

func row(title, departments string) string {
	return "Delivery," + title + "," + validDescription + ",Yes," + departments
}
