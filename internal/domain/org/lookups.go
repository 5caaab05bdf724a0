package org

import "context"

// Lookups resolves organisation structure names to ids for the KPI importer.
type Lookups struct {
	store StoreAPI
}

func NewLookups(store StoreAPI) *Lookups {
	return &Lookups{store: store}
}

func (l *Lookups) KRA(ctx context.Context, orgID, name string) (Ref, error) {
	return l.store.FindUnit(ctx, orgID, KindKRA, "", name)
}

func (l *Lookups) Department(ctx context.Context, orgID, name string) (Ref, error) {
	return l.store.FindUnit(ctx, orgID, KindDepartment, "", name)
}

func (l *Lookups) Team(ctx context.Context, orgID, departmentID, name string) (Ref, error) {
	return l.store.FindUnit(ctx, orgID, KindTeam, departmentID, name)
}

func (l *Lookups) Designation(ctx context.Context, orgID, teamID, name string) (Ref, error) {
	return l.store.FindUnit(ctx, orgID, KindDesignation, teamID, name)
}
