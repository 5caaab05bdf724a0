package org

import "context"

type StoreAPI interface {
	GetOrganisation(ctx context.Context, orgID string) (Organisation, error)
	UpdateTimeZone(ctx context.Context, orgID, zone string) error
	CreateUnit(ctx context.Context, orgID string, kind Kind, parentID, name string) (string, error)
	GetUnit(ctx context.Context, orgID string, kind Kind, id string) (Unit, error)
	ListUnits(ctx context.Context, orgID string, kind Kind, filter ListFilter) ([]Unit, error)
	SetUnitActive(ctx context.Context, orgID string, kind Kind, id string, active bool) error
	FindUnit(ctx context.Context, orgID string, kind Kind, parentID, name string) (Ref, error)
}
