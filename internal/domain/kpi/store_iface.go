package kpi

import (
	"context"

	"perfhub/internal/domain/audit"
)

type StoreAPI interface {
	CreateKPI(ctx context.Context, orgID, actorID string, in Input) (string, error)
	GetCurrent(ctx context.Context, orgID, kpiID string) (KPI, error)
	MaxVersion(ctx context.Context, kpiID string) (int, error)
	UpdateVersionStatus(ctx context.Context, kpiID string, version int, status bool) error
	CreateVersion(ctx context.Context, kpiID string, version int, actorID string, in Input) error
	ListKPIs(ctx context.Context, orgID string, filter ListFilter) ([]KPI, error)
	CountKPIs(ctx context.Context, orgID string, filter ListFilter) (int, error)
	ListVersions(ctx context.Context, orgID, kpiID string) ([]Version, error)
}

// Auditor records activity log entries.
type Auditor interface {
	Record(ctx context.Context, e audit.Entry) error
}
