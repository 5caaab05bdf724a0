package reviewcycle

import (
	"context"
	"time"
)

type StoreAPI interface {
	OrganisationTimeZone(ctx context.Context, orgID string) (string, error)
	CreateCycle(ctx context.Context, orgID string, in Input) (string, error)
	UpdateCycle(ctx context.Context, orgID, cycleID string, in Input) error
	GetCycle(ctx context.Context, orgID, cycleID string) (ReviewCycle, error)
	ListCycles(ctx context.Context, orgID string, filter ListFilter) ([]ReviewCycle, error)
	SetPublished(ctx context.Context, orgID, cycleID string, published bool) error
	UnpublishEndedBefore(ctx context.Context, orgID string, day time.Time) (int64, error)
}
