package audit

import (
	"context"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"

	"perfhub/internal/platform/db"
	"perfhub/internal/requestctx"
)

const (
	ActionKPICreate          = "kpi.create"
	ActionKPIEdit            = "kpi.edit"
	ActionKPIImport          = "kpi.import"
	ActionReviewCycleCreate  = "review_cycle.create"
	ActionReviewCycleUpdate  = "review_cycle.update"
	ActionReviewCyclePublish = "review_cycle.publish"
	ActionOrgUnitCreate      = "org_unit.create"
	ActionOrgUnitStatus      = "org_unit.status"
)

type Event struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

// Entry is one activity to record. Request id and client ip come from the context.
type Entry struct {
	OrganisationID string
	ActorID        string
	Action         string
	EntityType     string
	EntityID       string
	Before         any
	After          any
}

type Filter struct {
	Action     string
	EntityType string
	ActorUser  string
}

type Service struct {
	DB db.Querier
	sq sq.StatementBuilderType
}

func New(q db.Querier) *Service {
	return &Service{DB: q, sq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

func (s *Service) Record(ctx context.Context, e Entry) error {
	beforeJSON, err := marshalOptional(e.Before)
	if err != nil {
		return err
	}
	afterJSON, err := marshalOptional(e.After)
	if err != nil {
		return err
	}

	_, err = s.DB.Exec(ctx, `
    INSERT INTO audit_events (organisation_id, actor_user_id, action, entity_type, entity_id, before_json, after_json, request_id, ip)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
  `, e.OrganisationID, nullIfEmpty(e.ActorID), e.Action, e.EntityType, e.EntityID, beforeJSON, afterJSON,
		requestctx.GetRequestID(ctx), requestctx.GetClientIP(ctx))
	return err
}

func (s *Service) Count(ctx context.Context, orgID string, filter Filter) (int, error) {
	query, args, err := s.filtered(s.sq.Select("COUNT(1)"), orgID, filter).ToSql()
	if err != nil {
		return 0, err
	}
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Service) List(ctx context.Context, orgID string, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	cols := []string{
		"id", "COALESCE(actor_user_id::text, '')", "action", "entity_type", "entity_id",
		"COALESCE(request_id, '')", "COALESCE(ip, '')", "created_at",
	}
	if includeDetails {
		cols = append(cols, "before_json", "after_json")
	}
	query, args, err := s.filtered(s.sq.Select(cols...), orgID, filter).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var evt Event
		dest := []any{&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &evt.CreatedAt}
		if includeDetails {
			dest = append(dest, &evt.Before, &evt.After)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func (s *Service) filtered(b sq.SelectBuilder, orgID string, filter Filter) sq.SelectBuilder {
	b = b.From("audit_events").Where(sq.Eq{"organisation_id": orgID})
	if filter.Action != "" {
		b = b.Where(sq.Eq{"action": filter.Action})
	}
	if filter.EntityType != "" {
		b = b.Where(sq.Eq{"entity_type": filter.EntityType})
	}
	if filter.ActorUser != "" {
		b = b.Where(sq.Eq{"actor_user_id::text": filter.ActorUser})
	}
	return b
}

func marshalOptional(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
