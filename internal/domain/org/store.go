package org

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"perfhub/internal/platform/db"
)

type Store struct {
	DB db.Querier
	sq sq.StatementBuilderType
}

func NewStore(q db.Querier) *Store {
	return &Store{DB: q, sq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

func (s *Store) GetOrganisation(ctx context.Context, orgID string) (Organisation, error) {
	var o Organisation
	var webhook *string
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, time_zone, slack_webhook_url, feedback_broadcast_enabled,
           last_feedback_reminder_sent_at, created_at
    FROM organisations
    WHERE id = $1
  `, orgID).Scan(&o.ID, &o.Name, &o.TimeZone, &webhook, &o.BroadcastEnabled, &o.LastFeedbackReminderSentAt, &o.CreatedAt)
	if err != nil {
		return Organisation{}, db.Classify(err)
	}
	if webhook != nil {
		o.SlackWebhookURL = *webhook
	}
	return o, nil
}

func (s *Store) UpdateTimeZone(ctx context.Context, orgID, zone string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE organisations SET time_zone = $2, updated_at = now() WHERE id = $1", orgID, zone)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (s *Store) CreateUnit(ctx context.Context, orgID string, kind Kind, parentID, name string) (string, error) {
	columns := []string{"organisation_id", "name"}
	values := []any{orgID, name}
	if col := kind.parentColumn(); col != "" {
		columns = append(columns, col)
		values = append(values, parentID)
	}
	query, args, err := s.sq.Insert(kind.table()).Columns(columns...).Values(values...).Suffix("RETURNING id").ToSql()
	if err != nil {
		return "", err
	}
	var id string
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return "", db.Classify(err)
	}
	return id, nil
}

func (s *Store) GetUnit(ctx context.Context, orgID string, kind Kind, id string) (Unit, error) {
	query, args, err := s.unitSelect(kind).Where(sq.Eq{"organisation_id": orgID, "id": id}).ToSql()
	if err != nil {
		return Unit{}, err
	}
	u, err := scanUnit(s.DB.QueryRow(ctx, query, args...), kind)
	if err != nil {
		return Unit{}, db.Classify(err)
	}
	return u, nil
}

func (s *Store) ListUnits(ctx context.Context, orgID string, kind Kind, filter ListFilter) ([]Unit, error) {
	builder := s.unitSelect(kind).Where(sq.Eq{"organisation_id": orgID}).OrderBy("lower(name)")
	if col := kind.parentColumn(); col != "" && filter.ParentID != "" {
		builder = builder.Where(sq.Eq{col: filter.ParentID})
	}
	if !filter.IncludeInactive {
		builder = builder.Where(sq.Eq{"active": true})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Unit
	for rows.Next() {
		u, err := scanUnit(rows, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) SetUnitActive(ctx context.Context, orgID string, kind Kind, id string, active bool) error {
	query, args, err := s.sq.Update(kind.table()).
		Set("active", active).
		Where(sq.Eq{"organisation_id": orgID, "id": id}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := s.DB.Exec(ctx, query, args...)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

// FindUnit matches name case-insensitively. A missing unit is reported through
// Ref.Exists, not as an error.
func (s *Store) FindUnit(ctx context.Context, orgID string, kind Kind, parentID, name string) (Ref, error) {
	builder := s.sq.Select("id", "active").
		From(kind.table()).
		Where(sq.Eq{"organisation_id": orgID}).
		Where("lower(name) = lower(?)", name)
	if col := kind.parentColumn(); col != "" {
		builder = builder.Where(sq.Eq{col: parentID})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return Ref{}, err
	}

	ref := Ref{Exists: true}
	err = s.DB.QueryRow(ctx, query, args...).Scan(&ref.ID, &ref.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return Ref{}, nil
	}
	if err != nil {
		return Ref{}, err
	}
	return ref, nil
}

func (s *Store) unitSelect(kind Kind) sq.SelectBuilder {
	parent := "''"
	if col := kind.parentColumn(); col != "" {
		parent = col + "::text"
	}
	return s.sq.Select("id", parent, "name", "active", "created_at").From(kind.table())
}

func scanUnit(row pgx.Row, kind Kind) (Unit, error) {
	u := Unit{Kind: kind}
	if err := row.Scan(&u.ID, &u.ParentID, &u.Name, &u.Active, &u.CreatedAt); err != nil {
		return Unit{}, err
	}
	return u, nil
}
