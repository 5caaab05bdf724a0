package reviewcycle

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"perfhub/internal/platform/db"
)

var cycleColumns = []string{
	"id", "organisation_id", "name",
	"start_date", "end_date",
	"self_review_start_date", "self_review_end_date",
	"manager_review_start_date", "manager_review_end_date",
	"check_in_start_date", "check_in_end_date",
	"published", "created_at", "updated_at",
}

type Store struct {
	DB db.Querier
	sq sq.StatementBuilderType
}

func NewStore(q db.Querier) *Store {
	return &Store{DB: q, sq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

func (s *Store) OrganisationTimeZone(ctx context.Context, orgID string) (string, error) {
	var zone string
	if err := s.DB.QueryRow(ctx, "SELECT time_zone FROM organisations WHERE id = $1", orgID).Scan(&zone); err != nil {
		return "", db.Classify(err)
	}
	return zone, nil
}

func (s *Store) CreateCycle(ctx context.Context, orgID string, in Input) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO review_cycles (
      organisation_id, name, start_date, end_date,
      self_review_start_date, self_review_end_date,
      manager_review_start_date, manager_review_end_date,
      check_in_start_date, check_in_end_date, published
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
    RETURNING id
  `, orgID, in.Name, in.Overall.Start, in.Overall.End,
		in.SelfReview.Start, in.SelfReview.End,
		in.ManagerReview.Start, in.ManagerReview.End,
		in.CheckIn.Start, in.CheckIn.End, in.Published).Scan(&id)
	if err != nil {
		return "", db.Classify(err)
	}
	return id, nil
}

func (s *Store) UpdateCycle(ctx context.Context, orgID, cycleID string, in Input) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE review_cycles
    SET name = $3, start_date = $4, end_date = $5,
        self_review_start_date = $6, self_review_end_date = $7,
        manager_review_start_date = $8, manager_review_end_date = $9,
        check_in_start_date = $10, check_in_end_date = $11,
        published = $12, updated_at = now()
    WHERE organisation_id = $1 AND id = $2
  `, orgID, cycleID, in.Name, in.Overall.Start, in.Overall.End,
		in.SelfReview.Start, in.SelfReview.End,
		in.ManagerReview.Start, in.ManagerReview.End,
		in.CheckIn.Start, in.CheckIn.End, in.Published)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (s *Store) GetCycle(ctx context.Context, orgID, cycleID string) (ReviewCycle, error) {
	query, args, err := s.sq.Select(cycleColumns...).
		From("review_cycles").
		Where(sq.Eq{"organisation_id": orgID, "id": cycleID}).
		ToSql()
	if err != nil {
		return ReviewCycle{}, err
	}
	c, err := scanCycle(s.DB.QueryRow(ctx, query, args...))
	if err != nil {
		return ReviewCycle{}, db.Classify(err)
	}
	return c, nil
}

func (s *Store) ListCycles(ctx context.Context, orgID string, filter ListFilter) ([]ReviewCycle, error) {
	builder := s.sq.Select(cycleColumns...).
		From("review_cycles").
		Where(sq.Eq{"organisation_id": orgID}).
		OrderBy("start_date DESC")
	if filter.Published != nil {
		builder = builder.Where(sq.Eq{"published": *filter.Published})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
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

	var out []ReviewCycle
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) SetPublished(ctx context.Context, orgID, cycleID string, published bool) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE review_cycles SET published = $3, updated_at = now()
    WHERE organisation_id = $1 AND id = $2
  `, orgID, cycleID, published)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (s *Store) UnpublishEndedBefore(ctx context.Context, orgID string, day time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE review_cycles SET published = false, updated_at = now()
    WHERE organisation_id = $1 AND published AND end_date < $2
  `, orgID, day)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanCycle(row pgx.Row) (ReviewCycle, error) {
	var c ReviewCycle
	err := row.Scan(
		&c.ID, &c.OrganisationID, &c.Name,
		&c.Overall.Start, &c.Overall.End,
		&c.SelfReview.Start, &c.SelfReview.End,
		&c.ManagerReview.Start, &c.ManagerReview.End,
		&c.CheckIn.Start, &c.CheckIn.End,
		&c.Published, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}
