package kpi

import (
	"context"
	"time"

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

var currentColumns = []string{
	"k.id", "k.organisation_id", "v.version_number", "v.kra_id", "kr.name",
	"v.title", "v.description", "v.status", "v.created_by::text", "v.created_at",
}

func (s *Store) CreateKPI(ctx context.Context, orgID, actorID string, in Input) (string, error) {
	var id string
	err := db.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			"INSERT INTO kpis (organisation_id, created_by) VALUES ($1, $2) RETURNING id",
			orgID, nullIfEmpty(actorID)).Scan(&id); err != nil {
			return err
		}
		return insertVersion(ctx, tx, id, 1, actorID, in)
	})
	if err != nil {
		return "", db.Classify(err)
	}
	return id, nil
}

func (s *Store) CreateVersion(ctx context.Context, kpiID string, version int, actorID string, in Input) error {
	err := db.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		return insertVersion(ctx, tx, kpiID, version, actorID, in)
	})
	return db.Classify(err)
}

func insertVersion(ctx context.Context, q db.Querier, kpiID string, version int, actorID string, in Input) error {
	if _, err := q.Exec(ctx, `
    INSERT INTO kpi_versions (kpi_id, version_number, kra_id, title, description, status, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, kpiID, version, in.KRAID, in.Title, in.Description, in.Status, nullIfEmpty(actorID)); err != nil {
		return err
	}
	for _, m := range in.Mappings {
		for _, designationID := range m.DesignationIDs {
			if _, err := q.Exec(ctx, `
        INSERT INTO kpi_version_mappings (kpi_id, version_number, department_id, team_id, designation_id)
        VALUES ($1,$2,$3,$4,$5)
      `, kpiID, version, m.DepartmentID, m.TeamID, designationID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) GetCurrent(ctx context.Context, orgID, kpiID string) (KPI, error) {
	query, args, err := s.currentSelect().Where(sq.Eq{"k.organisation_id": orgID, "k.id": kpiID}).ToSql()
	if err != nil {
		return KPI{}, err
	}
	k, err := scanKPI(s.DB.QueryRow(ctx, query, args...))
	if err != nil {
		return KPI{}, db.Classify(err)
	}
	byVersion, err := s.mappings(ctx, []string{k.ID})
	if err != nil {
		return KPI{}, err
	}
	k.Mappings = byVersion[versionKey{k.ID, k.Version}]
	return k, nil
}

func (s *Store) MaxVersion(ctx context.Context, kpiID string) (int, error) {
	var version int
	err := s.DB.QueryRow(ctx, "SELECT COALESCE(MAX(version_number), 0) FROM kpi_versions WHERE kpi_id = $1", kpiID).Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (s *Store) UpdateVersionStatus(ctx context.Context, kpiID string, version int, status bool) error {
	tag, err := s.DB.Exec(ctx,
		"UPDATE kpi_versions SET status = $3 WHERE kpi_id = $1 AND version_number = $2",
		kpiID, version, status)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (s *Store) ListKPIs(ctx context.Context, orgID string, filter ListFilter) ([]KPI, error) {
	builder := s.filtered(s.currentSelect(), orgID, filter).OrderBy("v.created_at DESC")
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))
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

	var out []KPI
	var ids []string
	for rows.Next() {
		k, err := scanKPI(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
		ids = append(ids, k.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	byVersion, err := s.mappings(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Mappings = byVersion[versionKey{out[i].ID, out[i].Version}]
	}
	return out, nil
}

func (s *Store) CountKPIs(ctx context.Context, orgID string, filter ListFilter) (int, error) {
	query, args, err := s.filtered(
		s.sq.Select("COUNT(1)").
			From("kpis k").
			Join("kpi_versions v ON v.kpi_id = k.id AND v.version_number = (SELECT MAX(version_number) FROM kpi_versions WHERE kpi_id = k.id)"),
		orgID, filter).ToSql()
	if err != nil {
		return 0, err
	}
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) ListVersions(ctx context.Context, orgID, kpiID string) ([]Version, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT v.version_number, v.kra_id, v.title, v.description, v.status, v.created_by::text, v.created_at
    FROM kpi_versions v
    JOIN kpis k ON k.id = v.kpi_id
    WHERE k.organisation_id = $1 AND v.kpi_id = $2
    ORDER BY v.version_number DESC
  `, orgID, kpiID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Version
	for rows.Next() {
		var v Version
		var createdBy *string
		if err := rows.Scan(&v.Number, &v.KRAID, &v.Title, &v.Description, &v.Status, &createdBy, &v.CreatedAt); err != nil {
			return nil, err
		}
		if createdBy != nil {
			v.CreatedBy = *createdBy
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, db.ErrNotFound
	}

	byVersion, err := s.mappings(ctx, []string{kpiID})
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Mappings = byVersion[versionKey{kpiID, out[i].Number}]
	}
	return out, nil
}

func (s *Store) currentSelect() sq.SelectBuilder {
	return s.sq.Select(currentColumns...).
		From("kpis k").
		Join("kpi_versions v ON v.kpi_id = k.id AND v.version_number = (SELECT MAX(version_number) FROM kpi_versions WHERE kpi_id = k.id)").
		Join("kras kr ON kr.id = v.kra_id")
}

func (s *Store) filtered(b sq.SelectBuilder, orgID string, filter ListFilter) sq.SelectBuilder {
	b = b.Where(sq.Eq{"k.organisation_id": orgID})
	if filter.KRAID != "" {
		b = b.Where(sq.Eq{"v.kra_id": filter.KRAID})
	}
	if filter.Status != nil {
		b = b.Where(sq.Eq{"v.status": *filter.Status})
	}
	if filter.Search != "" {
		b = b.Where(sq.ILike{"v.title": "%" + filter.Search + "%"})
	}
	if filter.DepartmentID != "" {
		b = b.Where(`EXISTS (SELECT 1 FROM kpi_version_mappings m
      WHERE m.kpi_id = v.kpi_id AND m.version_number = v.version_number AND m.department_id = ?)`, filter.DepartmentID)
	}
	return b
}

type versionKey struct {
	kpiID   string
	version int
}

// mappings loads every mapping row of the given KPIs, grouped by version and then by
// department/team in first-seen order.
func (s *Store) mappings(ctx context.Context, kpiIDs []string) (map[versionKey][]Mapping, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT kpi_id, version_number, department_id, team_id, designation_id
    FROM kpi_version_mappings
    WHERE kpi_id::text = ANY($1)
    ORDER BY kpi_id, version_number, department_id, team_id, designation_id
  `, kpiIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[versionKey][]Mapping{}
	for rows.Next() {
		var key versionKey
		var departmentID, teamID, designationID string
		if err := rows.Scan(&key.kpiID, &key.version, &departmentID, &teamID, &designationID); err != nil {
			return nil, err
		}
		list := out[key]
		if n := len(list); n > 0 && list[n-1].DepartmentID == departmentID && list[n-1].TeamID == teamID {
			list[n-1].DesignationIDs = append(list[n-1].DesignationIDs, designationID)
		} else {
			list = append(list, Mapping{DepartmentID: departmentID, TeamID: teamID, DesignationIDs: []string{designationID}})
		}
		out[key] = list
	}
	return out, rows.Err()
}

func scanKPI(row pgx.Row) (KPI, error) {
	var k KPI
	var createdBy *string
	var createdAt time.Time
	if err := row.Scan(&k.ID, &k.OrganisationID, &k.Version, &k.KRAID, &k.KRAName,
		&k.Title, &k.Description, &k.Status, &createdBy, &createdAt); err != nil {
		return KPI{}, err
	}
	if createdBy != nil {
		k.CreatedBy = *createdBy
	}
	k.CreatedAt = createdAt
	return k, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
