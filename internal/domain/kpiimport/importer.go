package kpiimport

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"perfhub/internal/domain/audit"
	"perfhub/internal/domain/kpi"
)

// Creator persists one validated KPI.
type Creator interface {
	CreateValidated(ctx context.Context, orgID, actorID string, in kpi.Input) (kpi.KPI, error)
}

type Auditor interface {
	Record(ctx context.Context, e audit.Entry) error
}

// Observer is told how each upload ended.
type Observer interface {
	ImportFinished(outcome string, created, failed int)
}

// ErrorKPI is a rejected row: its values as uploaded and every problem found.
type ErrorKPI struct {
	Line   int      `json:"line"`
	Values []string `json:"values"`
	Errors string   `json:"errors"`
}

type Created struct {
	Line  int    `json:"line"`
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Result struct {
	Outcome    Outcome    `json:"outcome"`
	FileCount  int        `json:"fileCount"`
	ErrorCount int        `json:"errorCount"`
	Created    []Created  `json:"created"`
	Errors     []ErrorKPI `json:"errors"`
}

type Importer struct {
	lookups  Lookups
	creator  Creator
	auditor  Auditor
	observer Observer
}

func NewImporter(lookups Lookups, creator Creator, auditor Auditor) *Importer {
	return &Importer{lookups: lookups, creator: creator, auditor: auditor}
}

func (im *Importer) WithObserver(o Observer) *Importer {
	im.observer = o
	return im
}

// Import validates every row of data and creates each valid row as soon as it passes.
// Rows are independent: a row that fails validation or cannot be stored becomes an
// error row and the rest of the file still runs. Empty, oversized and unparseable
// files are refused whole with a *RejectionError.
func (im *Importer) Import(ctx context.Context, orgID, actorID string, data []byte) (Result, error) {
	rows, err := ParseFile(data)
	if err != nil {
		im.finish(Result{Outcome: OutcomeMalformed})
		return Result{Outcome: OutcomeMalformed}, err
	}

	res := Result{FileCount: len(rows)}
	switch {
	case len(rows) == 0:
		res.Outcome = OutcomeEmpty
		im.finish(res)
		return res, &RejectionError{Outcome: OutcomeEmpty}
	case len(rows) > MaxRows:
		res.Outcome = OutcomeOverLimit
		im.finish(res)
		return res, &RejectionError{Outcome: OutcomeOverLimit}
	}

	validator := NewValidator(im.lookups, orgID)
	for _, row := range rows {
		in, problems, err := validator.ValidateRow(ctx, row)
		if err != nil {
			slog.Error("kpi import row lookup failed", "organisationId", orgID, "line", row.Line, "err", err)
			problems = append(problems, msgRowNotSaved)
		}
		if len(problems) == 0 {
			created, err := im.creator.CreateValidated(ctx, orgID, actorID, in)
			switch {
			case errors.Is(err, kpi.ErrDuplicateData):
				problems = append(problems, msgDuplicateData)
			case err != nil:
				slog.Error("kpi import row create failed", "organisationId", orgID, "line", row.Line, "err", err)
				problems = append(problems, msgRowNotSaved)
			default:
				res.Created = append(res.Created, Created{Line: row.Line, ID: created.ID, Title: created.Title})
				continue
			}
		}
		res.Errors = append(res.Errors, ErrorKPI{Line: row.Line, Values: row.Values(), Errors: strings.Join(problems, ", ")})
	}

	res.ErrorCount = len(res.Errors)
	switch {
	case res.ErrorCount == 0:
		res.Outcome = OutcomeAllSucceeded
	case res.ErrorCount == res.FileCount:
		res.Outcome = OutcomeAllFailed
	default:
		res.Outcome = OutcomePartial
	}

	im.record(ctx, orgID, actorID, res)
	im.finish(res)
	return res, nil
}

func (im *Importer) record(ctx context.Context, orgID, actorID string, res Result) {
	if im.auditor == nil {
		return
	}
	err := im.auditor.Record(ctx, audit.Entry{
		OrganisationID: orgID,
		ActorID:        actorID,
		Action:         audit.ActionKPIImport,
		EntityType:     kpi.EntityType,
		EntityID:       string(res.Outcome),
		After: map[string]any{
			"fileCount":  res.FileCount,
			"errorCount": res.ErrorCount,
			"created":    len(res.Created),
		},
	})
	if err != nil {
		slog.Warn("kpi import audit failed", "organisationId", orgID, "err", err)
	}
}

func (im *Importer) finish(res Result) {
	if im.observer != nil {
		im.observer.ImportFinished(string(res.Outcome), len(res.Created), res.ErrorCount)
	}
}
