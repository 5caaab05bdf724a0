package kpihandler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"perfhub/internal/domain/auth"
	"perfhub/internal/domain/kpi"
	"perfhub/internal/domain/kpiimport"
	"perfhub/internal/transport/http/api"
	"perfhub/internal/transport/http/middleware"
	"perfhub/internal/transport/http/shared"
)

const uploadField = "file"

type KPIService interface {
	Create(ctx context.Context, orgID, actorID string, in kpi.Input) (kpi.KPI, error)
	Edit(ctx context.Context, orgID, actorID, kpiID string, in kpi.Input) (kpi.KPI, error)
	Get(ctx context.Context, orgID, kpiID string) (kpi.KPI, error)
	List(ctx context.Context, orgID string, filter kpi.ListFilter) ([]kpi.KPI, int, error)
	Versions(ctx context.Context, orgID, kpiID string) ([]kpi.Version, error)
}

type Importer interface {
	Import(ctx context.Context, orgID, actorID string, data []byte) (kpiimport.Result, error)
}

type Handler struct {
	Service        KPIService
	Importer       Importer
	Perms          middleware.PermissionStore
	Idempotency    middleware.IdempotencyKeys
	MaxUploadBytes int64
}

func NewHandler(service KPIService, importer Importer, perms middleware.PermissionStore, idempotency middleware.IdempotencyKeys, maxUploadBytes int64) *Handler {
	return &Handler{Service: service, Importer: importer, Perms: perms, Idempotency: idempotency, MaxUploadBytes: maxUploadBytes}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/kpis", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermKPIRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermKPIWrite, h.Perms), middleware.Idempotent("kpi.create", h.Idempotency)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermKPIImport, h.Perms), middleware.Idempotent("kpi.import", h.Idempotency)).Post("/import", h.handleImport)
		r.With(middleware.RequirePermission(auth.PermKPIImport, h.Perms)).Get("/import/template", h.handleTemplate)
		r.With(middleware.RequirePermission(auth.PermKPIRead, h.Perms)).Get("/{kpiID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermKPIWrite, h.Perms)).Put("/{kpiID}", h.handleEdit)
		r.With(middleware.RequirePermission(auth.PermKPIRead, h.Perms)).Get("/{kpiID}/versions", h.handleVersions)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	query := r.URL.Query()
	filter := kpi.ListFilter{
		KRAID:        query.Get("kraId"),
		DepartmentID: query.Get("departmentId"),
		Search:       strings.TrimSpace(query.Get("search")),
		Limit:        page.Limit,
		Offset:       page.Offset,
	}
	if raw := query.Get("status"); raw != "" {
		status, err := strconv.ParseBool(raw)
		if err != nil {
			shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "status", Reason: "must be true or false"}})
			return
		}
		filter.Status = &status
	}

	items, total, err := h.Service.List(r.Context(), user.OrganisationID, filter)
	if err != nil {
		slog.Error("kpi list failed", "organisationId", user.OrganisationID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "kpi_list_failed", "failed to list kpis", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload kpi.Input
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}

	created, err := h.Service.Create(r.Context(), user.OrganisationID, user.UserID, payload)
	if err != nil {
		h.fail(w, r, err, "kpi_create_failed", "failed to create kpi")
		return
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	item, err := h.Service.Get(r.Context(), user.OrganisationID, chi.URLParam(r, "kpiID"))
	if err != nil {
		h.fail(w, r, err, "kpi_get_failed", "failed to load kpi")
		return
	}
	api.Success(w, item, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload kpi.Input
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}

	updated, err := h.Service.Edit(r.Context(), user.OrganisationID, user.UserID, chi.URLParam(r, "kpiID"), payload)
	if err != nil {
		h.fail(w, r, err, "kpi_update_failed", "failed to update kpi")
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleVersions(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	versions, err := h.Service.Versions(r.Context(), user.OrganisationID, chi.URLParam(r, "kpiID"))
	if err != nil {
		h.fail(w, r, err, "kpi_versions_failed", "failed to load kpi versions")
		return
	}
	api.Success(w, versions, middleware.GetRequestID(r.Context()))
}

// handleImport always answers with a file once the upload was read: the success file
// when every row was created, the error file otherwise. Uploads refused as a whole get
// a one-line error file carrying the same message as X-Message.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	data, err := h.readUpload(r)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_file", err.Error(), requestID)
		return
	}

	res, err := h.Importer.Import(r.Context(), user.OrganisationID, user.UserID, data)
	var rejected *kpiimport.RejectionError
	switch {
	case errors.As(err, &rejected):
		file := kpiimport.RejectionReport(rejected)
		api.Attachment(w, http.StatusBadRequest, file.Name, file.MimeType, file.Data, rejected.Error())
		return
	case err != nil:
		slog.Error("kpi import failed", "organisationId", user.OrganisationID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "kpi_import_failed", "failed to import kpis", requestID)
		return
	}

	status := http.StatusOK
	build := kpiimport.BuildErrorReport
	switch res.Outcome {
	case kpiimport.OutcomeAllSucceeded:
		status = http.StatusCreated
		build = kpiimport.BuildSuccessReport
	case kpiimport.OutcomeAllFailed:
		status = http.StatusUnprocessableEntity
	}
	file, err := build(res)
	if err != nil {
		slog.Error("kpi import report failed", "organisationId", user.OrganisationID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "kpi_import_failed", "failed to build import report", requestID)
		return
	}
	api.Attachment(w, status, file.Name, file.MimeType, file.Data, res.Message())
}

func (h *Handler) handleTemplate(w http.ResponseWriter, r *http.Request) {
	file := kpiimport.Template()
	api.Attachment(w, http.StatusOK, file.Name, file.MimeType, file.Data, "")
}

func (h *Handler) readUpload(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		return nil, errors.New("upload must be a multipart form with a csv file")
	}
	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return nil, errors.New("missing file field")
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		return nil, errors.New("only .csv files are supported")
	}
	return io.ReadAll(file)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	var invalid *kpi.ValidationError
	switch {
	case errors.As(err, &invalid):
		issues := make([]shared.ValidationIssue, 0, len(invalid.Problems))
		for _, p := range invalid.Problems {
			issues = append(issues, shared.ValidationIssue{Reason: p})
		}
		shared.FailValidation(w, requestID, issues)
	case errors.Is(err, kpi.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "kpi not found", requestID)
	case errors.Is(err, kpi.ErrDuplicateData):
		api.Fail(w, http.StatusConflict, "duplicate_data", "Duplicate data found", requestID)
	default:
		slog.Error(code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
