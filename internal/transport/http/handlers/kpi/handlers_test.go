package kpihandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"perfhub/internal/domain/auth"
	"perfhub/internal/domain/kpi"
	"perfhub/internal/domain/kpiimport"
	"perfhub/internal/domain/org"
	"perfhub/internal/transport/http/middleware"
)

type allowAll struct{}

func (allowAll) HasPermission(context.Context, string, string) (bool, error) { return true, nil }

type fakeService struct {
	createErr error
	edited    string
}

func (f *fakeService) Create(_ context.Context, orgID, actorID string, in kpi.Input) (kpi.KPI, error) {
	if f.createErr != nil {
		return kpi.KPI{}, f.createErr
	}
	return kpi.KPI{ID: "k1", OrganisationID: orgID, Version: 1, Title: in.Title}, nil
}

func (f *fakeService) Edit(_ context.Context, _, _, kpiID string, in kpi.Input) (kpi.KPI, error) {
	f.edited = kpiID
	return kpi.KPI{ID: kpiID, Version: 2, Title: in.Title}, nil
}

func (f *fakeService) Get(_ context.Context, _, kpiID string) (kpi.KPI, error) {
	if kpiID == "missing" {
		return kpi.KPI{}, kpi.ErrNotFound
	}
	return kpi.KPI{ID: kpiID}, nil
}

func (f *fakeService) List(context.Context, string, kpi.ListFilter) ([]kpi.KPI, int, error) {
	return []kpi.KPI{{ID: "k1"}}, 7, nil
}

func (f *fakeService) Versions(context.Context, string, string) ([]kpi.Version, error) {
	return []kpi.Version{{Number: 1}, {Number: 2}}, nil
}

type fakeImporter struct {
	res  kpiimport.Result
	err  error
	data []byte
}

func (f *fakeImporter) Import(_ context.Context, _, _ string, data []byte) (kpiimport.Result, error) {
	f.data = data
	return f.res, f.err
}

func newRouter(svc KPIService, im Importer) http.Handler {
	return newKeyedRouter(svc, im, nil)
}

func newKeyedRouter(svc KPIService, im Importer, keys middleware.IdempotencyKeys) http.Handler {
	h := NewHandler(svc, im, allowAll{}, keys, 1<<20)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithUser(r.Context(), auth.UserContext{UserID: "u1", OrganisationID: "o1", RoleID: "r1"})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	h.RegisterRoutes(r)
	return r
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(uploadField, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/kpis/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestImportResponses(t *testing.T) {
	tests := []struct {
		name        string
		res         kpiimport.Result
		err         error
		wantCode    int
		wantType    string
		wantMessage string
	}{
		{
			name:        "all rows created",
			res:         kpiimport.Result{Outcome: kpiimport.OutcomeAllSucceeded, FileCount: 2, Created: []kpiimport.Created{{Line: 2, ID: "a"}, {Line: 3, ID: "b"}}},
			wantCode:    http.StatusCreated,
			wantType:    "text/csv",
			wantMessage: "2 KPIs added successfully.",
		},
		{
			name:        "partial success",
			res:         kpiimport.Result{Outcome: kpiimport.OutcomePartial, FileCount: 2, ErrorCount: 1, Errors: []kpiimport.ErrorKPI{{Line: 2, Values: []string{"Comm"}, Errors: "Invalid KRA"}}},
			wantCode:    http.StatusOK,
			wantType:    "text/csv",
			wantMessage: "1 KPI added successfully, 1 KPI failed. Download the error file for details.",
		},
		{
			name:     "every row failed",
			res:      kpiimport.Result{Outcome: kpiimport.OutcomeAllFailed, FileCount: 1, ErrorCount: 1, Errors: []kpiimport.ErrorKPI{{Line: 2}}},
			wantCode: http.StatusUnprocessableEntity,
			wantType: "text/csv",
		},
		{
			name:        "malformed file",
			err:         &kpiimport.RejectionError{Outcome: kpiimport.OutcomeMalformed},
			wantCode:    http.StatusBadRequest,
			wantType:    "text/csv",
			wantMessage: kpiimport.MessageMalformed,
		},
		{
			name:        "too many rows",
			err:         &kpiimport.RejectionError{Outcome: kpiimport.OutcomeOverLimit},
			wantCode:    http.StatusBadRequest,
			wantType:    "text/csv",
			wantMessage: kpiimport.MessageOverLimit,
		},
		{
			name:        "nothing to import",
			err:         &kpiimport.RejectionError{Outcome: kpiimport.OutcomeEmpty},
			wantCode:    http.StatusBadRequest,
			wantType:    "text/csv",
			wantMessage: kpiimport.MessageEmpty,
		},
		{
			name:     "store failure",
			err:      errors.New("connection reset"),
			wantCode: http.StatusInternalServerError,
			wantType: "application/json",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			im := &fakeImporter{res: tc.res, err: tc.err}
			rec := httptest.NewRecorder()
			newRouter(&fakeService{}, im).ServeHTTP(rec, uploadRequest(t, "kpis.csv", "KRA,KPI Title\n"))

			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d: %s", tc.wantCode, rec.Code, rec.Body.String())
			}
			if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, tc.wantType) {
				t.Fatalf("expected content type %s, got %s", tc.wantType, got)
			}
			if tc.wantMessage != "" && rec.Header().Get("X-Message") != tc.wantMessage {
				t.Fatalf("expected message %q, got %q", tc.wantMessage, rec.Header().Get("X-Message"))
			}
			if string(im.data) != "KRA,KPI Title\n" {
				t.Fatalf("importer did not receive the uploaded bytes: %q", im.data)
			}
		})
	}
}

type activeLookups struct{}

func (activeLookups) ref(name string) (org.Ref, error) {
	return org.Ref{ID: strings.ToLower(name), Exists: true, Active: true}, nil
}

func (l activeLookups) KRA(_ context.Context, _, name string) (org.Ref, error) { return l.ref(name) }

func (l activeLookups) Department(_ context.Context, _, name string) (org.Ref, error) {
	return l.ref(name)
}

func (l activeLookups) Team(_ context.Context, _, _, name string) (org.Ref, error) { return l.ref(name) }

func (l activeLookups) Designation(_ context.Context, _, _, name string) (org.Ref, error) {
	return l.ref(name)
}

// flakyCreator fails the create call numbered failOn and accepts the rest.
type flakyCreator struct {
	failOn int
	calls  []string
}

func (c *flakyCreator) CreateValidated(_ context.Context, _, _ string, in kpi.Input) (kpi.KPI, error) {
	c.calls = append(c.calls, in.Title)
	if len(c.calls) == c.failOn {
		return kpi.KPI{}, errors.New("connection reset by peer")
	}
	return kpi.KPI{ID: "k" + strconv.Itoa(len(c.calls)), Title: in.Title}, nil
}

func TestImportStoreFailureReturnsErrorFile(t *testing.T) {
	description := "Shares a written status update with stakeholders every week."
	upload := strings.Join(kpiimport.Header, ",") + "\n" +
		"Delivery,Weekly updates," + description + ",Yes,Engineering [Platform (Lead)]\n" +
		"Delivery,Design reviews," + description + ",Yes,Engineering [Platform (Lead)]\n" +
		"Delivery,Release notes," + description + ",Yes,Engineering [Platform (Lead)]\n"
	creator := &flakyCreator{failOn: 2}
	im := kpiimport.NewImporter(activeLookups{}, creator, nil)

	rec := httptest.NewRecorder()
	newRouter(&fakeService{}, im).ServeHTTP(rec, uploadRequest(t, "kpis.csv", upload))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
		t.Fatalf("expected an error file, got %s", got)
	}
	if got := rec.Header().Get("X-Message"); got != "2 KPIs added successfully, 1 KPI failed. Download the error file for details." {
		t.Fatalf("unexpected message %q", got)
	}
	if !strings.Contains(rec.Body.String(), "Design reviews") || strings.Contains(rec.Body.String(), "Release notes") {
		t.Fatalf("error file should list only the failed row: %s", rec.Body.String())
	}
	if len(creator.calls) != 3 {
		t.Fatalf("rows after the failure must still be created, got %v", creator.calls)
	}
}

type memoryKeys map[string]string

func (m memoryKeys) Check(_ context.Context, orgID, userID, endpoint, key, hash string) (json.RawMessage, bool, error) {
	stored, ok := m[orgID+userID+endpoint+key]
	if !ok {
		return nil, false, nil
	}
	saved := strings.SplitN(stored, "|", 2)
	if saved[0] != hash {
		return nil, false, middleware.ErrIdempotencyConflict
	}
	return json.RawMessage(saved[1]), true, nil
}

func (m memoryKeys) Save(_ context.Context, orgID, userID, endpoint, key, hash string, response json.RawMessage) error {
	m[orgID+userID+endpoint+key] = hash + "|" + string(response)
	return nil
}

func TestImportRetryWithSameKeyIsReplayed(t *testing.T) {
	im := &fakeImporter{res: kpiimport.Result{Outcome: kpiimport.OutcomeAllSucceeded, FileCount: 1, Created: []kpiimport.Created{{Line: 2, ID: "a"}}}}
	router := newKeyedRouter(&fakeService{}, im, memoryKeys{})

	var bodies []string
	for i := 0; i < 2; i++ {
		req := uploadRequest(t, "kpis.csv", "KRA,KPI Title\n")
		req.Header.Set(middleware.IdempotencyKeyHeader, "upload-7")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated || rec.Header().Get("X-Message") != "1 KPI added successfully." {
			t.Fatalf("attempt %d: unexpected response %d %q", i+1, rec.Code, rec.Header().Get("X-Message"))
		}
		bodies = append(bodies, rec.Body.String())
		im.res = kpiimport.Result{}
	}
	if bodies[0] != bodies[1] {
		t.Fatalf("retry returned a different file:\n%s\n%s", bodies[0], bodies[1])
	}
}

func TestCreateRetryWithSameKeyCreatesOnce(t *testing.T) {
	svc := &countingService{}
	router := newKeyedRouter(svc, &fakeImporter{}, memoryKeys{})
	body := `{"kraId":"kra-1","title":"Weekly updates","description":"d","status":true,"mappings":[{"departmentId":"d1","teamId":"t1","designationIds":["x1"]}]}`

	send := func(payload string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/kpis", strings.NewReader(payload))
		req.Header.Set(middleware.IdempotencyKeyHeader, "create-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	if rec := send(body); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := send(body); rec.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := send(strings.Replace(body, "Weekly updates", "Design reviews", 1)); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a reused key, got %d", rec.Code)
	}
	if svc.creates != 1 {
		t.Fatalf("expected one create, got %d", svc.creates)
	}
}

type countingService struct {
	fakeService
	creates int
}

func (c *countingService) Create(ctx context.Context, orgID, actorID string, in kpi.Input) (kpi.KPI, error) {
	c.creates++
	return c.fakeService.Create(ctx, orgID, actorID, in)
}

func TestImportRejectsNonCSVFile(t *testing.T) {
	im := &fakeImporter{}
	rec := httptest.NewRecorder()
	newRouter(&fakeService{}, im).ServeHTTP(rec, uploadRequest(t, "kpis.xlsx", "data"))

	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "invalid_file") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if im.data != nil {
		t.Fatal("importer must not run for a rejected file")
	}
}

func TestTemplateDownload(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&fakeService{}, &fakeImporter{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/kpis/import/template", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "KRA,KPI Title,KPI Description,Status,Department 1") {
		t.Fatalf("unexpected template header: %s", rec.Body.String())
	}
}

func TestCreateMapsConflict(t *testing.T) {
	svc := &fakeService{createErr: &kpi.ConflictError{Constraint: "kpi_version_mappings_unique_mapping"}}
	body := `{"kraId":"kra-1","title":"Weekly updates","description":"d","status":true,"mappings":[{"departmentId":"d1","teamId":"t1","designationIds":["x1"]}]}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/kpis", strings.NewReader(body))
	newRouter(svc, &fakeImporter{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict || !strings.Contains(rec.Body.String(), "duplicate_data") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestCreateRejectsMissingMappings(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/kpis", strings.NewReader(`{"kraId":"kra-1","title":"Weekly updates","description":"d"}`))
	newRouter(&fakeService{}, &fakeImporter{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "validation_error") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestListAndGet(t *testing.T) {
	router := newRouter(&fakeService{}, &fakeImporter{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/kpis?status=true&limit=10", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("X-Total-Count") != "7" {
		t.Fatalf("unexpected list response %d total=%s", rec.Code, rec.Header().Get("X-Total-Count"))
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/kpis?status=maybe", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad status filter, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/kpis/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
