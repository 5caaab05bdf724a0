//go:build integration

package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"perfhub/internal/app/seed"
	"perfhub/internal/app/server"
	"perfhub/internal/platform/clock"
	"perfhub/internal/platform/config"
)

const (
	adminEmail    = "admin@perfhub.test"
	adminPassword = "change-me-please"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type client struct {
	t     *testing.T
	base  string
	token string
}

func migrationsPath(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")
}

func startDatabase(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:17"),
		postgres.WithDatabase("perfhub"),
		postgres.WithUsername("perfhub"),
		postgres.WithPassword("perfhub"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migrate.New("file://"+migrationsPath(t), connStr)
	require.NoError(t, err)
	require.NoError(t, m.Up())
	srcErr, dbErr := m.Close()
	require.NoError(t, srcErr)
	require.NoError(t, dbErr)

	return connStr
}

func newServer(t *testing.T, now time.Time) *client {
	t.Helper()
	ctx := context.Background()
	connStr := startDatabase(t)

	cfg := config.Config{
		DatabaseURL:              connStr,
		JWTSecret:                "integration-secret-integration-secret",
		Environment:              config.EnvDevelopment,
		SeedOrganisationName:     "Acme",
		SeedOrganisationTimeZone: "UTC",
		SeedAdminEmail:           adminEmail,
		SeedAdminPassword:        adminPassword,
		EmailFrom:                "no-reply@perfhub.test",
		MaxBodyBytes:             1 << 20,
		MaxUploadBytes:           5 << 20,
		RateLimitPerMinute:       1000,
		ReminderTick:             time.Hour,
		ReminderHour:             9,
		BroadcastWeekday:         1,
		BroadcastHour:            10,
	}

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	require.NoError(t, seed.Run(ctx, pool, cfg))

	app := server.NewWithPool(pool, cfg, clock.Fixed(now))
	srv := httptest.NewServer(app.Router)
	t.Cleanup(func() {
		srv.Close()
		app.Close()
	})

	c := &client{t: t, base: srv.URL + "/api/v1"}
	var session struct {
		Token string `json:"token"`
	}
	c.decode(c.do(http.MethodPost, "/auth/login", map[string]string{"email": adminEmail, "password": adminPassword}), http.StatusOK, &session)
	require.NotEmpty(t, session.Token)
	c.token = session.Token
	return c
}

func (c *client) send(req *http.Request) *http.Response {
	c.t.Helper()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func (c *client) do(method, path string, body any) *http.Response {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req)
}

func (c *client) upload(path, name string, data []byte) *http.Response {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(c.t, err)
	_, err = part.Write(data)
	require.NoError(c.t, err)
	require.NoError(c.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, c.base+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.send(req)
}

func (c *client) decode(res *http.Response, status int, out any) {
	c.t.Helper()
	raw, err := io.ReadAll(res.Body)
	require.NoError(c.t, err)
	require.Equal(c.t, status, res.StatusCode, string(raw))
	if out == nil {
		return
	}
	var env envelope
	require.NoError(c.t, json.Unmarshal(raw, &env))
	require.True(c.t, env.Success, string(raw))
	require.NoError(c.t, json.Unmarshal(env.Data, out))
}

func (c *client) createUnit(kind, parentID, name string) string {
	c.t.Helper()
	var unit struct {
		ID string `json:"id"`
	}
	c.decode(c.do(http.MethodPost, "/organisation/"+kind, map[string]string{"name": name, "parentId": parentID}), http.StatusCreated, &unit)
	require.NotEmpty(c.t, unit.ID)
	return unit.ID
}

func TestPerformanceSetupJourney(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	c := newServer(t, time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC))

	departmentID := c.createUnit("departments", "", "Engineering")
	teamID := c.createUnit("teams", departmentID, "Platform")
	c.createUnit("designations", teamID, "Backend Engineer")
	c.createUnit("kras", "", "Communication")

	description := strings.Repeat("Shares progress with the team every week. ", 2)
	upload := fmt.Sprintf("KRA,KPI Title,KPI Description,Status,Department 1\n"+
		"Comm,Weekly updates,%[1]s,Yes,Engineering [Platform (Backend Engineer)]\n"+
		"Communication,Weekly updates,%[1]s,Yes,Engineering [Platform (Backend Engineer)]\n", description)

	res := c.upload("/kpis/import", "kpis.csv", []byte(upload))
	report, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode, string(report))
	require.Equal(t, "1 KPI added successfully, 1 KPI failed. Download the error file for details.", res.Header.Get("X-Message"))
	require.Contains(t, string(report), "KRA Comm not found")

	var kpis []struct {
		ID          string `json:"id"`
		KRAID       string `json:"kraId"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Status      bool   `json:"status"`
		Mappings    []struct {
			DepartmentID   string   `json:"departmentId"`
			TeamID         string   `json:"teamId"`
			DesignationIDs []string `json:"designationIds"`
		} `json:"mappings"`
	}
	list := c.do(http.MethodGet, "/kpis", nil)
	require.Equal(t, "1", list.Header.Get("X-Total-Count"))
	c.decode(list, http.StatusOK, &kpis)
	require.Len(t, kpis, 1)
	current := kpis[0]
	require.Len(t, current.Mappings, 1)

	edited := map[string]any{
		"kraId":       current.KRAID,
		"title":       current.Title,
		"description": description + "Includes blockers and risks.",
		"status":      current.Status,
		"mappings":    current.Mappings,
	}
	c.decode(c.do(http.MethodPut, "/kpis/"+current.ID, edited), http.StatusOK, nil)

	var versions []struct {
		Number int `json:"versionNumber"`
	}
	c.decode(c.do(http.MethodGet, "/kpis/"+current.ID+"/versions", nil), http.StatusOK, &versions)
	require.Len(t, versions, 2)

	var cycle struct {
		ID string `json:"id"`
	}
	c.decode(c.do(http.MethodPost, "/review-cycles", map[string]any{
		"name":                        "Spring 2026",
		"startDate":                   "2026-03-01",
		"endDate":                     "2026-04-30",
		"selfReviewStartDate":         "2026-03-01",
		"selfReviewEndDate":           "2026-03-10",
		"managerReviewStartDate":      "2026-03-11",
		"managerReviewEndDate":        "2026-03-20",
		"checkInWithManagerStartDate": "2026-03-21",
		"checkInWithManagerEndDate":   "2026-03-31",
	}), http.StatusCreated, &cycle)
	require.NotEmpty(t, cycle.ID)
	c.decode(c.do(http.MethodPost, "/review-cycles/"+cycle.ID+"/publish", nil), http.StatusOK, nil)

	pdf := c.do(http.MethodGet, "/review-cycles/"+cycle.ID+"/timeline.pdf", nil)
	require.Equal(t, http.StatusOK, pdf.StatusCode)
	require.Equal(t, "application/pdf", pdf.Header.Get("Content-Type"))

	var outcome struct {
		Unpublished int64 `json:"unpublished"`
	}
	c.decode(c.do(http.MethodPost, "/jobs/reminders/run", nil), http.StatusOK, &outcome)
	require.Zero(t, outcome.Unpublished)

	var runs []struct {
		JobType string `json:"jobType"`
		Status  string `json:"status"`
	}
	c.decode(c.do(http.MethodGet, "/jobs/runs", nil), http.StatusOK, &runs)
	require.NotEmpty(t, runs)
	require.Equal(t, "reminder_run", runs[0].JobType)
	require.Equal(t, "completed", runs[0].Status)
}
