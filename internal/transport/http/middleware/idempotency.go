package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"perfhub/internal/transport/http/api"
)

const IdempotencyKeyHeader = "Idempotency-Key"

var ErrIdempotencyConflict = errors.New("idempotency key conflicts with existing request")

// IdempotencyKeys remembers the response given to a keyed request.
type IdempotencyKeys interface {
	Check(ctx context.Context, orgID, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error)
	Save(ctx context.Context, orgID, userID, endpoint, key, requestHash string, response json.RawMessage) error
}

type IdempotencyStore struct {
	db *pgxpool.Pool
}

func NewIdempotencyStore(db *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (s *IdempotencyStore) Check(ctx context.Context, orgID, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, nil
	}
	var storedHash string
	var stored json.RawMessage
	err := s.db.QueryRow(ctx, `
    SELECT request_hash, response_json
    FROM idempotency_keys
    WHERE organisation_id = $1 AND user_id = $2 AND key = $3 AND endpoint = $4
  `, orgID, userID, key, endpoint).Scan(&storedHash, &stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if storedHash != requestHash {
		return nil, false, ErrIdempotencyConflict
	}
	return stored, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, orgID, userID, endpoint, key, requestHash string, response json.RawMessage) error {
	if s == nil || s.db == nil {
		return nil
	}
	tag, err := s.db.Exec(ctx, `
    INSERT INTO idempotency_keys (organisation_id, user_id, key, endpoint, request_hash, response_json)
    VALUES ($1, $2, $3, $4, $5, $6)
    ON CONFLICT (organisation_id, user_id, key, endpoint)
    DO UPDATE SET response_json = EXCLUDED.response_json
    WHERE idempotency_keys.request_hash = EXCLUDED.request_hash
  `, orgID, userID, key, endpoint, requestHash, response)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

type storedResponse struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    []byte            `json:"body"`
}

var replayedHeaders = []string{"Content-Type", "Content-Disposition", "Content-Length", "X-Message"}

type responseCapture struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (c *responseCapture) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(p []byte) (int, error) {
	c.body.Write(p)
	return c.ResponseWriter.Write(p)
}

// Idempotent replays the stored response when a caller repeats an Idempotency-Key
// with the same body, and refuses a reused key with a different body. Requests
// without the header pass straight through. Server errors are never stored.
func Idempotent(endpoint string, keys IdempotencyKeys) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			user, ok := GetUser(r.Context())
			if key == "" || keys == nil || !ok {
				next.ServeHTTP(w, r)
				return
			}
			requestID := GetRequestID(r.Context())

			body, err := io.ReadAll(r.Body)
			if err != nil {
				api.Fail(w, http.StatusBadRequest, "invalid_payload", "unable to read request body", requestID)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			hash := RequestHash(withoutBoundary(r.Header.Get("Content-Type"), body))

			stored, found, err := keys.Check(r.Context(), user.OrganisationID, user.UserID, endpoint, key, hash)
			switch {
			case errors.Is(err, ErrIdempotencyConflict):
				api.Fail(w, http.StatusConflict, "idempotency_conflict", "Idempotency-Key was already used for a different request", requestID)
				return
			case err != nil:
				slog.Error("idempotency check failed", "endpoint", endpoint, "organisationId", user.OrganisationID, "err", err)
			case found:
				if replay(w, stored) {
					return
				}
				slog.Warn("idempotency replay unreadable", "endpoint", endpoint, "organisationId", user.OrganisationID)
			}

			capture := &responseCapture{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(capture, r)
			if capture.status >= http.StatusInternalServerError {
				return
			}

			saved := storedResponse{Status: capture.status, Headers: map[string]string{}, Body: capture.body.Bytes()}
			for _, name := range replayedHeaders {
				if v := w.Header().Get(name); v != "" {
					saved.Headers[name] = v
				}
			}
			encoded, err := json.Marshal(saved)
			if err != nil {
				slog.Error("idempotency response marshal failed", "endpoint", endpoint, "err", err)
				return
			}
			if err := keys.Save(r.Context(), user.OrganisationID, user.UserID, endpoint, key, hash, encoded); err != nil {
				slog.Error("idempotency save failed", "endpoint", endpoint, "organisationId", user.OrganisationID, "err", err)
			}
		})
	}
}

func replay(w http.ResponseWriter, stored json.RawMessage) bool {
	var saved storedResponse
	if err := json.Unmarshal(stored, &saved); err != nil || saved.Status == 0 {
		return false
	}
	for name, v := range saved.Headers {
		w.Header().Set(name, v)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(saved.Status)
	if _, err := w.Write(saved.Body); err != nil {
		slog.Warn("idempotency replay write failed", "err", err)
	}
	return true
}

// withoutBoundary drops the multipart boundary, which differs on every retry of the
// same upload.
func withoutBoundary(contentType string, body []byte) []byte {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil || params["boundary"] == "" {
		return body
	}
	return bytes.ReplaceAll(body, []byte(params["boundary"]), nil)
}
