package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     *Error `json:"error,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("write json failed", "err", err)
	}
}

func Success(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data, RequestID: requestID})
}

func Created(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusCreated, Envelope{Success: true, Data: data, RequestID: requestID})
}

func Fail(w http.ResponseWriter, status int, code, message, requestID string) {
	WriteJSON(w, status, Envelope{Success: false, Error: &Error{Code: code, Message: message}, RequestID: requestID})
}

type DetailedError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type detailedEnvelope struct {
	Success   bool           `json:"success"`
	Error     *DetailedError `json:"error"`
	RequestID string         `json:"requestId,omitempty"`
}

func FailWithDetails(w http.ResponseWriter, status int, code, message string, details any, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	payload := detailedEnvelope{Error: &DetailedError{Code: code, Message: message, Details: details}, RequestID: requestID}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("write json failed", "err", err)
	}
}

// Attachment writes data as a file download. message, when set, is exposed in the
// X-Message header so clients can show it without parsing the file.
func Attachment(w http.ResponseWriter, status int, filename, mimeType string, data []byte, message string) {
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if message != "" {
		w.Header().Set("X-Message", message)
	}
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("write attachment failed", "filename", filename, "err", err)
	}
}
