package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	"perfhub/internal/platform/validation"
	"perfhub/internal/transport/http/api"
)

// DecodeAndValidate decodes a JSON body into dst and runs its validate tags. It writes
// the failure response itself and reports false when the handler should stop.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dst any, requestID string) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return false
	}
	err := validation.ValidateStruct(dst)
	if err == nil {
		return true
	}
	var verr *validation.ValidationError
	if !errors.As(err, &verr) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return false
	}
	v := NewValidator()
	for _, f := range verr.Fields {
		v.Add(f.Field, f.Reason)
	}
	return !v.Reject(w, requestID)
}
