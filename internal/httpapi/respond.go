package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	goSession "github.com/MrEthical07/goSession"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed_request"})
		return false
	}
	return true
}

var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{goSession.ErrInvalidCode, http.StatusBadRequest, "invalid_code"},
	{goSession.ErrInvalidEmail, http.StatusBadRequest, "invalid_email"},
	{goSession.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{goSession.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{goSession.ErrPasswordPolicy, http.StatusUnprocessableEntity, "password_policy"},
	{goSession.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
	{goSession.ErrDeliveryFailed, http.StatusBadGateway, "delivery_failed"},
	{goSession.ErrStorageUnavailable, http.StatusServiceUnavailable, "unavailable"},
	{goSession.ErrEngineClosed, http.StatusServiceUnavailable, "unavailable"},
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			if e.status >= http.StatusInternalServerError {
				hlog.FromRequest(r).Error().Err(err).Msg("request failed")
			}
			writeJSON(w, e.status, errorBody{Error: e.code})
			return
		}
	}
	hlog.FromRequest(r).Error().Err(err).Msg("unexpected error")
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal_error"})
}
