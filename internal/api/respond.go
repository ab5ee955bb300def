package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

type envelope map[string]any

func respond(w http.ResponseWriter, r *http.Request, status int, body envelope) {
	if body == nil {
		body = envelope{}
	}
	if _, ok := body["success"]; !ok {
		body["success"] = status < http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Failed to write response")
	}
}

func fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	respond(w, r, status, envelope{"success": false, "error": msg})
}

// internalError logs err and answers with a generic 500.
func internalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	zerolog.Ctx(r.Context()).Error().Err(err).Msg(msg)
	fail(w, r, http.StatusInternalServerError, "Internal server error")
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(v)
}
