package common

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// MaxBodyBytes bounds every JSON request body
const MaxBodyBytes = 64 << 10

// ErrEmptyBody is returned by ParseJSONBody when a body is required but absent
var ErrEmptyBody = errors.New("request body is empty")

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// ParseJSONBody parses a JSON request body with a size limit. Unknown
// fields are rejected.
func ParseJSONBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}
	return nil
}

// ParseOptionalJSONBody is ParseJSONBody for routes where the body may be
// omitted entirely
func ParseOptionalJSONBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := ParseJSONBody(w, r, v); err != nil && !errors.Is(err, ErrEmptyBody) {
		return err
	}
	return nil
}
