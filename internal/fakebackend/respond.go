package fakebackend

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-tareas-client/apiclient"
)

func (b *Backend) writeEnvelope(w http.ResponseWriter, status int, success bool, message string, data any, fieldErrs []string) {
	raw := json.RawMessage("null")
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		raw = encoded
	}
	env := apiclient.RawEnvelope{
		Success:   success,
		Message:   message,
		Data:      &raw,
		Errors:    fieldErrs,
		Timestamp: b.stamp(),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func (b *Backend) ok(w http.ResponseWriter, message string, data any) {
	b.writeEnvelope(w, http.StatusOK, true, message, data, nil)
}

func (b *Backend) created(w http.ResponseWriter, message string, data any) {
	b.writeEnvelope(w, http.StatusCreated, true, message, data, nil)
}

func (b *Backend) fail(w http.ResponseWriter, status int, message string, fieldErrs ...string) {
	b.writeEnvelope(w, status, false, message, nil, fieldErrs)
}

func decode(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}
