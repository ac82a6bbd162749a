// Package httpapi writes the JSON bodies of the org chart API.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
)

const contentTypeJSON = "application/json; charset=utf-8"

// ErrorEnvelope is the body of every non-2xx API response:
//
//	{"code": "ORGCHART_CYCLE_REJECTED", "message": "...", "meta": {"request_id": "..."}}
type ErrorEnvelope struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// WriteJSON encodes payload with the given status. HTML escaping is off so
// names like "R&D" reach clients unchanged. A nil payload or a 204 writes no body.
func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	h := w.Header()
	h.Set("Content-Type", contentTypeJSON)
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if payload == nil || status == http.StatusNoContent {
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(payload)
}

// WriteError writes an ErrorEnvelope. An empty code or message is derived
// from the status, e.g. 404 becomes NOT_FOUND / "not found".
func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	text := http.StatusText(status)
	if code == "" {
		code = strings.ToUpper(strings.NewReplacer(" ", "_", "-", "_", "'", "").Replace(text))
	}
	if message == "" {
		message = strings.ToLower(text)
	}
	return WriteJSON(w, status, &ErrorEnvelope{Code: code, Message: message, Meta: meta})
}

// RequestMeta builds the meta block of an envelope from the request id and
// extra key/value pairs. A trailing key without a value is dropped.
func RequestMeta(requestID string, pairs ...string) map[string]string {
	if requestID == "" && len(pairs) < 2 {
		return nil
	}
	meta := make(map[string]string, 1+len(pairs)/2)
	if requestID != "" {
		meta["request_id"] = requestID
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		meta[pairs[i]] = pairs[i+1]
	}
	return meta
}
