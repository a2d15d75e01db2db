// internal/app/features/errors/render.go
package errors

import (
	"encoding/json"
	"net/http"
)

// GenericMessage is the body of every unexpected-failure response.
const GenericMessage = "An error occurred."

// Body is the JSON error shape. Errors lists individual validation
// problems when there is more than one.
type Body struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
	BackURL string   `json:"back_url,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RenderBadRequest reports validation failures.
func RenderBadRequest(w http.ResponseWriter, r *http.Request, msg string, problems []string) {
	if msg == "" {
		msg = "The request is invalid."
	}
	WriteJSON(w, http.StatusBadRequest, Body{Message: msg, Errors: problems})
}

// RenderUnauthorized reports a missing sign-in.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusUnauthorized, Body{Message: "Please sign in to continue.", BackURL: "/login"})
}

// RenderForbidden reports an authorization failure.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg string) {
	if msg == "" {
		msg = "You don't have permission to do that."
	}
	WriteJSON(w, http.StatusForbidden, Body{Message: msg})
}

// RenderNotFound reports a missing resource.
func RenderNotFound(w http.ResponseWriter, r *http.Request, msg string) {
	if msg == "" {
		msg = "Not found."
	}
	WriteJSON(w, http.StatusNotFound, Body{Message: msg})
}

// RenderConflict reports a request that lost a race or duplicates state.
func RenderConflict(w http.ResponseWriter, r *http.Request, msg string) {
	WriteJSON(w, http.StatusConflict, Body{Message: msg})
}
