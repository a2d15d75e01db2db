// internal/app/features/userinfo/handler.go
package userinfo

import (
	"net/http"

	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/system/auth"
)

// Handler serves user information for authenticated sessions.
type Handler struct{}

// NewHandler creates a new userinfo handler.
func NewHandler() *Handler {
	return &Handler{}
}

type userInfo struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	Kind            string `json:"kind"`
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
}

// ServeUserInfo returns JSON with the current session's identity. Visitors
// get isAuthenticated=false and empty fields rather than a 401, so clients
// can poll it to decide which navigation to show.
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.WriteJSON(w, http.StatusOK, userInfo{})
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, userInfo{
		IsAuthenticated: true,
		Kind:            string(user.Kind),
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
	})
}
