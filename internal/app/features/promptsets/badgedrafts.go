// internal/app/features/promptsets/badgedrafts.go
package promptsets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/system/authz"
	"github.com/twennie/twennie/internal/app/system/htmlsanitize"
	"github.com/twennie/twennie/internal/app/system/timeouts"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// CheckBadge trims and validates a badge selection.
func CheckBadge(b models.Badge) (models.Badge, []string) {
	var problems []string
	b.Name = htmlsanitize.Plain(b.Name)
	b.Image = strings.TrimSpace(b.Image)
	if b.Name == "" {
		problems = append(problems, "badge name is required")
	}
	switch {
	case b.Image == "":
		problems = append(problems, "badge image is required")
	case !strings.HasPrefix(b.Image, "/") && !strings.HasPrefix(b.Image, "https://"):
		problems = append(problems, "badge image must be a site path or https URL")
	}
	return b, problems
}

// CreateDraft handles POST /promptsets/badge-drafts. The returned token
// is passed to the prompt-set form in place of a session value.
func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	id, _, _ := authz.UserCtx(r)

	var body models.Badge
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		uierrors.RenderBadRequest(w, r, "Request body must be JSON.", nil)
		return
	}
	badge, problems := CheckBadge(body)
	if len(problems) > 0 {
		uierrors.RenderBadRequest(w, r, "", problems)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := h.Lifecycle.Drafts.Create(ctx, id, badge, h.DraftTTL)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create badge draft failed", err, "", "")
		return
	}
	uierrors.WriteJSON(w, http.StatusCreated, d)
}

// GetDraft handles GET /promptsets/badge-drafts/{token}.
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	id, _, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := h.Lifecycle.Drafts.Get(ctx, id, chi.URLParam(r, "token"))
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "Badge selection expired or not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load badge draft failed", err, "", "")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, d)
}
