// internal/app/features/library/topics.go
package library

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/system/timeouts"
	"github.com/twennie/twennie/internal/app/system/topics"
	"github.com/twennie/twennie/internal/domain/models"
)

type topicRow struct {
	Topic string `json:"topic"`
	Label string `json:"label"`
}

// Topics handles GET /library/topics.
func (h *Handler) Topics(w http.ResponseWriter, r *http.Request) {
	rows := make([]topicRow, 0, len(topics.All))
	for _, t := range topics.All {
		rows = append(rows, topicRow{Topic: t, Label: topics.Label(t)})
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"topics": rows})
}

// ByTopic handles GET /library/topics/{topic}: approved units of every
// library kind whose main or secondary topic matches.
func (h *Handler) ByTopic(w http.ResponseWriter, r *http.Request) {
	topic := topics.Normalize(chi.URLParam(r, "topic"))
	if !topics.Valid(topic) {
		uierrors.RenderNotFound(w, r, "Unknown topic.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Units.ListApprovedByTopic(ctx, topic)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list topic units failed", err, "", "")
		return
	}
	if rows == nil {
		rows = []models.UnitSummary{}
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{
		"topic": topicRow{Topic: topic, Label: topics.Label(topic)},
		"units": rows,
	})
}
