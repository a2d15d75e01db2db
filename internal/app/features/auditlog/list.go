// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/store/audit"
	"github.com/twennie/twennie/internal/app/system/authz"
	"github.com/twennie/twennie/internal/app/system/paging"
	"github.com/twennie/twennie/internal/app/system/timeouts"
	"github.com/twennie/twennie/internal/app/system/timezones"
	"github.com/twennie/twennie/internal/domain/models"
	"go.uber.org/zap"
)

// ServeList handles GET /activity.
//
// Query parameters: category, event_type, start_date and end_date
// (YYYY-MM-DD, interpreted in tz), tz (IANA id, default UTC), page, and
// scope ("self" or, for leaders, "group").
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	me, _, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	q := r.URL.Query()
	category := strings.TrimSpace(q.Get("category"))
	eventType := strings.TrimSpace(q.Get("event_type"))
	scope := strings.TrimSpace(q.Get("scope"))
	tz := strings.TrimSpace(q.Get("tz"))

	var problems []string
	if eventTypesForCategory(category) == nil {
		problems = append(problems, "Unknown category.")
	}
	loc, err := timezones.Resolve(tz)
	if err != nil {
		problems = append(problems, "Unknown time zone.")
		loc = time.UTC
	}
	page := paging.ParsePage(r)
	filter := audit.QueryFilter{
		Category:  category,
		EventType: eventType,
		Limit:     paging.PageSize,
		Offset:    paging.Offset(page),
	}
	if s := strings.TrimSpace(q.Get("start_date")); s != "" {
		if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
			filter.Since = &t
		} else {
			problems = append(problems, "Start date must be YYYY-MM-DD.")
		}
	}
	if s := strings.TrimSpace(q.Get("end_date")); s != "" {
		if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
			// End of day
			endOfDay := t.Add(24*time.Hour - time.Nanosecond)
			filter.Until = &endOfDay
		} else {
			problems = append(problems, "End date must be YYYY-MM-DD.")
		}
	}
	if len(problems) > 0 {
		uierrors.RenderBadRequest(w, r, "Invalid filter.", problems)
		return
	}

	switch scope {
	case "", scopeSelf:
		scope = scopeSelf
		filter.IdentityID = &me.ID
	case scopeGroup:
		if !me.IsLeader() {
			uierrors.RenderForbidden(w, r, "Only leaders can view group activity.")
			return
		}
		filter.GroupID = &me.ID
	default:
		uierrors.RenderBadRequest(w, r, "Invalid filter.", []string{"Scope must be self or group."})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "activity list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "query audit events failed", err, "A database error occurred.", "")
		return
	}
	total, err := h.Events.Count(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count audit events failed", err, "A database error occurred.", "")
		return
	}

	names := h.resolveNames(ctx, events)
	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:        e.ID.Hex(),
			Timestamp: e.Timestamp.In(loc),
			Category:  e.Category,
			EventType: e.EventType,
			IP:        e.IP,
			Success:   e.Success,
			Details:   e.Details,
		}
		if e.Identity != nil {
			item.Subject = names[*e.Identity]
		}
		if e.Actor != nil {
			item.Actor = names[*e.Actor]
		}
		items = append(items, item)
	}

	uierrors.WriteJSON(w, http.StatusOK, listResponse{
		Items:      items,
		Scope:      scope,
		Category:   category,
		EventType:  eventType,
		TimeZone:   loc.String(),
		EventTypes: eventTypesForCategory(category),
		Window:     paging.ComputeWindow(page, total),
	})
}

// resolveNames maps every identity mentioned by events to a display name.
// Accounts that are gone fall back to "kind:id".
func (h *Handler) resolveNames(ctx context.Context, events []audit.Event) map[models.Identity]string {
	names := make(map[models.Identity]string)
	add := func(id *models.Identity) {
		if id == nil {
			return
		}
		if _, done := names[*id]; done {
			return
		}
		a, err := h.Accounts.Lookup(ctx, *id)
		if err != nil {
			h.Log.Debug("audit name lookup failed", zap.String("identity", id.String()), zap.Error(err))
			names[*id] = id.String()
			return
		}
		names[*id] = a.Name
	}
	for _, e := range events {
		add(e.Identity)
		add(e.Actor)
	}
	return names
}
