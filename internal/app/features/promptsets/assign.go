// internal/app/features/promptsets/assign.go
package promptsets

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/system/authz"
	"github.com/twennie/twennie/internal/app/system/inputval"
	"github.com/twennie/twennie/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type assignBody struct {
	planBody
	MemberIDs    []string `json:"member_ids" validate:"max=10,dive,objectid" label:"member_ids"`
	Instructions string   `json:"instructions" validate:"max=2000" label:"instructions"`
}

// Assign handles POST /promptsets/{id}/assign.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	leader, _, _ := authz.UserCtx(r)
	psID, ok := promptSetID(w, r)
	if !ok {
		return
	}

	var body assignBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		uierrors.RenderBadRequest(w, r, "Request body must be JSON.", nil)
		return
	}
	if res := inputval.Validate(body); res.HasErrors() {
		uierrors.RenderBadRequest(w, r, "", res.Messages())
		return
	}
	in := AssignInput{
		Leader:       leader,
		PromptSetID:  psID,
		Plan:         Plan{Frequency: body.Frequency, Target: parseDate(body.TargetCompletionDate)},
		Instructions: body.Instructions,
	}
	for _, raw := range body.MemberIDs {
		oid, _ := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
		in.MemberIDs = append(in.MemberIDs, oid)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	a, err := h.Lifecycle.Assign(ctx, in)
	if err != nil {
		h.writeErr(w, r, "assign prompt set failed", err)
		return
	}
	h.Log.Info("prompt set assigned",
		zap.String("leader_id", leader.ID.Hex()),
		zap.String("promptset_id", psID.Hex()),
		zap.Int("members", len(a.MemberIDs)))
	uierrors.WriteJSON(w, http.StatusCreated, a)
}

// LeaderAssignments handles GET /promptsets/assignments.
func (h *Handler) LeaderAssignments(w http.ResponseWriter, r *http.Request) {
	leader, _, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Lifecycle.Assignments.ListByLeader(ctx, leader.ID)
	if err != nil {
		h.writeErr(w, r, "list assignments failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"assignments": rows})
}
