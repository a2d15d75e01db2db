// internal/app/features/billing/checkout.go
package billing

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v76"
	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/system/authz"
	"github.com/twennie/twennie/internal/app/system/timeouts"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Checkout handles POST /billing/checkout. Members buy one seat; leaders
// buy one seat per group slot. Group members are covered by their leader.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Sessions == nil {
		uierrors.WriteJSON(w, http.StatusServiceUnavailable, uierrors.Body{Message: "Billing is not configured."})
		return
	}
	me, _, _ := authz.UserCtx(r)

	var (
		price    string
		quantity int64 = 1
	)
	switch me.Kind {
	case models.KindMember:
		price = h.Cfg.MemberPriceID
	case models.KindLeader:
		price = h.Cfg.LeaderPriceID

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()
		l, err := h.Leaders.GetByID(ctx, me.ID)
		if errors.Is(err, mongo.ErrNoDocuments) {
			uierrors.RenderNotFound(w, r, "Account not found.")
			return
		}
		if err != nil {
			h.ErrLog.LogServerError(w, r, "load leader failed", err, "", "")
			return
		}
		if l.GroupSize > 0 {
			quantity = int64(l.GroupSize)
		}
	default:
		uierrors.RenderForbidden(w, r, "Group members are covered by their leader's subscription.")
		return
	}

	base := strings.TrimRight(h.Cfg.BaseURL, "/")
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(price),
			Quantity: stripe.Int64(quantity),
		}},
		ClientReferenceID: stripe.String(me.String()),
		SuccessURL:        stripe.String(base + "/dashboard?checkout=success"),
		CancelURL:         stripe.String(base + "/dashboard?checkout=cancelled"),
	}
	if email := authz.Email(r); email != "" {
		params.CustomerEmail = stripe.String(email)
	}

	cs, err := h.Sessions.New(params)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create checkout session failed", err, "Payment could not be started.", "")
		return
	}
	h.Log.Info("checkout started",
		zap.String("identity", me.String()),
		zap.Int64("quantity", quantity),
		zap.String("session_id", cs.ID))
	uierrors.WriteJSON(w, http.StatusOK, map[string]string{"url": cs.URL})
}
