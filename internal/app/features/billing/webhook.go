// internal/app/features/billing/webhook.go
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/system/limits"
	"github.com/twennie/twennie/internal/app/system/timeouts"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Webhook handles POST /billing/webhook. Only checkout.session.completed
// changes state; other events are acknowledged and ignored.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, limits.MaxWebhookBody))
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Could not read request body.", nil)
		return
	}
	event, err := webhook.ConstructEventWithOptions(payload, r.Header.Get("Stripe-Signature"), h.Cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		h.Log.Warn("webhook signature rejected", zap.Error(err))
		uierrors.RenderBadRequest(w, r, "Invalid signature.", nil)
		return
	}

	if event.Type != "checkout.session.completed" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		uierrors.RenderBadRequest(w, r, "Malformed checkout session.", nil)
		return
	}
	id, err := models.ParseIdentity(cs.ClientReferenceID)
	if err != nil {
		h.Log.Warn("checkout without identity reference",
			zap.String("event_id", event.ID),
			zap.String("client_reference_id", cs.ClientReferenceID))
		w.WriteHeader(http.StatusOK)
		return
	}
	customerID := ""
	if cs.Customer != nil {
		customerID = cs.Customer.ID
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	switch id.Kind {
	case models.KindMember:
		err = h.Members.SetSubscription(ctx, id.ID, customerID, models.SubscriptionActive)
	case models.KindLeader:
		err = h.Leaders.SetSubscription(ctx, id.ID, customerID, models.SubscriptionActive)
	default:
		h.Log.Warn("checkout for unbillable identity", zap.String("identity", id.String()))
		w.WriteHeader(http.StatusOK)
		return
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Acknowledge so Stripe stops retrying an account that is gone.
		h.Log.Warn("checkout for unknown account", zap.String("identity", id.String()))
		w.WriteHeader(http.StatusOK)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "record subscription failed", err, "", "")
		return
	}

	h.AuditLog.SubscriptionActivated(ctx, id, customerID)
	h.Log.Info("subscription activated", zap.String("identity", id.String()), zap.String("customer_id", customerID))
	w.WriteHeader(http.StatusOK)
}
