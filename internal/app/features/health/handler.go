package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/twennie/twennie/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Jobs   JobLister
	Log    *zap.Logger
}

// JobLister reports the names of scheduled background jobs.
type JobLister interface {
	JobNames() []string
}

// NewHandler constructs a health Handler with the Mongo client and logger.
// jobs may be nil.
func NewHandler(client *mongo.Client, jobs JobLister, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Jobs:   jobs,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string   `json:"status"`
	Database string   `json:"database"`
	Jobs     []string `json:"jobs,omitempty"`
	Message  string   `json:"message,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "jobs":["reconcile-completions"] }
//
// On DB failure: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	// Check database
	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	if h.Jobs != nil {
		resp.Jobs = h.Jobs.JobNames()
	}

	_ = json.NewEncoder(w).Encode(resp)
}
