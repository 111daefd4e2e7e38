// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/types"
	"github.com/okian/rollcall/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	UploadDependencies
	LedgerDependencies
}

// UploadDependencies submits uploads and reports their progress.
type UploadDependencies interface {
	// Submit queues an upload; duplicate is true when its session was already submitted.
	Submit(ctx context.Context, up model.Upload) (st types.UploadStatus, duplicate bool, err error)
	Job(ctx context.Context, id string) (types.UploadStatus, error)
}

// LedgerDependencies exposes the read views of the ledger.
type LedgerDependencies interface {
	Ghosts(ctx context.Context) ([]types.GhostPlayer, error)
	EventDetail(ctx context.Context, eventName, day string) (types.EventDetail, error)
	TopPlayers(ctx context.Context, limit int) ([]types.TopPlayer, error)
	Verification(ctx context.Context) (types.VerificationStats, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	uploadsHandler *UploadsHandler
	ledgerHandler  *LedgerHandler
	log            logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		uploadsHandler: NewUploadsHandler(deps, o.maxUploadBytes),
		ledgerHandler:  NewLedgerHandler(deps, o.maxLimit),
		log:            o.log,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	routes := []struct {
		path, endpoint string
		h              http.HandlerFunc
	}{
		{"/healthz", "healthz", s.healthHandler.HandleHealth},
		{"/stats", "stats", s.statsHandler.HandleStats},
		{"/uploads", "uploads", s.uploadsHandler.HandlePostUpload},
		{"/uploads/", "upload", s.uploadsHandler.HandleGetUpload},
		{"/ghosts", "ghosts", s.ledgerHandler.HandleGhosts},
		{"/events", "events", s.ledgerHandler.HandleEventDetail},
		{"/players/top", "top_players", s.ledgerHandler.HandleTopPlayers},
		{"/verification", "verification", s.ledgerHandler.HandleVerification},
	}
	for _, rt := range routes {
		mux.HandleFunc(rt.path, instrument(rt.h, rt.endpoint, s.log))
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
