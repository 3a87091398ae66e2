// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	service "github.com/nightjarlabs/trailmark/internal/app"
	"github.com/nightjarlabs/trailmark/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the engine implementation.
type Dependencies interface {
	// Ingest submits a raw event. accepted=false means backpressure.
	Ingest(ctx context.Context, ev model.InputEvent) (accepted, duplicate bool)

	// Snapshot returns the current visitor state.
	Snapshot(ctx context.Context) (service.Snapshot, error)

	// Leaderboard returns the ranked projection truncated to n.
	Leaderboard(ctx context.Context, n int) ([]model.LeaderboardEntry, error)

	// SetDisplayName records the visitor's chosen leaderboard name.
	SetDisplayName(ctx context.Context, name string) error

	// Reset wipes the visitor's progress.
	Reset(ctx context.Context) error
}

// Server wires HTTP routes for the progression API.
type Server struct {
	healthHandler      *HealthHandler
	eventsHandler      *EventsHandler
	snapshotHandler    *SnapshotHandler
	leaderboardHandler *LeaderboardHandler
	profileHandler     *ProfileHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, maxLeaderboardLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		eventsHandler:      NewEventsHandler(deps),
		snapshotHandler:    NewSnapshotHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLeaderboardLimit),
		profileHandler:     NewProfileHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/v1/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events"))
	mux.HandleFunc("/v1/snapshot", MetricsMiddleware(s.snapshotHandler.HandleGetSnapshot, "snapshot"))
	mux.HandleFunc("/v1/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/v1/name", MetricsMiddleware(s.profileHandler.HandlePostName, "name"))
	mux.HandleFunc("/v1/reset", MetricsMiddleware(s.profileHandler.HandlePostReset, "reset"))
}

// eventRequest mirrors the JSON schema for POST /v1/events.
type eventRequest struct {
	EventID string  `json:"event_id"`
	Kind    string  `json:"kind"`
	Target  string  `json:"target,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	Key     string  `json:"key,omitempty"`
	Char    string  `json:"char,omitempty"`
	TS      string  `json:"ts"`
}

func (e eventRequest) validate() error {
	switch {
	case strings.TrimSpace(e.EventID) == "":
		return errors.New("missing event_id")
	case strings.TrimSpace(e.Kind) == "":
		return errors.New("missing kind")
	case strings.TrimSpace(e.TS) == "":
		return errors.New("missing ts")
	}
	if _, err := time.Parse(time.RFC3339, e.TS); err != nil {
		return errors.New("invalid ts; must be RFC3339")
	}
	switch model.EventKind(e.Kind) {
	case model.EventClick, model.EventHoverStart, model.EventHoverEnd:
		if strings.TrimSpace(e.Target) == "" {
			return errors.New("missing target")
		}
	case model.EventKeyDown:
		if e.Key == "" {
			return errors.New("missing key")
		}
	case model.EventChar:
		if utf8.RuneCountInString(e.Char) != 1 {
			return errors.New("char must be a single character")
		}
	default:
		return errors.New("unknown kind")
	}
	return nil
}

func (e eventRequest) toModel() model.InputEvent {
	ts, _ := time.Parse(time.RFC3339, e.TS)
	return model.InputEvent{
		EventID: e.EventID,
		Kind:    model.EventKind(e.Kind),
		Target:  e.Target,
		X:       e.X,
		Y:       e.Y,
		Key:     e.Key,
		Char:    e.Char,
		TS:      ts,
	}
}

// nameRequest mirrors the JSON schema for POST /v1/name.
type nameRequest struct {
	Name string `json:"name"`
}

const maxNameLength = 32

func (n nameRequest) validate() error {
	trimmed := strings.TrimSpace(n.Name)
	if trimmed == "" {
		return errors.New("missing name")
	}
	if utf8.RuneCountInString(trimmed) > maxNameLength {
		return errors.New("name too long")
	}
	return nil
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate,omitempty"`
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
