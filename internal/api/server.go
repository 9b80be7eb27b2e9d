// Package api exposes the telemetry subsystem over HTTP and WebSocket. JSON
// field names are fixed for compatibility with the visualization client.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dronewatch/internal/airspace"
	"dronewatch/internal/playback"
	"dronewatch/internal/registry"
	"dronewatch/internal/video"
)

// Server holds the services the handlers operate on. All state lives in the
// injected collaborators; the server itself is stateless.
type Server struct {
	registry *registry.Registry
	playback *playback.Adapter // nil when no log is configured
	airspace *airspace.Service
	video    *video.Cache
	logger   *slog.Logger
}

// NewServer creates an API server around the given services. The playback
// adapter may be nil when the deployment is live-only.
func NewServer(reg *registry.Registry, pb *playback.Adapter, air *airspace.Service, vid *video.Cache, logger *slog.Logger) *Server {
	return &Server{
		registry: reg,
		playback: pb,
		airspace: air,
		video:    vid,
		logger:   logger,
	}
}

// Router builds the HTTP route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)

	r.Post("/api/drones/register", s.handleRegister)
	r.Delete("/api/drones/{drone_id}", s.handleUnregister)

	r.Post("/api/telemetry/live/update", s.handleUpdate)
	r.Get("/api/telemetry/live/current", s.handleCurrent)
	r.Get("/api/telemetry/frame", s.handleFrame)

	r.Get("/api/airspace/ceiling", s.handleCeiling)
	r.Get("/api/airspace/facility-map", s.handleFacilityMap)
	r.Post("/api/altitude/check", s.handleAltitudeCheck)

	r.Post("/api/video/frame/{drone_id}", s.handleVideoUpload)
	r.Get("/api/video/frame/{drone_id}", s.handleVideoFetch)

	r.Get("/ws/telemetry/live", s.handleWebsocket)

	return r
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	return srv.ListenAndServe()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
