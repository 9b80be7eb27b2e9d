package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dronewatch/internal/telemetry"
)

// maxVideoFrameBytes bounds a single uploaded frame.
const maxVideoFrameBytes = 4 << 20

// updateRequest mirrors the DroneState wire shape with pointers for the
// required fields so that absent and zero stay distinguishable.
type updateRequest struct {
	ID            *string            `json:"id"`
	Lat           *float64           `json:"lat"`
	Lon           *float64           `json:"lon"`
	AltMSL        *float64           `json:"alt_msl"`
	AltAGL        *float64           `json:"alt_agl"`
	Heading       *float64           `json:"heading"`
	Speed         *float64           `json:"speed"`
	VerticalSpeed *float64           `json:"vertical_speed"`
	Health        *string            `json:"health"`
	LinkQuality   *float64           `json:"link_quality"`
	Payload       *telemetry.Payload `json:"payload"`
}

// toState applies documented defaults and reports the first missing required
// field. Range checks happen later in DroneState.Validate.
func (u *updateRequest) toState() (telemetry.DroneState, error) {
	required := []struct {
		name string
		ok   bool
	}{
		{"id", u.ID != nil},
		{"lat", u.Lat != nil},
		{"lon", u.Lon != nil},
		{"alt_msl", u.AltMSL != nil},
		{"alt_agl", u.AltAGL != nil},
		{"heading", u.Heading != nil},
		{"speed", u.Speed != nil},
	}
	for _, f := range required {
		if !f.ok {
			return telemetry.DroneState{}, &telemetry.ValidationError{Field: f.name, Reason: "required field missing"}
		}
	}

	d := telemetry.DroneState{
		ID:          *u.ID,
		Lat:         *u.Lat,
		Lon:         *u.Lon,
		AltMSL:      *u.AltMSL,
		AltAGL:      *u.AltAGL,
		Heading:     *u.Heading,
		Speed:       *u.Speed,
		LinkQuality: 1.0,
		Payload:     u.Payload,
	}
	if u.VerticalSpeed != nil {
		d.VerticalSpeed = *u.VerticalSpeed
	}
	if u.Health != nil {
		d.Health = *u.Health
	}
	if u.LinkQuality != nil {
		d.LinkQuality = *u.LinkQuality
	}
	return d, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "healthy",
		"playback_loaded": s.playback != nil,
		"drones_tracked":  s.registry.Count(),
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DroneID  string         `json:"drone_id"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.DroneID == "" {
		writeError(w, http.StatusBadRequest, "drone_id is required")
		return
	}
	writeJSON(w, http.StatusOK, s.registry.Register(req.DroneID, req.Metadata))
}

func (s *Server) handleUnregister(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "drone_id")
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  s.registry.Unregister(id),
		"drone_id": id,
	})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	state, err := req.toState()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.registry.UpdateTelemetry(state); err != nil {
		var ve *telemetry.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// Echo the normalized state with defaults filled in.
	normalized, _ := s.registry.State(state.ID)
	writeJSON(w, http.StatusOK, normalized)
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	snap := s.registry.Snapshot()
	if r.URL.Query().Get("check_ceilings") == "true" {
		s.airspace.Annotate(&snap)
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	if s.playback == nil {
		writeError(w, http.StatusBadRequest, "no playback log loaded")
		return
	}
	t, err := strconv.ParseFloat(r.URL.Query().Get("time"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "time must be a number")
		return
	}
	snap, err := s.playback.FrameAt(t)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if r.URL.Query().Get("check_ceilings") == "true" {
		s.airspace.Annotate(&snap)
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCeiling(w http.ResponseWriter, r *http.Request) {
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, err2 := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "lat and lon must be numbers")
		return
	}
	resp := map[string]any{"lat": lat, "lon": lon, "maxAltitudeAgl": nil}
	if ceiling, ok := s.airspace.CeilingAt(lat, lon); ok {
		resp["maxAltitudeAgl"] = ceiling
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFacilityMap(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"cells": s.airspace.Cells()})
}

func (s *Server) handleAltitudeCheck(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Lat    *float64 `json:"lat"`
		Lon    *float64 `json:"lon"`
		AltAGL *float64 `json:"alt_agl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Lat == nil || req.Lon == nil || req.AltAGL == nil {
		writeError(w, http.StatusBadRequest, "lat, lon and alt_agl are required")
		return
	}
	resp := map[string]any{
		"violation":     s.airspace.CheckViolation(*req.Lat, *req.Lon, *req.AltAGL),
		"currentAltAgl": *req.AltAGL,
		"ceilingAgl":    nil,
	}
	if ceiling, ok := s.airspace.CeilingAt(*req.Lat, *req.Lon); ok {
		resp["ceilingAgl"] = ceiling
		resp["margin"] = ceiling - *req.AltAGL
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVideoUpload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "drone_id")
	data, err := io.ReadAll(io.LimitReader(r.Body, maxVideoFrameBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read frame body")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "empty frame")
		return
	}
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	s.video.Store(id, data, contentType)
	writeJSON(w, http.StatusOK, map[string]any{"drone_id": id, "bytes": len(data)})
}

func (s *Server) handleVideoFetch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "drone_id")
	data, contentType, ok := s.video.Latest(id)
	if !ok {
		writeError(w, http.StatusNotFound, "no frame cached for drone")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
