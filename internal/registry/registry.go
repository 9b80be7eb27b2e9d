// Package registry tracks live drone sessions: registration, per-drone
// telemetry upserts, stale-session sweeps, and snapshot broadcast to
// subscribers.
package registry

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"dronewatch/internal/telemetry"
	"dronewatch/internal/video"
)

const (
	// DefaultTimeout marks a session OFFLINE after this much silence.
	DefaultTimeout = 30 * time.Second
	// DefaultSweepInterval is how often the background sweep runs.
	DefaultSweepInterval = 5 * time.Second
)

// Writer receives every accepted live update for archival. Implementations
// live in the archive package.
type Writer interface {
	Write(telemetry.ArchiveRow) error
}

// RegistrationResult confirms a registration over the wire.
type RegistrationResult struct {
	DroneID      string `json:"drone_id"`
	RegisteredAt string `json:"registered_at"`
	Status       string `json:"status"`
}

type session struct {
	state      telemetry.DroneState
	metadata   map[string]any
	registered time.Time
	lastUpdate time.Time
}

// Options configures a Registry. Zero values fall back to defaults.
type Options struct {
	Timeout       time.Duration
	SweepInterval time.Duration
	ClusterID     string
	Writer        Writer       // optional archive sink
	Video         *video.Cache // optional, frames dropped on unregister
	Logger        *slog.Logger
}

// Registry is the single shared mutable resource of the live subsystem. One
// coarse mutex guards the session map; broadcasts happen outside it so a slow
// consumer never blocks a writer.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session
	order    []string // arrival order, stable across updates
	start    time.Time

	timeout       time.Duration
	sweepInterval time.Duration
	clusterID     string
	writer        Writer
	video         *video.Cache
	logger        *slog.Logger
	now           func() time.Time

	hub *hub
}

// New creates an empty registry. The construction time anchors snapshot
// timestamps.
func New(opts Options) *Registry {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	r := &Registry{
		sessions:      make(map[string]*session),
		timeout:       opts.Timeout,
		sweepInterval: opts.SweepInterval,
		clusterID:     opts.ClusterID,
		writer:        opts.Writer,
		video:         opts.Video,
		logger:        opts.Logger,
		now:           time.Now,
		hub:           newHub(),
	}
	r.start = r.now()
	return r
}

// Register creates or refreshes a session. Registering an already-active id
// only refreshes its metadata; the existing telemetry survives.
func (r *Registry) Register(id string, metadata map[string]any) RegistrationResult {
	now := r.now()

	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok {
		s = &session{
			state: telemetry.DroneState{
				ID:     id,
				Health: telemetry.HealthOffline,
			},
			registered: now,
			lastUpdate: now,
		}
		r.sessions[id] = s
		r.order = append(r.order, id)
	}
	s.metadata = metadata
	registered := s.registered
	r.mu.Unlock()

	r.logger.Info("drone registered", "drone_id", id, "new", !ok)
	return RegistrationResult{
		DroneID:      id,
		RegisteredAt: registered.UTC().Format(time.RFC3339),
		Status:       "registered",
	}
}

// UpdateTelemetry validates and upserts one drone's state, then broadcasts
// the full snapshot to all subscribers. A validation failure touches nothing.
func (r *Registry) UpdateTelemetry(d telemetry.DroneState) error {
	d.Health = strings.ToUpper(d.Health)
	if d.Health == "" {
		d.Health = telemetry.HealthOK
	}
	if err := d.Validate(); err != nil {
		return err
	}
	now := r.now()

	r.mu.Lock()
	s, ok := r.sessions[d.ID]
	if !ok {
		s = &session{registered: now}
		r.sessions[d.ID] = s
		r.order = append(r.order, d.ID)
	}
	s.state = d
	s.lastUpdate = now
	snap := r.snapshotLocked()
	r.mu.Unlock()

	if r.writer != nil {
		if err := r.writer.Write(telemetry.NewArchiveRow(r.clusterID, d, now.UTC())); err != nil {
			r.logger.Error("archive write failed", "drone_id", d.ID, "err", err)
		}
	}
	r.hub.broadcast(snap)
	return nil
}

// Unregister removes the drone immediately, distinct from the timeout-based
// soft OFFLINE. The miss is reported, not an error.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	_, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
		for i, o := range r.order {
			if o == id {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	r.mu.Unlock()

	if ok {
		if r.video != nil {
			r.video.Drop(id)
		}
		r.logger.Info("drone unregistered", "drone_id", id)
	}
	return ok
}

// Snapshot returns all tracked drones, active and stale, in arrival order.
// Never blocks on subscribers.
func (r *Registry) Snapshot() telemetry.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Registry) snapshotLocked() telemetry.Snapshot {
	drones := make([]telemetry.DroneState, 0, len(r.order))
	for _, id := range r.order {
		drones = append(drones, r.sessions[id].state)
	}
	return telemetry.Snapshot{
		Time:   r.now().Sub(r.start).Seconds(),
		Drones: drones,
	}
}

// State returns one drone's current state.
func (r *Registry) State(id string) (telemetry.DroneState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return telemetry.DroneState{}, false
	}
	return s.state, true
}

// Count returns the number of tracked sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// SweepStale flips sessions idle past the timeout to OFFLINE in place. The
// record stays visible to snapshots until an explicit Unregister. Returns the
// ids that went stale on this pass.
func (r *Registry) SweepStale(now time.Time) []string {
	var stale []string

	r.mu.Lock()
	for _, id := range r.order {
		s := r.sessions[id]
		if s.state.Health == telemetry.HealthOffline {
			continue
		}
		if now.Sub(s.lastUpdate) > r.timeout {
			s.state.Health = telemetry.HealthOffline
			stale = append(stale, id)
		}
	}
	var snap telemetry.Snapshot
	if len(stale) > 0 {
		snap = r.snapshotLocked()
	}
	r.mu.Unlock()

	if len(stale) > 0 {
		// A normal lifecycle event, observable but never an error.
		r.logger.Info("sessions went stale", "drone_ids", stale, "timeout", r.timeout)
		r.hub.broadcast(snap)
	}
	return stale
}

// Subscribe registers a snapshot stream. See hub for the last-value-wins
// delivery contract.
func (r *Registry) Subscribe() (string, <-chan telemetry.Snapshot) {
	return r.hub.subscribe()
}

// Unsubscribe removes a subscriber and closes its channel.
func (r *Registry) Unsubscribe(id string) {
	r.hub.unsubscribe(id)
}

// Run ticks the stale sweep until the context is done.
func (r *Registry) Run(ctx context.Context) {
	r.logger.Info("registry sweep started", "interval", r.sweepInterval, "timeout", r.timeout)
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.SweepStale(r.now())
		case <-ctx.Done():
			r.logger.Info("registry sweep stopped")
			return
		}
	}
}
