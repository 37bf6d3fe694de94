package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/guardianhq/guardian/internal/bus"
	"github.com/guardianhq/guardian/internal/gateway"
	"github.com/guardianhq/guardian/internal/mirror"
	"github.com/guardianhq/guardian/internal/seed"
	"github.com/guardianhq/guardian/internal/state"
)

// Gateways bundles the remote collection interfaces one client talks to.
// Production wiring takes all four from a single gateway.Client; tests
// swap individual members for failing decorators.
type Gateways struct {
	Guards     gateway.Guards
	Shifts     gateway.Shifts
	Schedule   gateway.Schedule
	Attendance gateway.Attendance
}

// ClientGateways builds a Gateways bundle from one store client.
func ClientGateways(c *gateway.Client) Gateways {
	return Gateways{
		Guards:     c.Guards(),
		Shifts:     c.Shifts(),
		Schedule:   c.Schedule(),
		Attendance: c.Attendance(),
	}
}

// Syncer is one open client: a state container plus the plumbing that
// keeps it converged with the store and with same-origin peers.
//
// Thread-safety: all exported methods are safe for concurrent use. The
// container serializes transitions internally; concurrent edits to the
// same cell resolve last-writer-wins, matching the replication model.
type Syncer struct {
	origin    string
	gw        Gateways
	container *state.Container
	mirror    *mirror.Mirror
	bus       *bus.Bus
	conn      *bus.Conn
	ids       IDGenerator
	now       func() time.Time

	unsubs   []gateway.Unsubscribe
	loopDone chan struct{}
}

// Option configures a Syncer at construction.
type Option func(*Syncer)

// WithMirror enables best-effort local persistence of users, report
// templates, and the theme preference.
func WithMirror(m *mirror.Mirror) Option {
	return func(s *Syncer) { s.mirror = m }
}

// WithBus joins the syncer to a same-origin broadcast bus on Start.
func WithBus(b *bus.Bus) Option {
	return func(s *Syncer) { s.bus = b }
}

// WithIDGenerator overrides the identifier source. Tests use
// testutil.FixedGenerator for deterministic ids.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *Syncer) { s.ids = gen }
}

// WithClock overrides the wall clock. The clock decides which month
// Start loads and the effective-from date stamped into guard actions.
func WithClock(now func() time.Time) Option {
	return func(s *Syncer) { s.now = now }
}

// New creates a Syncer for the given origin label. The origin must be
// unique per bus; it identifies this client in bus envelopes and logs.
func New(origin string, gw Gateways, opts ...Option) *Syncer {
	s := &Syncer{
		origin:    origin,
		gw:        gw,
		container: state.NewContainer(),
		ids:       UUIDv7Generator{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start brings the client online: seeds an empty store from the embedded
// catalog, loads the reference collections and the current month's
// schedule and attendance, hydrates the mirrored keys, and opens the
// change-feed and bus subscriptions.
//
// Start must be called once before any mutation. Close releases
// everything Start acquired.
func (s *Syncer) Start(ctx context.Context) error {
	slog.Info("syncer starting", "origin", s.origin)

	catalog, err := seed.Load()
	if err != nil {
		return fmt.Errorf("load seed catalog: %w", err)
	}

	shifts, err := s.gw.Shifts.List(ctx)
	if err != nil {
		return fmt.Errorf("load shifts: %w", err)
	}
	if len(shifts) == 0 {
		if err := s.gw.Shifts.Insert(ctx, catalog.Shifts); err != nil {
			return fmt.Errorf("seed shifts: %w", err)
		}
		if shifts, err = s.gw.Shifts.List(ctx); err != nil {
			return fmt.Errorf("load shifts: %w", err)
		}
	}
	s.container.Apply(state.SetShifts(shifts))

	guards, err := s.gw.Guards.List(ctx)
	if err != nil {
		return fmt.Errorf("load guards: %w", err)
	}
	if len(guards) == 0 {
		for _, g := range catalog.Guards {
			if _, err := s.gw.Guards.Create(ctx, g); err != nil {
				return fmt.Errorf("seed guard %s: %w", g.ID, err)
			}
		}
		if guards, err = s.gw.Guards.List(ctx); err != nil {
			return fmt.Errorf("load guards: %w", err)
		}
		slog.Info("store seeded", "origin", s.origin, "guards", len(guards))
	}
	s.container.Apply(state.SetGuards(guards))

	first, last := state.MonthBounds(s.now())
	if err := s.LoadRange(ctx, first, last); err != nil {
		return fmt.Errorf("load current month: %w", err)
	}

	s.hydrateMirror(catalog)

	s.unsubs = append(s.unsubs,
		s.gw.Guards.SubscribeChanges(s.onGuardChange),
		s.gw.Schedule.SubscribeChanges(s.onScheduleChange),
		s.gw.Attendance.SubscribeChanges(s.onAttendanceChange),
	)

	if s.bus != nil {
		s.conn = s.bus.Join(s.origin)
		s.loopDone = make(chan struct{})
		go s.receiveLoop()
	}

	return nil
}

// hydrateMirror fills users, templates, and theme from the mirror,
// falling back to the seeded catalog for keys never written. Mirror
// failures degrade to the catalog defaults.
func (s *Syncer) hydrateMirror(catalog seed.Data) {
	users := catalog.Users
	templates := catalog.Templates
	theme := ""

	if s.mirror != nil {
		if loaded, err := s.mirror.LoadUsers(); err != nil {
			slog.Warn("mirror users unreadable, using defaults", "origin", s.origin, "error", err)
		} else if loaded != nil {
			users = loaded
		}
		if loaded, err := s.mirror.LoadTemplates(); err != nil {
			slog.Warn("mirror templates unreadable, using defaults", "origin", s.origin, "error", err)
		} else if loaded != nil {
			templates = loaded
		}
		if loaded, err := s.mirror.LoadTheme(); err != nil {
			slog.Warn("mirror theme unreadable, using default", "origin", s.origin, "error", err)
		} else {
			theme = loaded
		}
	}

	for _, u := range users {
		s.container.Apply(state.AddUser(u))
	}
	for _, t := range templates {
		s.container.Apply(state.AddReportTemplate(t))
	}
	if theme != "" {
		s.container.Apply(state.SetTheme(theme))
	}
}

// receiveLoop applies peer actions delivered over the bus. Envelopes are
// applied through the transition function and never re-published; the
// originating tab already wrote the remote side.
func (s *Syncer) receiveLoop() {
	defer close(s.loopDone)
	for env := range s.conn.Deliveries() {
		slog.Debug("bus action received",
			"origin", s.origin,
			"from", env.Origin,
			"seq", env.Seq,
			"type", env.Action.Type,
		)
		s.container.Apply(env.Action)
	}
}

// Close tears down feed subscriptions and leaves the bus. Safe to call
// on a syncer that never started.
func (s *Syncer) Close() {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
	if s.conn != nil {
		s.conn.Close()
		<-s.loopDone
		s.conn = nil
	}
	slog.Info("syncer stopped", "origin", s.origin)
}

// State returns the current immutable snapshot.
func (s *Syncer) State() state.AppState {
	return s.container.State()
}

// Origin returns the client's origin label.
func (s *Syncer) Origin() string { return s.origin }

func (s *Syncer) today() string {
	return state.FormatDate(s.now())
}

// applyAndPublish runs a locally initiated action through the container
// and broadcasts it to same-origin peers. Never called for actions
// received from a peer or a feed.
func (s *Syncer) applyAndPublish(a state.Action) state.AppState {
	st := s.container.Apply(a)
	if s.conn != nil {
		s.conn.Publish(a)
	}
	return st
}

// Change-feed handlers translate store events into actions. They run on
// the feed pump goroutines and only ever apply - a feed event is another
// device's already-persisted write, so there is nothing to persist or
// broadcast from here.

func (s *Syncer) onGuardChange(ch gateway.GuardChange) {
	switch ch.Type {
	case gateway.ChangeInsert:
		s.container.Apply(state.AddGuard(ch.Guard, s.today()))
	case gateway.ChangeUpdate:
		s.container.Apply(state.UpdateGuard(ch.Guard, s.today()))
	case gateway.ChangeDelete:
		s.container.Apply(state.DeleteGuard(ch.Guard.ID))
	}
}

func (s *Syncer) onScheduleChange(ch gateway.ScheduleChange) {
	s.container.Apply(state.UpdateSchedule(ch.Date, ch.GuardID, ch.ShiftID))
}

func (s *Syncer) onAttendanceChange(ch gateway.AttendanceChange) {
	rec := ch.Record
	s.container.Apply(state.UpdateAttendance(ch.Date, ch.GuardID, state.AttendanceUpdate{
		ShiftID:    &rec.ShiftID,
		Status:     &rec.Status,
		CoveredBy:  &rec.CoveredBy,
		IsOvertime: &rec.IsOvertime,
		Notes:      &rec.Notes,
	}))
}
