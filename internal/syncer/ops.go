package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/guardianhq/guardian/internal/gateway"
	"github.com/guardianhq/guardian/internal/state"
)

// ErrInvalidCredentials is returned by Login when no user matches the
// username and password pair.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrDuplicateUsername is returned by AddUser when the username is
// already taken, compared case-insensitively.
var ErrDuplicateUsername = errors.New("username already in use")

// ErrDuplicateTemplateName is returned by AddReportTemplate when the
// name is already taken, compared case-insensitively.
var ErrDuplicateTemplateName = errors.New("template name already in use")

// AddGuard creates a guard write-through: the remote insert happens
// first and local state only moves on success. Duplicate employee ids
// are rejected locally before the remote round trip; the store's unique
// index backstops the race where two clients create concurrently.
func (s *Syncer) AddGuard(ctx context.Context, name, employeeID, defaultShiftID string) (state.Guard, error) {
	employeeID = strings.TrimSpace(employeeID)
	if err := s.checkEmployeeID(employeeID, ""); err != nil {
		return state.Guard{}, err
	}

	created, err := s.gw.Guards.Create(ctx, state.Guard{
		ID:             s.ids.Generate(),
		Name:           strings.TrimSpace(name),
		EmployeeID:     employeeID,
		DefaultShiftID: defaultShiftID,
	})
	if err != nil {
		return state.Guard{}, fmt.Errorf("create guard: %w", err)
	}

	s.applyAndPublish(state.AddGuard(created, s.today()))
	return created, nil
}

// UpdateGuard rewrites a guard write-through. A changed default shift
// propagates to this date forward, never retroactively.
func (s *Syncer) UpdateGuard(ctx context.Context, g state.Guard) (state.Guard, error) {
	g.Name = strings.TrimSpace(g.Name)
	g.EmployeeID = strings.TrimSpace(g.EmployeeID)
	if err := s.checkEmployeeID(g.EmployeeID, g.ID); err != nil {
		return state.Guard{}, err
	}

	updated, err := s.gw.Guards.Update(ctx, g)
	if err != nil {
		return state.Guard{}, fmt.Errorf("update guard: %w", err)
	}

	s.applyAndPublish(state.UpdateGuard(updated, s.today()))
	return updated, nil
}

// DeleteGuard removes a guard write-through. The store cascades the
// schedule and attendance rows and clears dangling covers; the local
// transition does the same, so both sides agree without a reload.
func (s *Syncer) DeleteGuard(ctx context.Context, guardID string) error {
	if err := s.gw.Guards.Delete(ctx, guardID); err != nil {
		return fmt.Errorf("delete guard: %w", err)
	}
	s.applyAndPublish(state.DeleteGuard(guardID))
	return nil
}

func (s *Syncer) checkEmployeeID(employeeID, selfID string) error {
	key := state.NormalizeKey(employeeID)
	for _, g := range s.State().Guards {
		if g.ID != selfID && state.NormalizeKey(g.EmployeeID) == key {
			return fmt.Errorf("employee id %q: %w", employeeID, gateway.ErrDuplicateEmployeeID)
		}
	}
	return nil
}

// UpdateSchedule sets one guard's planned shift on one date. Optimistic:
// local state moves first, the remote write is best-effort. The returned
// error only covers input validation - a remote failure keeps the local
// edit and is logged.
func (s *Syncer) UpdateSchedule(ctx context.Context, date, guardID, shiftID string) error {
	if _, err := state.ParseDate(date); err != nil {
		return fmt.Errorf("schedule date: %w", err)
	}

	s.applyAndPublish(state.UpdateSchedule(date, guardID, shiftID))

	if err := s.gw.Schedule.Upsert(ctx, date, guardID, shiftID); err != nil {
		slog.Warn("schedule write failed, local edit kept",
			"origin", s.origin,
			"date", date,
			"guard", guardID,
			"error", err,
		)
	}
	return nil
}

// UpdateAttendance merges a partial update into one guard's attendance
// record for one date. Optimistic, like UpdateSchedule. The remote side
// receives the full record after the merge rules ran, so a row in the
// store never carries a half-applied update.
func (s *Syncer) UpdateAttendance(ctx context.Context, date, guardID string, u state.AttendanceUpdate) error {
	if _, err := state.ParseDate(date); err != nil {
		return fmt.Errorf("attendance date: %w", err)
	}
	if guardID == "" {
		return errors.New("attendance guard id is required")
	}

	st := s.applyAndPublish(state.UpdateAttendance(date, guardID, u))

	rec := st.Attendance[date][guardID]
	if err := s.gw.Attendance.Upsert(ctx, date, guardID, rec); err != nil {
		slog.Warn("attendance write failed, local edit kept",
			"origin", s.origin,
			"date", date,
			"guard", guardID,
			"error", err,
		)
	}
	return nil
}

// LoadRange pulls the schedule and attendance for [start, end] inclusive
// and merges them per-date replacement: every date inside the range is
// replaced wholesale by what the store returned (an empty map when the
// store has nothing), dates outside the range keep their current value.
// Loading the same range twice is therefore idempotent, and local
// optimistic edits inside a reloaded range yield to the store.
func (s *Syncer) LoadRange(ctx context.Context, start, end string) error {
	dates := state.IterateDates(start, end)
	if len(dates) == 0 {
		return fmt.Errorf("invalid date range %s..%s", start, end)
	}

	sched, err := s.gw.Schedule.ListRange(ctx, start, end)
	if err != nil {
		return fmt.Errorf("load schedule range: %w", err)
	}
	att, err := s.gw.Attendance.ListRange(ctx, start, end)
	if err != nil {
		return fmt.Errorf("load attendance range: %w", err)
	}

	// The merge reads the current state, so it runs as one atomic update:
	// an action applied concurrently (bus delivery, feed event) lands
	// either before the merge and is carried through, or after it.
	s.container.Update(func(cur state.AppState) state.AppState {
		mergedSched := make(state.FullSchedule, len(cur.Schedule)+len(dates))
		for d, daily := range cur.Schedule {
			mergedSched[d] = daily
		}
		mergedAtt := make(state.AttendanceTable, len(cur.Attendance)+len(dates))
		for d, daily := range cur.Attendance {
			mergedAtt[d] = daily
		}
		for _, d := range dates {
			daily, ok := sched[d]
			if !ok {
				daily = map[string]state.ScheduleEntry{}
			}
			mergedSched[d] = daily

			records, ok := att[d]
			if !ok {
				records = map[string]state.AttendanceRecord{}
			}
			mergedAtt[d] = records
		}

		cur = state.Apply(cur, state.SetSchedule(mergedSched))
		return state.Apply(cur, state.SetAttendance(mergedAtt))
	})

	slog.Debug("range loaded",
		"origin", s.origin,
		"start", start,
		"end", end,
		"dates", len(dates),
	)
	return nil
}

// AddUser creates a viewer account with a generated password. An empty
// username auto-numbers a viewer name. Users live in the mirror, not the
// store; the mirror save is best-effort.
func (s *Syncer) AddUser(username string) (state.User, error) {
	username = strings.TrimSpace(username)
	st := s.State()
	if username == "" {
		viewers := 0
		for _, u := range st.Users {
			if u.Role == state.RoleViewer {
				viewers++
			}
		}
		username = fmt.Sprintf("viewer%d", viewers+1)
	}
	key := state.NormalizeKey(username)
	for _, u := range st.Users {
		if state.NormalizeKey(u.Username) == key {
			return state.User{}, fmt.Errorf("username %q: %w", username, ErrDuplicateUsername)
		}
	}

	u := state.User{
		ID:       s.ids.Generate(),
		Username: username,
		Password: s.ids.Generate(),
		Role:     state.RoleViewer,
	}
	next := s.applyAndPublish(state.AddUser(u))
	s.persistUsers(next)
	return u, nil
}

// DeleteUser removes a viewer account and reports whether anything
// happened. Admin accounts are refused, never deleted.
func (s *Syncer) DeleteUser(userID string) bool {
	u, ok := s.State().UserByID(userID)
	if !ok || u.Role == state.RoleAdmin {
		return false
	}
	next := s.applyAndPublish(state.DeleteUser(userID))
	s.persistUsers(next)
	return true
}

// Login establishes the session user. The session is per-client and
// never replicated or mirrored.
func (s *Syncer) Login(username, password string) (state.User, error) {
	for _, u := range s.State().Users {
		if u.Username == username && u.Password == password {
			s.container.Apply(state.Login(u))
			return u, nil
		}
	}
	return state.User{}, ErrInvalidCredentials
}

// Logout clears the session user.
func (s *Syncer) Logout() {
	s.container.Apply(state.Logout())
}

// AddReportTemplate saves a report configuration. Names are unique
// case-insensitively across the template set, built-ins included.
func (s *Syncer) AddReportTemplate(name string, typ state.ReportType, columns []string) (state.ReportTemplate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return state.ReportTemplate{}, errors.New("template name is required")
	}
	switch typ {
	case state.ReportAttendance, state.ReportOvertime, state.ReportOvertimeDetailed:
	default:
		return state.ReportTemplate{}, fmt.Errorf("unknown report type %q", typ)
	}
	key := state.NormalizeKey(name)
	for _, t := range s.State().ReportTemplates {
		if state.NormalizeKey(t.Name) == key {
			return state.ReportTemplate{}, fmt.Errorf("template %q: %w", name, ErrDuplicateTemplateName)
		}
	}

	tpl := state.ReportTemplate{
		ID:      s.ids.Generate(),
		Name:    name,
		Type:    typ,
		Columns: append([]string(nil), columns...),
	}
	next := s.applyAndPublish(state.AddReportTemplate(tpl))
	s.persistTemplates(next)
	return tpl, nil
}

// DeleteReportTemplate removes a template by id. Unknown ids are a no-op.
func (s *Syncer) DeleteReportTemplate(templateID string) {
	next := s.applyAndPublish(state.DeleteReportTemplate(templateID))
	s.persistTemplates(next)
}

// SetTheme switches the visual theme and broadcasts it so sibling tabs
// follow along.
func (s *Syncer) SetTheme(theme string) {
	s.applyAndPublish(state.SetTheme(theme))
	if s.mirror != nil {
		if err := s.mirror.SaveTheme(theme); err != nil {
			slog.Warn("theme save failed", "origin", s.origin, "error", err)
		}
	}
}

// SetLanguage switches the display language. A per-device preference:
// applied locally, never broadcast or mirrored.
func (s *Syncer) SetLanguage(lang string) {
	s.container.Apply(state.SetLanguage(lang))
}

func (s *Syncer) persistUsers(st state.AppState) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.SaveUsers(st.Users); err != nil {
		slog.Warn("users save failed", "origin", s.origin, "error", err)
	}
}

func (s *Syncer) persistTemplates(st state.AppState) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.SaveTemplates(st.ReportTemplates); err != nil {
		slog.Warn("templates save failed", "origin", s.origin, "error", err)
	}
}
