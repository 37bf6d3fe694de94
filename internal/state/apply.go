package state

// Apply is the state transition function: a pure, total function from
// (state, action) to the next state. It never performs I/O, never panics
// on malformed actions (unknown types and nil payloads are no-ops), and
// never mutates its input - touched slices and maps are copied before
// modification, so previous snapshots stay valid.
func Apply(s AppState, a Action) AppState {
	switch a.Type {
	case ActionAddGuard:
		if a.Guard == nil {
			return s
		}
		return applyAddGuard(s, *a.Guard, a.EffectiveFrom)
	case ActionUpdateGuard:
		if a.Guard == nil {
			return s
		}
		return applyUpdateGuard(s, *a.Guard, a.EffectiveFrom)
	case ActionDeleteGuard:
		return applyDeleteGuard(s, a.GuardID)
	case ActionUpdateSchedule:
		return applyUpdateSchedule(s, a.Date, a.GuardID, a.ShiftID)
	case ActionUpdateAttendance:
		if a.Update == nil {
			return s
		}
		return applyUpdateAttendance(s, a.Date, a.GuardID, *a.Update)
	case ActionAddUser:
		if a.User == nil {
			return s
		}
		s.Users = append(copyUsers(s.Users), *a.User)
		return s
	case ActionDeleteUser:
		return applyDeleteUser(s, a.UserID)
	case ActionAddReportTemplate:
		if a.Template == nil {
			return s
		}
		s.ReportTemplates = append(copyTemplates(s.ReportTemplates), *a.Template)
		return s
	case ActionDeleteReportTemplate:
		kept := make([]ReportTemplate, 0, len(s.ReportTemplates))
		for _, t := range s.ReportTemplates {
			if t.ID != a.TemplateID {
				kept = append(kept, t)
			}
		}
		s.ReportTemplates = kept
		return s
	case ActionSetGuards:
		s.Guards = copyGuards(a.Guards)
		return s
	case ActionSetShifts:
		s.Shifts = copyShifts(a.Shifts)
		return s
	case ActionSetSchedule:
		s.Schedule = copySchedule(a.Schedule)
		return s
	case ActionSetAttendance:
		s.Attendance = copyAttendance(a.Attendance)
		return s
	case ActionSetLanguage:
		s.Language = a.Language
		return s
	case ActionSetTheme:
		s.Theme = a.Theme
		return s
	case ActionLogin:
		if a.User == nil {
			return s
		}
		u := *a.User
		s.CurrentUser = &u
		return s
	case ActionLogout:
		s.CurrentUser = nil
		return s
	default:
		return s
	}
}

// applyAddGuard appends the guard and materializes a schedule entry for it
// on every known date >= effectiveFrom using the default shift. New guards
// are on the books starting today, not retroactively. Idempotent: a guard
// id already present is a no-op, which absorbs duplicate change-feed
// delivery racing the write-through echo.
func applyAddGuard(s AppState, g Guard, effectiveFrom string) AppState {
	if _, ok := s.GuardByID(g.ID); ok {
		return s
	}
	s.Guards = append(copyGuards(s.Guards), g)

	schedule := make(FullSchedule, len(s.Schedule))
	for date, daily := range s.Schedule {
		if effectiveFrom != "" && date >= effectiveFrom {
			next := copyDaily(daily)
			next[g.ID] = ScheduleEntry{GuardID: g.ID, ShiftID: g.DefaultShiftID}
			schedule[date] = next
		} else {
			schedule[date] = daily
		}
	}
	s.Schedule = schedule
	return s
}

// applyUpdateGuard replaces the guard record. If and only if the default
// shift changed, every entry of this guard on a date >= effectiveFrom that
// still equals the old default is advanced to the new one. Past dates and
// explicit overrides to a third shift are left untouched.
func applyUpdateGuard(s AppState, g Guard, effectiveFrom string) AppState {
	old, ok := s.GuardByID(g.ID)
	if !ok {
		return s
	}
	guards := copyGuards(s.Guards)
	for i := range guards {
		if guards[i].ID == g.ID {
			guards[i] = g
		}
	}
	s.Guards = guards

	if old.DefaultShiftID == g.DefaultShiftID {
		return s
	}

	schedule := make(FullSchedule, len(s.Schedule))
	for date, daily := range s.Schedule {
		entry, has := daily[g.ID]
		if has && entry.ShiftID == old.DefaultShiftID && effectiveFrom != "" && date >= effectiveFrom {
			next := copyDaily(daily)
			next[g.ID] = ScheduleEntry{GuardID: g.ID, ShiftID: g.DefaultShiftID}
			schedule[date] = next
		} else {
			schedule[date] = daily
		}
	}
	s.Schedule = schedule
	return s
}

// applyDeleteGuard removes the guard, its schedule and attendance rows on
// every date, and clears CoveredBy (and therefore IsOvertime) on every
// remaining record that named it. Covered records themselves survive.
func applyDeleteGuard(s AppState, guardID string) AppState {
	kept := make([]Guard, 0, len(s.Guards))
	for _, g := range s.Guards {
		if g.ID != guardID {
			kept = append(kept, g)
		}
	}
	s.Guards = kept

	schedule := make(FullSchedule, len(s.Schedule))
	for date, daily := range s.Schedule {
		if _, has := daily[guardID]; has {
			next := copyDaily(daily)
			delete(next, guardID)
			schedule[date] = next
		} else {
			schedule[date] = daily
		}
	}
	s.Schedule = schedule

	attendance := make(AttendanceTable, len(s.Attendance))
	for date, daily := range s.Attendance {
		changed := false
		if _, has := daily[guardID]; has {
			changed = true
		}
		for _, rec := range daily {
			if rec.CoveredBy == guardID {
				changed = true
			}
		}
		if !changed {
			attendance[date] = daily
			continue
		}
		next := make(map[string]AttendanceRecord, len(daily))
		for id, rec := range daily {
			if id == guardID {
				continue
			}
			if rec.CoveredBy == guardID {
				rec.CoveredBy = ""
				rec.IsOvertime = false
			}
			next[id] = rec
		}
		attendance[date] = next
	}
	s.Attendance = attendance
	return s
}

func applyUpdateSchedule(s AppState, date, guardID, shiftID string) AppState {
	if date == "" || guardID == "" {
		return s
	}
	schedule := make(FullSchedule, len(s.Schedule)+1)
	for d, daily := range s.Schedule {
		schedule[d] = daily
	}
	next := copyDaily(schedule[date])
	next[guardID] = ScheduleEntry{GuardID: guardID, ShiftID: shiftID}
	schedule[date] = next
	s.Schedule = schedule
	return s
}

// applyUpdateAttendance reads or defaults the record for (date, guardID),
// shallow-merges the partial update, then enforces the cover invariants:
// CoveredBy never equals the record's own guard, IsOvertime cannot outlive
// CoveredBy, and a status other than Absent carries neither.
func applyUpdateAttendance(s AppState, date, guardID string, u AttendanceUpdate) AppState {
	if date == "" || guardID == "" {
		return s
	}
	rec, ok := s.Attendance[date][guardID]
	if !ok {
		rec = AttendanceRecord{
			GuardID: guardID,
			ShiftID: s.EffectiveShiftID(date, guardID),
			Status:  StatusScheduled,
		}
	}

	if u.ShiftID != nil {
		rec.ShiftID = *u.ShiftID
	}
	if u.Status != nil {
		rec.Status = *u.Status
	}
	if u.CoveredBy != nil {
		rec.CoveredBy = *u.CoveredBy
		if rec.CoveredBy == guardID {
			rec.CoveredBy = ""
		}
	}
	if u.IsOvertime != nil {
		rec.IsOvertime = *u.IsOvertime
	}
	if u.Notes != nil {
		rec.Notes = *u.Notes
	}

	if rec.Status != StatusAbsent {
		rec.CoveredBy = ""
	}
	if rec.CoveredBy == "" {
		rec.IsOvertime = false
	}

	attendance := make(AttendanceTable, len(s.Attendance)+1)
	for d, daily := range s.Attendance {
		attendance[d] = daily
	}
	next := make(map[string]AttendanceRecord, len(attendance[date])+1)
	for id, r := range attendance[date] {
		next[id] = r
	}
	next[guardID] = rec
	attendance[date] = next
	s.Attendance = attendance
	return s
}

// applyDeleteUser filters out the target unless its role is admin. Admin
// deletion requests are silently ignored so the directory always retains
// at least one admin.
func applyDeleteUser(s AppState, userID string) AppState {
	target, ok := s.UserByID(userID)
	if !ok || target.Role == RoleAdmin {
		return s
	}
	kept := make([]User, 0, len(s.Users))
	for _, u := range s.Users {
		if u.ID != userID {
			kept = append(kept, u)
		}
	}
	s.Users = kept
	return s
}

func copyGuards(in []Guard) []Guard {
	out := make([]Guard, len(in))
	copy(out, in)
	return out
}

func copyShifts(in []Shift) []Shift {
	out := make([]Shift, len(in))
	copy(out, in)
	return out
}

func copyUsers(in []User) []User {
	out := make([]User, len(in))
	copy(out, in)
	return out
}

func copyTemplates(in []ReportTemplate) []ReportTemplate {
	out := make([]ReportTemplate, len(in))
	copy(out, in)
	return out
}

func copyDaily(in map[string]ScheduleEntry) map[string]ScheduleEntry {
	out := make(map[string]ScheduleEntry, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copySchedule(in FullSchedule) FullSchedule {
	out := make(FullSchedule, len(in))
	for date, daily := range in {
		out[date] = copyDaily(daily)
	}
	return out
}

func copyAttendance(in AttendanceTable) AttendanceTable {
	out := make(AttendanceTable, len(in))
	for date, daily := range in {
		next := make(map[string]AttendanceRecord, len(daily))
		for id, rec := range daily {
			next[id] = rec
		}
		out[date] = next
	}
	return out
}
