package state

// ActionType discriminates the action payload.
type ActionType string

const (
	ActionAddGuard             ActionType = "add_guard"
	ActionUpdateGuard          ActionType = "update_guard"
	ActionDeleteGuard          ActionType = "delete_guard"
	ActionUpdateSchedule       ActionType = "update_schedule"
	ActionUpdateAttendance     ActionType = "update_attendance"
	ActionAddUser              ActionType = "add_user"
	ActionDeleteUser           ActionType = "delete_user"
	ActionAddReportTemplate    ActionType = "add_report_template"
	ActionDeleteReportTemplate ActionType = "delete_report_template"
	ActionSetGuards            ActionType = "set_guards"
	ActionSetShifts            ActionType = "set_shifts"
	ActionSetSchedule          ActionType = "set_schedule"
	ActionSetAttendance        ActionType = "set_attendance"
	ActionSetLanguage          ActionType = "set_language"
	ActionSetTheme             ActionType = "set_theme"
	ActionLogin                ActionType = "login"
	ActionLogout               ActionType = "logout"
)

// AttendanceUpdate is a partial update for one attendance record.
//
// nil means "leave the field unchanged"; a pointer to the zero value means
// "clear it". This makes the merge rules explicit instead of relying on an
// untyped partial object.
type AttendanceUpdate struct {
	ShiftID    *string           `json:"shiftId,omitempty"`
	Status     *AttendanceStatus `json:"status,omitempty"`
	CoveredBy  *string           `json:"coveredBy,omitempty"`
	IsOvertime *bool             `json:"isOvertime,omitempty"`
	Notes      *string           `json:"notes,omitempty"`
}

// Action is one entry of the typed action log. Exactly the fields relevant
// to Type are set; the rest stay zero so the wire encoding remains small.
//
// EffectiveFrom carries the dispatching client's "today" for the guard
// actions whose semantics depend on it. Stamping it into the action keeps
// Apply referentially pure and makes peers that replay the action via the
// replication bus compute the identical state.
type Action struct {
	Type ActionType `json:"type"`

	Guard         *Guard `json:"guard,omitempty"`
	GuardID       string `json:"guardId,omitempty"`
	EffectiveFrom string `json:"effectiveFrom,omitempty"`

	Date    string            `json:"date,omitempty"`
	ShiftID string            `json:"shiftId,omitempty"`
	Update  *AttendanceUpdate `json:"update,omitempty"`

	User       *User  `json:"user,omitempty"`
	UserID     string `json:"userId,omitempty"`
	Template   *ReportTemplate `json:"template,omitempty"`
	TemplateID string          `json:"templateId,omitempty"`

	Guards     []Guard         `json:"guards,omitempty"`
	Shifts     []Shift         `json:"shifts,omitempty"`
	Schedule   FullSchedule    `json:"schedule,omitempty"`
	Attendance AttendanceTable `json:"attendance,omitempty"`

	Language string `json:"language,omitempty"`
	Theme    string `json:"theme,omitempty"`
}

// AddGuard materializes schedule entries for the new guard on every known
// date >= effectiveFrom.
func AddGuard(g Guard, effectiveFrom string) Action {
	return Action{Type: ActionAddGuard, Guard: &g, EffectiveFrom: effectiveFrom}
}

// UpdateGuard replaces the guard record and, when the default shift
// changed, advances matching schedule entries on dates >= effectiveFrom.
func UpdateGuard(g Guard, effectiveFrom string) Action {
	return Action{Type: ActionUpdateGuard, Guard: &g, EffectiveFrom: effectiveFrom}
}

// DeleteGuard removes the guard and every row keyed by it, and clears
// cover assignments that named it.
func DeleteGuard(guardID string) Action {
	return Action{Type: ActionDeleteGuard, GuardID: guardID}
}

// UpdateSchedule upserts a single planned entry. No cascading.
func UpdateSchedule(date, guardID, shiftID string) Action {
	return Action{Type: ActionUpdateSchedule, Date: date, GuardID: guardID, ShiftID: shiftID}
}

// UpdateAttendance merges a partial update into the record for
// (date, guardID), materializing a default record on first write.
func UpdateAttendance(date, guardID string, u AttendanceUpdate) Action {
	return Action{Type: ActionUpdateAttendance, Date: date, GuardID: guardID, Update: &u}
}

// AddUser appends a user to the directory.
func AddUser(u User) Action { return Action{Type: ActionAddUser, User: &u} }

// DeleteUser removes a user unless it is an admin (admins are never
// deleted; the request is a no-op).
func DeleteUser(userID string) Action { return Action{Type: ActionDeleteUser, UserID: userID} }

// AddReportTemplate appends a saved report configuration.
func AddReportTemplate(t ReportTemplate) Action {
	return Action{Type: ActionAddReportTemplate, Template: &t}
}

// DeleteReportTemplate removes a template by id.
func DeleteReportTemplate(templateID string) Action {
	return Action{Type: ActionDeleteReportTemplate, TemplateID: templateID}
}

// SetGuards bulk-replaces the guard collection (initial sync only).
func SetGuards(guards []Guard) Action { return Action{Type: ActionSetGuards, Guards: guards} }

// SetShifts bulk-replaces the shift catalog (initial sync only).
func SetShifts(shifts []Shift) Action { return Action{Type: ActionSetShifts, Shifts: shifts} }

// SetSchedule bulk-replaces the schedule (range-load and initial sync only).
func SetSchedule(s FullSchedule) Action { return Action{Type: ActionSetSchedule, Schedule: s} }

// SetAttendance bulk-replaces the attendance table (range-load and initial
// sync only).
func SetAttendance(a AttendanceTable) Action {
	return Action{Type: ActionSetAttendance, Attendance: a}
}

// SetLanguage changes the UI language. Session-local, never replicated.
func SetLanguage(lang string) Action { return Action{Type: ActionSetLanguage, Language: lang} }

// SetTheme changes the UI theme. Not persisted remotely, but broadcast to
// other tabs of the same session.
func SetTheme(theme string) Action { return Action{Type: ActionSetTheme, Theme: theme} }

// Login sets the active session user.
func Login(u User) Action { return Action{Type: ActionLogin, User: &u} }

// Logout clears the active session user.
func Logout() Action { return Action{Type: ActionLogout} }
