package state

// AttendanceStatus is the recorded outcome for a guard on a date.
type AttendanceStatus string

const (
	StatusScheduled AttendanceStatus = "Scheduled"
	StatusPresent   AttendanceStatus = "Present"
	StatusAbsent    AttendanceStatus = "Absent"
)

// ShiftOff is the sentinel shift id meaning "off duty".
const ShiftOff = "off"

// Role controls what a user may do in the UI layer.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

// Guard is a scheduled worker. EmployeeID is unique case-insensitively
// across the guard collection (see NormalizeKey).
type Guard struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	EmployeeID     string `json:"employeeId"`
	DefaultShiftID string `json:"defaultShiftId"`
}

// Shift is a named time window a guard can be assigned to.
// The ShiftOff sentinel has empty start/end times.
type Shift struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// ScheduleEntry is the planned shift for one guard on one date.
// Absence of an entry means "use the guard's default shift".
type ScheduleEntry struct {
	GuardID string `json:"guardId"`
	ShiftID string `json:"shiftId"`
}

// AttendanceRecord is the actual outcome for one guard on one date.
//
// CoveredBy names the guard covering this (absent) guard's shift; it is
// never the record's own guard. IsOvertime only has meaning while
// CoveredBy is set - the reducer clears it whenever CoveredBy is cleared
// or the status moves away from Absent.
type AttendanceRecord struct {
	GuardID    string           `json:"guardId"`
	ShiftID    string           `json:"shiftId"`
	Status     AttendanceStatus `json:"status"`
	CoveredBy  string           `json:"coveredBy,omitempty"`
	IsOvertime bool             `json:"isOvertime,omitempty"`
	Notes      string           `json:"notes,omitempty"`
}

// FullSchedule maps ISO date ("2006-01-02") -> guard id -> planned entry.
// Dates are an unordered set keyed by string equality.
type FullSchedule map[string]map[string]ScheduleEntry

// AttendanceTable maps ISO date -> guard id -> attendance record.
type AttendanceTable map[string]map[string]AttendanceRecord

// User is a login account. Passwords are opaque plaintext strings, an
// inherited property of the upstream design.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// ReportType tags which aggregation a template applies to.
type ReportType string

const (
	ReportAttendance       ReportType = "attendance"
	ReportOvertime         ReportType = "overtime"
	ReportOvertimeDetailed ReportType = "overtime_detailed"
)

// ReportTemplate is a saved report configuration: a report type plus the
// ordered set of visible column identifiers. Names are unique
// case-insensitively within the template set.
type ReportTemplate struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Type    ReportType `json:"type"`
	Columns []string   `json:"columns"`
}

// AppState is the aggregate client state. Values are treated as immutable
// once produced by Apply - holders of a snapshot must never mutate it.
type AppState struct {
	Guards          []Guard
	Shifts          []Shift
	Schedule        FullSchedule
	Attendance      AttendanceTable
	Users           []User
	ReportTemplates []ReportTemplate
	Language        string
	Theme           string
	CurrentUser     *User
}

// NewAppState returns the empty initial state.
func NewAppState() AppState {
	return AppState{
		Schedule:   FullSchedule{},
		Attendance: AttendanceTable{},
		Language:   "en",
		Theme:      "light",
	}
}

// GuardByID returns the guard with the given id, if present.
func (s AppState) GuardByID(id string) (Guard, bool) {
	for _, g := range s.Guards {
		if g.ID == id {
			return g, true
		}
	}
	return Guard{}, false
}

// ShiftByID returns the shift with the given id, if present.
func (s AppState) ShiftByID(id string) (Shift, bool) {
	for _, sh := range s.Shifts {
		if sh.ID == id {
			return sh, true
		}
	}
	return Shift{}, false
}

// UserByID returns the user with the given id, if present.
func (s AppState) UserByID(id string) (User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// EffectiveShiftID resolves the shift a guard works on a date: the explicit
// schedule entry when one exists, the guard's default otherwise, and the
// off sentinel when the guard is unknown.
func (s AppState) EffectiveShiftID(date, guardID string) string {
	if daily, ok := s.Schedule[date]; ok {
		if entry, ok := daily[guardID]; ok {
			return entry.ShiftID
		}
	}
	if g, ok := s.GuardByID(guardID); ok && g.DefaultShiftID != "" {
		return g.DefaultShiftID
	}
	return ShiftOff
}
