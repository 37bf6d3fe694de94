package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/guardianhq/guardian/internal/state"
)

// Column identifiers per report type, in canonical order. A template's
// column set filters these; identifiers a template carries but the type
// does not define are ignored.
var columnsByType = map[state.ReportType][]string{
	state.ReportAttendance:       {"guard", "employeeId", "present", "absent", "totalScheduled", "attendanceRate"},
	state.ReportOvertime:         {"guard", "employeeId", "otShifts", "otHours"},
	state.ReportOvertimeDetailed: {"date", "guard", "guardId", "coveredFor", "coveredForId", "shift"},
}

// Columns returns the canonical column identifiers for a report type,
// or nil for an unknown type.
func Columns(typ state.ReportType) []string {
	return append([]string(nil), columnsByType[typ]...)
}

// WriteCSV renders the slice of the report selected by the template to w.
// Guards and shifts resolve ids to display names; unknown ids render as
// the raw id rather than failing the export.
func WriteCSV(w io.Writer, r Report, tpl state.ReportTemplate, s state.AppState) error {
	canonical, ok := columnsByType[tpl.Type]
	if !ok {
		return fmt.Errorf("unknown report type %q", tpl.Type)
	}

	visible := make(map[string]bool, len(tpl.Columns))
	for _, c := range tpl.Columns {
		visible[c] = true
	}
	var columns []string
	for _, c := range canonical {
		if visible[c] {
			columns = append(columns, c)
		}
	}
	if len(columns) == 0 {
		return fmt.Errorf("template %q selects no columns for type %q", tpl.Name, tpl.Type)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	switch tpl.Type {
	case state.ReportAttendance:
		for _, row := range r.Attendance {
			if err := cw.Write(attendanceFields(columns, row, s)); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	case state.ReportOvertime:
		for _, row := range r.Overtime {
			if err := cw.Write(overtimeFields(columns, row, s)); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	case state.ReportOvertimeDetailed:
		for _, row := range r.OvertimeDetails {
			if err := cw.Write(detailFields(columns, row, s)); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func attendanceFields(columns []string, row AttendanceRow, s state.AppState) []string {
	fields := make([]string, 0, len(columns))
	for _, c := range columns {
		switch c {
		case "guard":
			fields = append(fields, guardName(s, row.GuardID))
		case "employeeId":
			fields = append(fields, employeeID(s, row.GuardID))
		case "present":
			fields = append(fields, fmt.Sprintf("%d", row.Present))
		case "absent":
			fields = append(fields, fmt.Sprintf("%d", row.Absent))
		case "totalScheduled":
			fields = append(fields, fmt.Sprintf("%d", row.TotalScheduled))
		case "attendanceRate":
			fields = append(fields, fmt.Sprintf("%.1f%%", row.Rate()))
		}
	}
	return fields
}

func overtimeFields(columns []string, row OvertimeRow, s state.AppState) []string {
	fields := make([]string, 0, len(columns))
	for _, c := range columns {
		switch c {
		case "guard":
			fields = append(fields, guardName(s, row.GuardID))
		case "employeeId":
			fields = append(fields, employeeID(s, row.GuardID))
		case "otShifts":
			fields = append(fields, fmt.Sprintf("%d", row.Shifts))
		case "otHours":
			fields = append(fields, fmt.Sprintf("%d", row.TotalHours))
		}
	}
	return fields
}

func detailFields(columns []string, row OvertimeDetailRow, s state.AppState) []string {
	fields := make([]string, 0, len(columns))
	for _, c := range columns {
		switch c {
		case "date":
			fields = append(fields, row.Date)
		case "guard":
			fields = append(fields, guardName(s, row.CoveringGuard))
		case "guardId":
			fields = append(fields, employeeID(s, row.CoveringGuard))
		case "coveredFor":
			fields = append(fields, guardName(s, row.CoveredGuard))
		case "coveredForId":
			fields = append(fields, employeeID(s, row.CoveredGuard))
		case "shift":
			fields = append(fields, shiftName(s, row.ShiftID))
		}
	}
	return fields
}

func guardName(s state.AppState, id string) string {
	if g, ok := s.GuardByID(id); ok {
		return g.Name
	}
	return id
}

func employeeID(s state.AppState, id string) string {
	if g, ok := s.GuardByID(id); ok {
		return g.EmployeeID
	}
	return id
}

func shiftName(s state.AppState, id string) string {
	if sh, ok := s.ShiftByID(id); ok {
		return sh.Name
	}
	return id
}
