// Package report aggregates schedule and attendance data over a date
// range into the three report shapes the UI offers: per-guard attendance
// summary, per-guard overtime summary, and the overtime detail breakdown.
package report

import (
	"sort"

	"github.com/guardianhq/guardian/internal/state"
)

// overtimeShiftHours is the hour credit for one covered shift.
const overtimeShiftHours = 8

// AttendanceRow is one guard's attendance summary over the range.
type AttendanceRow struct {
	GuardID        string
	Present        int
	Absent         int
	TotalScheduled int
}

// Rate is the attendance percentage, zero when nothing was scheduled.
func (r AttendanceRow) Rate() float64 {
	if r.TotalScheduled == 0 {
		return 0
	}
	return float64(r.Present) / float64(r.TotalScheduled) * 100
}

// OvertimeRow is one covering guard's overtime summary over the range.
type OvertimeRow struct {
	GuardID    string
	Shifts     int
	TotalHours int
}

// OvertimeDetailRow is one covered shift: who covered whom, when, and on
// which shift.
type OvertimeDetailRow struct {
	Date          string
	CoveringGuard string
	CoveredGuard  string
	ShiftID       string
}

// Report bundles all three aggregations for one date range.
type Report struct {
	Attendance      []AttendanceRow
	Overtime        []OvertimeRow
	OvertimeDetails []OvertimeDetailRow
}

// Generate walks [start, end] inclusive and aggregates. A guard counts as
// scheduled on a date when its effective shift (explicit entry, else its
// default) is not the off sentinel. Overtime accrues to the covering
// guard for every record marked overtime with a cover assigned.
//
// Output ordering is deterministic: attendance rows follow the guard
// collection order, overtime rows sort by guard id, detail rows sort by
// date then covering guard.
func Generate(s state.AppState, start, end string) Report {
	attendance := make([]AttendanceRow, len(s.Guards))
	index := make(map[string]int, len(s.Guards))
	for i, g := range s.Guards {
		attendance[i] = AttendanceRow{GuardID: g.ID}
		index[g.ID] = i
	}

	overtime := make(map[string]*OvertimeRow)
	var details []OvertimeDetailRow

	for _, date := range state.IterateDates(start, end) {
		dailyAttendance := s.Attendance[date]

		for _, g := range s.Guards {
			i := index[g.ID]
			if s.EffectiveShiftID(date, g.ID) != state.ShiftOff {
				attendance[i].TotalScheduled++
			}
			switch dailyAttendance[g.ID].Status {
			case state.StatusPresent:
				attendance[i].Present++
			case state.StatusAbsent:
				attendance[i].Absent++
			}
		}

		for _, rec := range dailyAttendance {
			if !rec.IsOvertime || rec.CoveredBy == "" {
				continue
			}
			row, ok := overtime[rec.CoveredBy]
			if !ok {
				row = &OvertimeRow{GuardID: rec.CoveredBy}
				overtime[rec.CoveredBy] = row
			}
			row.Shifts++
			row.TotalHours += overtimeShiftHours
			details = append(details, OvertimeDetailRow{
				Date:          date,
				CoveringGuard: rec.CoveredBy,
				CoveredGuard:  rec.GuardID,
				ShiftID:       rec.ShiftID,
			})
		}
	}

	overtimeRows := make([]OvertimeRow, 0, len(overtime))
	for _, row := range overtime {
		overtimeRows = append(overtimeRows, *row)
	}
	sort.Slice(overtimeRows, func(i, j int) bool {
		return overtimeRows[i].GuardID < overtimeRows[j].GuardID
	})
	sort.Slice(details, func(i, j int) bool {
		if details[i].Date != details[j].Date {
			return details[i].Date < details[j].Date
		}
		return details[i].CoveringGuard < details[j].CoveringGuard
	})

	return Report{
		Attendance:      attendance,
		Overtime:        overtimeRows,
		OvertimeDetails: details,
	}
}
