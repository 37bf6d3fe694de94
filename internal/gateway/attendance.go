package gateway

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/guardianhq/guardian/internal/state"
)

type attendanceGateway struct {
	client *Client
}

// ListRange returns every attendance record with startDate <= date <=
// endDate, grouped date -> guard id.
func (g *attendanceGateway) ListRange(ctx context.Context, startDate, endDate string) (state.AttendanceTable, error) {
	rows, err := g.client.store.db.QueryContext(ctx, `
		SELECT date, guard_id, shift_id, status, covered_by, is_overtime, notes
		FROM attendance
		WHERE date >= ? AND date <= ?
	`, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("list attendance range: %w", err)
	}
	defer rows.Close()

	table := state.AttendanceTable{}
	for rows.Next() {
		date, rec, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		if table[date] == nil {
			table[date] = make(map[string]state.AttendanceRecord)
		}
		table[date][rec.GuardID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list attendance range: %w", err)
	}
	return table, nil
}

// Upsert writes the full record for (date, guardID). The client sends the
// merged record, not the partial update, so the stored row never mixes
// fields from divergent local views.
func (g *attendanceGateway) Upsert(ctx context.Context, date, guardID string, rec state.AttendanceRecord) error {
	coveredBy := sql.NullString{String: rec.CoveredBy, Valid: rec.CoveredBy != ""}
	_, err := g.client.store.db.ExecContext(ctx, `
		INSERT INTO attendance (date, guard_id, shift_id, status, covered_by, is_overtime, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date, guard_id) DO UPDATE SET
			shift_id = excluded.shift_id,
			status = excluded.status,
			covered_by = excluded.covered_by,
			is_overtime = excluded.is_overtime,
			notes = excluded.notes
	`, date, guardID, rec.ShiftID, string(rec.Status), coveredBy, rec.IsOvertime, rec.Notes)
	if err != nil {
		return fmt.Errorf("upsert attendance %s/%s: %w", date, guardID, err)
	}

	rec.GuardID = guardID
	g.client.store.attendanceFeed.emit(g.client.id, AttendanceChange{
		Type:    ChangeUpdate,
		Date:    date,
		GuardID: guardID,
		Record:  rec,
	})
	return nil
}

// SubscribeChanges opens this client's attendance change feed.
func (g *attendanceGateway) SubscribeChanges(handler func(AttendanceChange)) Unsubscribe {
	return g.client.store.attendanceFeed.subscribe(g.client.id, handler)
}

func scanAttendance(rows *sql.Rows) (string, state.AttendanceRecord, error) {
	var (
		date      string
		rec       state.AttendanceRecord
		status    string
		coveredBy sql.NullString
	)
	if err := rows.Scan(&date, &rec.GuardID, &rec.ShiftID, &status, &coveredBy, &rec.IsOvertime, &rec.Notes); err != nil {
		return "", state.AttendanceRecord{}, fmt.Errorf("scan attendance row: %w", err)
	}
	rec.Status = state.AttendanceStatus(status)
	if rec.Status == "" {
		rec.Status = state.StatusScheduled
	}
	rec.CoveredBy = coveredBy.String
	return date, rec, nil
}
