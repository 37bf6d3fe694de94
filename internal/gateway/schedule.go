package gateway

import (
	"context"
	"fmt"

	"github.com/guardianhq/guardian/internal/state"
)

type scheduleGateway struct {
	client *Client
}

// ListRange returns every planned entry with startDate <= date <= endDate,
// grouped date -> guard id. Dates with no rows are absent from the result;
// the caller's merge policy decides what that means.
func (g *scheduleGateway) ListRange(ctx context.Context, startDate, endDate string) (state.FullSchedule, error) {
	rows, err := g.client.store.db.QueryContext(ctx, `
		SELECT date, guard_id, shift_id
		FROM schedule
		WHERE date >= ? AND date <= ?
	`, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("list schedule range: %w", err)
	}
	defer rows.Close()

	schedule := state.FullSchedule{}
	for rows.Next() {
		var date, guardID, shiftID string
		if err := rows.Scan(&date, &guardID, &shiftID); err != nil {
			return nil, fmt.Errorf("scan schedule row: %w", err)
		}
		if schedule[date] == nil {
			schedule[date] = make(map[string]state.ScheduleEntry)
		}
		schedule[date][guardID] = state.ScheduleEntry{GuardID: guardID, ShiftID: shiftID}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list schedule range: %w", err)
	}
	return schedule, nil
}

// Upsert writes the single entry for (date, guardID).
func (g *scheduleGateway) Upsert(ctx context.Context, date, guardID, shiftID string) error {
	if shiftID == "" {
		shiftID = state.ShiftOff
	}
	_, err := g.client.store.db.ExecContext(ctx, `
		INSERT INTO schedule (date, guard_id, shift_id)
		VALUES (?, ?, ?)
		ON CONFLICT(date, guard_id) DO UPDATE SET shift_id = excluded.shift_id
	`, date, guardID, shiftID)
	if err != nil {
		return fmt.Errorf("upsert schedule %s/%s: %w", date, guardID, err)
	}

	// Insert and update both translate to the same upsert action on the
	// consumer side, so the feed does not distinguish them.
	g.client.store.scheduleFeed.emit(g.client.id, ScheduleChange{
		Type:    ChangeUpdate,
		Date:    date,
		GuardID: guardID,
		ShiftID: shiftID,
	})
	return nil
}

// SubscribeChanges opens this client's schedule change feed.
func (g *scheduleGateway) SubscribeChanges(handler func(ScheduleChange)) Unsubscribe {
	return g.client.store.scheduleFeed.subscribe(g.client.id, handler)
}
