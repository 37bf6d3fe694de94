package gateway

import (
	"context"
	"fmt"

	"github.com/guardianhq/guardian/internal/state"
)

type shiftGateway struct {
	client *Client
}

// List returns the shift catalog ordered by id.
func (g *shiftGateway) List(ctx context.Context) ([]state.Shift, error) {
	rows, err := g.client.store.db.QueryContext(ctx, `
		SELECT id, name, start_time, end_time
		FROM shifts
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	defer rows.Close()

	var shifts []state.Shift
	for rows.Next() {
		var sh state.Shift
		if err := rows.Scan(&sh.ID, &sh.Name, &sh.StartTime, &sh.EndTime); err != nil {
			return nil, fmt.Errorf("scan shift: %w", err)
		}
		shifts = append(shifts, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	return shifts, nil
}

// Insert writes reference shifts. Existing ids are left untouched, so
// seeding an already-populated catalog is harmless.
func (g *shiftGateway) Insert(ctx context.Context, shifts []state.Shift) error {
	for _, sh := range shifts {
		_, err := g.client.store.db.ExecContext(ctx, `
			INSERT INTO shifts (id, name, start_time, end_time)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, sh.ID, sh.Name, sh.StartTime, sh.EndTime)
		if err != nil {
			return fmt.Errorf("insert shift %s: %w", sh.ID, err)
		}
	}
	return nil
}
