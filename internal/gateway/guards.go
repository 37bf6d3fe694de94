package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/guardianhq/guardian/internal/state"
)

type guardGateway struct {
	client *Client
}

const guardColumns = "id, name, employee_id, default_shift_id"

// List returns every guard ordered by name.
func (g *guardGateway) List(ctx context.Context) ([]state.Guard, error) {
	rows, err := g.client.store.db.QueryContext(ctx, `
		SELECT `+guardColumns+`
		FROM guards
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list guards: %w", err)
	}
	defer rows.Close()

	var guards []state.Guard
	for rows.Next() {
		guard, err := scanGuard(rows)
		if err != nil {
			return nil, err
		}
		guards = append(guards, guard)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list guards: %w", err)
	}
	return guards, nil
}

// Create inserts a guard and returns the stored row. A taken employee id
// (case-insensitive) yields ErrDuplicateEmployeeID.
func (g *guardGateway) Create(ctx context.Context, guard state.Guard) (state.Guard, error) {
	if guard.DefaultShiftID == "" {
		guard.DefaultShiftID = state.ShiftOff
	}
	_, err := g.client.store.db.ExecContext(ctx, `
		INSERT INTO guards (id, name, employee_id, employee_id_key, default_shift_id)
		VALUES (?, ?, ?, ?, ?)
	`,
		guard.ID,
		guard.Name,
		guard.EmployeeID,
		state.NormalizeKey(guard.EmployeeID),
		guard.DefaultShiftID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return state.Guard{}, fmt.Errorf("create guard %q: %w", guard.EmployeeID, ErrDuplicateEmployeeID)
		}
		return state.Guard{}, fmt.Errorf("create guard: %w", err)
	}

	g.client.store.guardFeed.emit(g.client.id, GuardChange{Type: ChangeInsert, Guard: guard})
	return guard, nil
}

// Update replaces a guard row and returns the stored value.
func (g *guardGateway) Update(ctx context.Context, guard state.Guard) (state.Guard, error) {
	if guard.DefaultShiftID == "" {
		guard.DefaultShiftID = state.ShiftOff
	}
	res, err := g.client.store.db.ExecContext(ctx, `
		UPDATE guards
		SET name = ?, employee_id = ?, employee_id_key = ?, default_shift_id = ?
		WHERE id = ?
	`,
		guard.Name,
		guard.EmployeeID,
		state.NormalizeKey(guard.EmployeeID),
		guard.DefaultShiftID,
		guard.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return state.Guard{}, fmt.Errorf("update guard %q: %w", guard.EmployeeID, ErrDuplicateEmployeeID)
		}
		return state.Guard{}, fmt.Errorf("update guard: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return state.Guard{}, fmt.Errorf("update guard: %w", err)
	}
	if affected == 0 {
		return state.Guard{}, fmt.Errorf("update guard: no guard with id %s", guard.ID)
	}

	g.client.store.guardFeed.emit(g.client.id, GuardChange{Type: ChangeUpdate, Guard: guard})
	return guard, nil
}

// Delete removes a guard row together with its schedule and attendance
// rows (the store is authoritative; clients replay the same cascade in
// their reducers). Deleting an id that has no row is a no-op and emits
// no change, so peers never see a delete for a guard that never was.
func (g *guardGateway) Delete(ctx context.Context, guardID string) error {
	tx, err := g.client.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete guard: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM guards WHERE id = ?`, guardID)
	if err != nil {
		return fmt.Errorf("delete guard: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete guard: %w", err)
	}
	if affected == 0 {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule WHERE guard_id = ?`, guardID); err != nil {
		return fmt.Errorf("delete guard schedule rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance WHERE guard_id = ?`, guardID); err != nil {
		return fmt.Errorf("delete guard attendance rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE attendance SET covered_by = NULL, is_overtime = 0 WHERE covered_by = ?
	`, guardID); err != nil {
		return fmt.Errorf("clear guard covers: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete guard: %w", err)
	}

	g.client.store.guardFeed.emit(g.client.id, GuardChange{Type: ChangeDelete, Guard: state.Guard{ID: guardID}})
	return nil
}

// SubscribeChanges opens this client's guard change feed.
func (g *guardGateway) SubscribeChanges(handler func(GuardChange)) Unsubscribe {
	return g.client.store.guardFeed.subscribe(g.client.id, handler)
}

func scanGuard(rows *sql.Rows) (state.Guard, error) {
	var guard state.Guard
	if err := rows.Scan(&guard.ID, &guard.Name, &guard.EmployeeID, &guard.DefaultShiftID); err != nil {
		return state.Guard{}, fmt.Errorf("scan guard: %w", err)
	}
	return guard, nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
