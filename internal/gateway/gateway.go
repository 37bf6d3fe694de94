package gateway

import (
	"context"
	"errors"

	"github.com/guardianhq/guardian/internal/state"
)

// ErrDuplicateEmployeeID is returned by guard creation or update when the
// (case-insensitive) employee id is already taken by another guard.
var ErrDuplicateEmployeeID = errors.New("employee id already in use")

// ChangeType classifies a change-feed event.
type ChangeType string

const (
	ChangeInsert ChangeType = "insert"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// GuardChange is one guard collection change-feed event. For deletes only
// Guard.ID is populated.
type GuardChange struct {
	Type  ChangeType
	Guard state.Guard
}

// ScheduleChange is one schedule collection change-feed event.
type ScheduleChange struct {
	Type    ChangeType
	Date    string
	GuardID string
	ShiftID string
}

// AttendanceChange is one attendance collection change-feed event.
type AttendanceChange struct {
	Type    ChangeType
	Date    string
	GuardID string
	Record  state.AttendanceRecord
}

// Unsubscribe tears down a change-feed subscription. Callers must invoke
// it on teardown; an orphaned subscription keeps delivering into a handler
// that nobody reads.
type Unsubscribe func()

// Guards is the guard collection gateway. Guard identity mutations are the
// strict, write-through entities of the consistency model.
type Guards interface {
	List(ctx context.Context) ([]state.Guard, error)
	Create(ctx context.Context, g state.Guard) (state.Guard, error)
	Update(ctx context.Context, g state.Guard) (state.Guard, error)
	Delete(ctx context.Context, guardID string) error
	SubscribeChanges(handler func(GuardChange)) Unsubscribe
}

// Shifts is the immutable reference-data gateway. Seeded once when empty.
type Shifts interface {
	List(ctx context.Context) ([]state.Shift, error)
	Insert(ctx context.Context, shifts []state.Shift) error
}

// Schedule is the planned-shift gateway, keyed by (date, guardID).
type Schedule interface {
	ListRange(ctx context.Context, startDate, endDate string) (state.FullSchedule, error)
	Upsert(ctx context.Context, date, guardID, shiftID string) error
	SubscribeChanges(handler func(ScheduleChange)) Unsubscribe
}

// Attendance is the attendance outcome gateway, keyed by (date, guardID).
type Attendance interface {
	ListRange(ctx context.Context, startDate, endDate string) (state.AttendanceTable, error)
	Upsert(ctx context.Context, date, guardID string, rec state.AttendanceRecord) error
	SubscribeChanges(handler func(AttendanceChange)) Unsubscribe
}
