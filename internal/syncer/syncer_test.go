package syncer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardianhq/guardian/internal/bus"
	"github.com/guardianhq/guardian/internal/gateway"
	"github.com/guardianhq/guardian/internal/mirror"
	"github.com/guardianhq/guardian/internal/state"
	"github.com/guardianhq/guardian/internal/testutil"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

// All tests run against a pinned clock so the month load and the
// effective-from stamps are stable.
var testNow = testutil.FixedClock(testutil.Date(2024, time.July, 15))

func ptr[T any](v T) *T { return &v }

func openStore(t *testing.T) *gateway.Store {
	t.Helper()
	st, err := gateway.Open(filepath.Join(t.TempDir(), "guardian.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func startSyncer(t *testing.T, st *gateway.Store, origin string, opts ...Option) *Syncer {
	t.Helper()
	opts = append([]Option{WithClock(testNow)}, opts...)
	s := New(origin, ClientGateways(st.NewClient()), opts...)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Close)
	return s
}

func TestStart_BootstrapsEmptyStore(t *testing.T) {
	s := startSyncer(t, openStore(t), "tab-a")
	st := s.State()

	assert.Len(t, st.Shifts, 4)
	assert.Len(t, st.Guards, 14)

	_, ok := st.ShiftByID(state.ShiftOff)
	assert.True(t, ok, "off sentinel seeded")

	// Mirror-less startup falls back to the seeded catalog.
	require.Len(t, st.Users, 1)
	assert.Equal(t, state.RoleAdmin, st.Users[0].Role)
	assert.Len(t, st.ReportTemplates, 2)

	// The current month is materialized even where the store is empty.
	assert.Contains(t, st.Schedule, "2024-07-01")
	assert.Contains(t, st.Schedule, "2024-07-31")
	assert.Contains(t, st.Attendance, "2024-07-15")
	assert.NotContains(t, st.Schedule, "2024-08-01")
}

func TestStart_SecondClientDoesNotReseed(t *testing.T) {
	store := openStore(t)
	startSyncer(t, store, "tab-a")
	b := startSyncer(t, store, "tab-b")

	assert.Len(t, b.State().Guards, 14)
}

func TestAddGuard_WriteThrough(t *testing.T) {
	store := openStore(t)
	s := startSyncer(t, store, "tab-a",
		WithIDGenerator(testutil.NewFixedGenerator("guard-15")))

	created, err := s.AddGuard(context.Background(), "  New Hire ", "AB-101", "b")
	require.NoError(t, err)
	assert.Equal(t, "guard-15", created.ID)
	assert.Equal(t, "New Hire", created.Name)

	g, ok := s.State().GuardByID("guard-15")
	require.True(t, ok)
	assert.Equal(t, "b", g.DefaultShiftID)

	// Schedule entries materialize from today forward with the default.
	assert.Equal(t, "b", s.State().Schedule["2024-07-15"]["guard-15"].ShiftID)
	_, before := s.State().Schedule["2024-07-14"]["guard-15"]
	assert.False(t, before, "no retroactive materialization")

	// And the write reached the store.
	listed, err := store.NewClient().Guards().List(context.Background())
	require.NoError(t, err)
	assert.Len(t, listed, 15)
}

func TestAddGuard_DuplicateEmployeeIDRejectedLocally(t *testing.T) {
	s := startSyncer(t, openStore(t), "tab-a",
		WithIDGenerator(testutil.NewFixedGenerator("guard-15")))

	_, err := s.AddGuard(context.Background(), "First", "AB-101", "a")
	require.NoError(t, err)

	_, err = s.AddGuard(context.Background(), "Second", " ab-101 ", "b")
	require.ErrorIs(t, err, gateway.ErrDuplicateEmployeeID)
	assert.Len(t, s.State().Guards, 15, "rejected guard never entered state")
}

// failingGuards simulates an unreachable remote for guard writes.
type failingGuards struct{ gateway.Guards }

func (failingGuards) Create(context.Context, state.Guard) (state.Guard, error) {
	return state.Guard{}, errors.New("remote unavailable")
}

func TestAddGuard_RemoteFailureLeavesStateUntouched(t *testing.T) {
	store := openStore(t)
	startSyncer(t, store, "seeder") // populate the store first

	sharedBus := bus.New()
	probe := sharedBus.Join("probe")
	defer probe.Close()

	gw := ClientGateways(store.NewClient())
	gw.Guards = failingGuards{gw.Guards}
	s := New("tab-a", gw, WithClock(testNow), WithBus(sharedBus),
		WithIDGenerator(testutil.NewFixedGenerator("guard-x")))
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Close)

	_, err := s.AddGuard(context.Background(), "Ghost", "ZZ-999", "a")
	require.Error(t, err)

	_, ok := s.State().GuardByID("guard-x")
	assert.False(t, ok, "write-through failure must not apply locally")

	select {
	case env := <-probe.Deliveries():
		t.Fatalf("nothing should reach the bus, got %v", env.Action.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

// failingSchedule simulates an unreachable remote for schedule writes.
type failingSchedule struct{ gateway.Schedule }

func (failingSchedule) Upsert(context.Context, string, string, string) error {
	return errors.New("remote unavailable")
}

func TestUpdateSchedule_OptimisticSurvivesRemoteFailure(t *testing.T) {
	store := openStore(t)
	startSyncer(t, store, "seeder")

	gw := ClientGateways(store.NewClient())
	gw.Schedule = failingSchedule{gw.Schedule}
	s := New("tab-a", gw, WithClock(testNow))
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Close)

	require.NoError(t, s.UpdateSchedule(context.Background(), "2024-07-16", "guard-1", "c"))
	assert.Equal(t, "c", s.State().Schedule["2024-07-16"]["guard-1"].ShiftID,
		"local edit survives the failed remote write")
}

func TestUpdateSchedule_RejectsBadDate(t *testing.T) {
	s := startSyncer(t, openStore(t), "tab-a")
	require.Error(t, s.UpdateSchedule(context.Background(), "16/07/2024", "guard-1", "c"))
}

func TestUpdateAttendance_WritesMergedRecord(t *testing.T) {
	store := openStore(t)
	s := startSyncer(t, store, "tab-a")
	ctx := context.Background()

	require.NoError(t, s.UpdateAttendance(ctx, "2024-07-15", "guard-1", state.AttendanceUpdate{
		Status:     ptr(state.StatusAbsent),
		CoveredBy:  ptr("guard-5"),
		IsOvertime: ptr(true),
		Notes:      ptr("sick leave"),
	}))

	rec := s.State().Attendance["2024-07-15"]["guard-1"]
	assert.Equal(t, state.StatusAbsent, rec.Status)
	assert.Equal(t, "guard-5", rec.CoveredBy)
	assert.True(t, rec.IsOvertime)
	assert.Equal(t, "a", rec.ShiftID, "shift defaulted from the guard's default")

	// The store received the full record after the merge rules ran.
	table, err := store.NewClient().Attendance().ListRange(ctx, "2024-07-15", "2024-07-15")
	require.NoError(t, err)
	assert.Equal(t, rec, table["2024-07-15"]["guard-1"])
}

func TestLoadRange_PerDateReplacement(t *testing.T) {
	store := openStore(t)
	startSyncer(t, store, "seeder")
	ctx := context.Background()

	// Another device wrote September data straight to the store.
	other := store.NewClient()
	require.NoError(t, other.Schedule().Upsert(ctx, "2024-09-02", "guard-1", "c"))

	// This client holds local-only edits: one inside the range about to
	// be loaded, one outside it.
	gw := ClientGateways(store.NewClient())
	gw.Schedule = failingSchedule{gw.Schedule}
	s := New("tab-a", gw, WithClock(testNow))
	require.NoError(t, s.Start(ctx))
	t.Cleanup(s.Close)

	require.NoError(t, s.UpdateSchedule(ctx, "2024-09-01", "guard-2", "b"))
	require.NoError(t, s.UpdateSchedule(ctx, "2024-09-05", "guard-3", "a"))

	require.NoError(t, s.LoadRange(ctx, "2024-09-01", "2024-09-03"))

	st := s.State()
	assert.Empty(t, st.Schedule["2024-09-01"], "stale local edit replaced by store contents")
	assert.Equal(t, "c", st.Schedule["2024-09-02"]["guard-1"].ShiftID)
	assert.Contains(t, st.Schedule, "2024-09-03", "empty dates in range are materialized")
	assert.Equal(t, "a", st.Schedule["2024-09-05"]["guard-3"].ShiftID,
		"dates outside the range stay untouched")

	// July's month load is also outside the range and stays.
	assert.Contains(t, st.Schedule, "2024-07-15")
}

func TestLoadRange_Idempotent(t *testing.T) {
	store := openStore(t)
	s := startSyncer(t, store, "tab-a")
	ctx := context.Background()

	require.NoError(t, s.UpdateSchedule(ctx, "2024-07-20", "guard-1", "c"))
	require.NoError(t, s.LoadRange(ctx, "2024-07-01", "2024-07-31"))
	first := s.State()
	require.NoError(t, s.LoadRange(ctx, "2024-07-01", "2024-07-31"))

	assert.Equal(t, first.Schedule, s.State().Schedule)
	assert.Equal(t, first.Attendance, s.State().Attendance)
}

func TestTwoTabs_ConvergeOverBus(t *testing.T) {
	store := openStore(t)
	sharedBus := bus.New()
	a := startSyncer(t, store, "tab-a", WithBus(sharedBus))
	b := startSyncer(t, store, "tab-b", WithBus(sharedBus))
	ctx := context.Background()

	require.NoError(t, a.UpdateSchedule(ctx, "2024-07-16", "guard-1", "c"))
	a.SetTheme("dark")

	require.Eventually(t, func() bool {
		st := b.State()
		return st.Schedule["2024-07-16"]["guard-1"].ShiftID == "c" && st.Theme == "dark"
	}, waitFor, tick, "tab-b never converged")

	// Convergence is not symmetric state transfer: tab-a keeps its own.
	assert.Equal(t, "dark", a.State().Theme)
}

func TestTwoTabs_ConflictingEditsLastWriteWinsPerCopy(t *testing.T) {
	sharedBus := bus.New()
	connA := sharedBus.Join("tab-a")
	defer connA.Close()
	connB := sharedBus.Join("tab-b")
	defer connB.Close()
	tabA := state.NewContainer()
	tabB := state.NewContainer()

	editA := state.UpdateSchedule("2024-07-16", "guard-1", "b")
	editB := state.UpdateSchedule("2024-07-16", "guard-1", "c")

	// Each tab applies its own edit first, then publishes it.
	tabA.Apply(editA)
	connA.Publish(editA)
	tabB.Apply(editB)
	connB.Publish(editB)

	// Then each applies the edit delivered from the other tab.
	tabA.Apply((<-connA.Deliveries()).Action)
	tabB.Apply((<-connB.Deliveries()).Action)

	// The last edit applied wins per copy, so the tabs legitimately
	// disagree until a range reload makes the store authoritative.
	assert.Equal(t, "c", tabA.State().Schedule["2024-07-16"]["guard-1"].ShiftID)
	assert.Equal(t, "b", tabB.State().Schedule["2024-07-16"]["guard-1"].ShiftID)
}

func TestRemoteChange_ArrivesViaFeedWithoutBusEcho(t *testing.T) {
	store := openStore(t)
	sharedBus := bus.New()
	s := startSyncer(t, store, "tab-a", WithBus(sharedBus))
	probe := sharedBus.Join("probe")
	defer probe.Close()
	ctx := context.Background()

	// A different device writes straight through its own client.
	other := store.NewClient()
	require.NoError(t, other.Schedule().Upsert(ctx, "2024-07-18", "guard-2", "c"))
	rec := state.AttendanceRecord{GuardID: "guard-2", ShiftID: "c", Status: state.StatusPresent}
	require.NoError(t, other.Attendance().Upsert(ctx, "2024-07-18", "guard-2", rec))

	require.Eventually(t, func() bool {
		st := s.State()
		return st.Schedule["2024-07-18"]["guard-2"].ShiftID == "c" &&
			st.Attendance["2024-07-18"]["guard-2"].Status == state.StatusPresent
	}, waitFor, tick, "feed change never applied")

	select {
	case env := <-probe.Deliveries():
		t.Fatalf("feed events must not be re-published on the bus, got %v", env.Action.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestGuardDelete_PropagatesToPeerClient(t *testing.T) {
	store := openStore(t)
	a := startSyncer(t, store, "tab-a")
	b := startSyncer(t, store, "tab-b")
	ctx := context.Background()

	require.NoError(t, a.UpdateAttendance(ctx, "2024-07-15", "guard-2", state.AttendanceUpdate{
		Status:     ptr(state.StatusAbsent),
		CoveredBy:  ptr("guard-1"),
		IsOvertime: ptr(true),
	}))
	require.Eventually(t, func() bool {
		return b.State().Attendance["2024-07-15"]["guard-2"].CoveredBy == "guard-1"
	}, waitFor, tick)

	require.NoError(t, a.DeleteGuard(ctx, "guard-1"))

	require.Eventually(t, func() bool {
		_, ok := b.State().GuardByID("guard-1")
		return !ok
	}, waitFor, tick, "delete never reached the peer")

	rec := b.State().Attendance["2024-07-15"]["guard-2"]
	assert.Empty(t, rec.CoveredBy, "dangling cover cleared on the peer")
	assert.False(t, rec.IsOvertime)
}

func TestUsers_MirrorRoundTrip(t *testing.T) {
	store := openStore(t)
	dir := t.TempDir()
	m, err := mirror.Open(dir)
	require.NoError(t, err)

	s := startSyncer(t, store, "tab-a", WithMirror(m),
		WithIDGenerator(testutil.NewFixedGenerator("user-1", "pw-1")))

	u, err := s.AddUser("")
	require.NoError(t, err)
	assert.Equal(t, "viewer1", u.Username, "empty username auto-numbers")
	assert.Equal(t, state.RoleViewer, u.Role)
	assert.Equal(t, "pw-1", u.Password)

	_, err = s.AddUser(" VIEWER1 ")
	require.ErrorIs(t, err, ErrDuplicateUsername)

	// A fresh client on the same mirror sees the directory, not the
	// seeded default.
	s2 := startSyncer(t, store, "tab-b", WithMirror(m))
	require.Len(t, s2.State().Users, 2)
	_, ok := s2.State().UserByID("user-1")
	assert.True(t, ok)
}

func TestDeleteUser_AdminRefused(t *testing.T) {
	s := startSyncer(t, openStore(t), "tab-a",
		WithIDGenerator(testutil.NewFixedGenerator("user-1", "pw-1")))

	assert.False(t, s.DeleteUser("user-admin"))
	assert.False(t, s.DeleteUser("no-such-user"))

	u, err := s.AddUser("temp")
	require.NoError(t, err)
	assert.True(t, s.DeleteUser(u.ID))
	_, ok := s.State().UserByID(u.ID)
	assert.False(t, ok)
}

func TestLoginLogout(t *testing.T) {
	s := startSyncer(t, openStore(t), "tab-a")

	_, err := s.Login("admin", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, s.State().CurrentUser)

	u, err := s.Login("admin", "admin")
	require.NoError(t, err)
	assert.Equal(t, state.RoleAdmin, u.Role)
	require.NotNil(t, s.State().CurrentUser)
	assert.Equal(t, "admin", s.State().CurrentUser.Username)

	s.Logout()
	assert.Nil(t, s.State().CurrentUser)
}

func TestReportTemplates_AddDeletePersist(t *testing.T) {
	store := openStore(t)
	m, err := mirror.Open(t.TempDir())
	require.NoError(t, err)
	s := startSyncer(t, store, "tab-a", WithMirror(m),
		WithIDGenerator(testutil.NewFixedGenerator("template-1")))

	_, err = s.AddReportTemplate(" monthly attendance ", state.ReportAttendance, []string{"guard"})
	require.ErrorIs(t, err, ErrDuplicateTemplateName, "built-in names are reserved")

	_, err = s.AddReportTemplate("Night Cover", "bogus", []string{"guard"})
	require.Error(t, err)

	tpl, err := s.AddReportTemplate("Night Cover", state.ReportOvertimeDetailed,
		[]string{"date", "guard", "shift"})
	require.NoError(t, err)
	assert.Equal(t, "template-1", tpl.ID)

	saved, err := m.LoadTemplates()
	require.NoError(t, err)
	assert.Len(t, saved, 3)

	s.DeleteReportTemplate("template-1")
	saved, err = m.LoadTemplates()
	require.NoError(t, err)
	assert.Len(t, saved, 2)
}

func TestSetLanguage_LocalOnly(t *testing.T) {
	store := openStore(t)
	sharedBus := bus.New()
	a := startSyncer(t, store, "tab-a", WithBus(sharedBus))
	b := startSyncer(t, store, "tab-b", WithBus(sharedBus))

	a.SetLanguage("lo")
	a.SetTheme("dark") // broadcast marker to order against

	require.Eventually(t, func() bool {
		return b.State().Theme == "dark"
	}, waitFor, tick)
	assert.Equal(t, "lo", a.State().Language)
	assert.Equal(t, "en", b.State().Language, "language preference is per device")
}
