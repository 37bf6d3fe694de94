package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardianhq/guardian/internal/state"
)

// testConfig writes a config file pointing into a temp directory and
// returns its path. Commands run against it get a private store and
// mirror.
func testConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "guardian.yaml")
	content := fmt.Sprintf("database: %s\nmirror_dir: %s\norigin: test-cli\n",
		filepath.Join(dir, "store.db"), filepath.Join(dir, "mirror"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGuardAddAndList(t *testing.T) {
	cfg := testConfig(t)

	out, err := executeCommand("--config", cfg, "guard", "add", "Test Guard",
		"--employee-id", "20001", "--shift", "b")
	require.NoError(t, err)
	assert.Contains(t, out, "added guard")

	out, err = executeCommand("--config", cfg, "guard", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Test Guard")
	assert.Contains(t, out, "20001")

	// The seeded roster is listed alongside.
	assert.Contains(t, out, "guard-1")
}

func TestGuardAdd_DuplicateExitsWithFailure(t *testing.T) {
	cfg := testConfig(t)

	_, err := executeCommand("--config", cfg, "guard", "add", "First",
		"--employee-id", "20001")
	require.NoError(t, err)

	_, err = executeCommand("--config", cfg, "guard", "add", "Second",
		"--employee-id", "20001")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestGuardList_JSON(t *testing.T) {
	cfg := testConfig(t)

	out, err := executeCommand("--config", cfg, "--format", "json", "guard", "list")
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	guards, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, guards, 14)
}

func TestScheduleSetAndShow(t *testing.T) {
	cfg := testConfig(t)

	_, err := executeCommand("--config", cfg, "schedule", "set", "2024-07-15", "guard-1", "c")
	require.NoError(t, err)

	out, err := executeCommand("--config", cfg, "schedule", "show", "2024-07-15")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-07-15")

	lines := strings.Split(out, "\n")
	found := false
	for _, line := range lines {
		if strings.Contains(line, "guard-1") && strings.Contains(line, "c") {
			found = true
		}
	}
	assert.True(t, found, "explicit entry shown:\n%s", out)
}

func TestScheduleSet_BadDate(t *testing.T) {
	cfg := testConfig(t)

	_, err := executeCommand("--config", cfg, "schedule", "set", "15.07.2024", "guard-1", "c")
	require.Error(t, err)
}

func TestAttendanceMark(t *testing.T) {
	cfg := testConfig(t)

	out, err := executeCommand("--config", cfg, "--format", "json",
		"attendance", "mark", "2024-07-15", "guard-1",
		"--status", "Absent", "--covered-by", "guard-2", "--overtime")
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	rec, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, string(state.StatusAbsent), rec["status"])
	assert.Equal(t, "guard-2", rec["coveredBy"])
	assert.Equal(t, true, rec["isOvertime"])
}

func TestAttendanceMark_UnknownStatus(t *testing.T) {
	cfg := testConfig(t)

	_, err := executeCommand("--config", cfg, "attendance", "mark",
		"2024-07-15", "guard-1", "--status", "Late")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReportExport_CSV(t *testing.T) {
	cfg := testConfig(t)

	_, err := executeCommand("--config", cfg, "attendance", "mark",
		"2024-07-15", "guard-1", "--status", "Present")
	require.NoError(t, err)

	out, err := executeCommand("--config", cfg, "report", "export", "attendance",
		"--from", "2024-07-01", "--to", "2024-07-31")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "guard,employeeId,present,absent,totalScheduled,attendanceRate", lines[0])
	assert.Len(t, lines, 15, "header plus one row per seeded guard")
}

func TestReportExport_ToFile(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "overtime.csv")

	_, err := executeCommand("--config", cfg, "report", "export", "overtime", "-o", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "guard,employeeId,otShifts,otHours"))
}

func TestReportExport_UnknownType(t *testing.T) {
	_, err := executeCommand("--config", testConfig(t), "report", "export", "lateness")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReportExport_UnknownTemplate(t *testing.T) {
	_, err := executeCommand("--config", testConfig(t), "report", "export",
		"attendance", "--template", "No Such Template")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestUserAddListRemove(t *testing.T) {
	cfg := testConfig(t)

	out, err := executeCommand("--config", cfg, "--format", "json", "user", "add")
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	u, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "viewer1", u["username"])
	assert.Equal(t, string(state.RoleViewer), u["role"])

	out, err = executeCommand("--config", cfg, "user", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "viewer1")
	assert.Contains(t, out, "admin")

	_, err = executeCommand("--config", cfg, "user", "remove", u["id"].(string))
	require.NoError(t, err)

	_, err = executeCommand("--config", cfg, "user", "remove", "user-admin")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
