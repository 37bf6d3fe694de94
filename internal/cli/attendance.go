package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guardianhq/guardian/internal/state"
)

// AttendanceMarkOptions holds flags for attendance mark. Only flags the
// user actually set become part of the partial update.
type AttendanceMarkOptions struct {
	Status    string
	Shift     string
	CoveredBy string
	Overtime  bool
	Notes     string
}

// NewAttendanceCommand creates the attendance command group.
func NewAttendanceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "Record what actually happened on a shift",
	}
	cmd.AddCommand(newAttendanceMarkCommand(rootOpts))
	return cmd
}

func newAttendanceMarkCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AttendanceMarkOptions{}

	cmd := &cobra.Command{
		Use:   "mark <date> <guard-id>",
		Short: "Update a guard's attendance record for one date",
		Long: `Update a guard's attendance record for one date.

Flags form a partial update: omitted flags leave the stored field
unchanged. Passing --covered-by "" clears the cover. A record that is
not Absent cannot keep a cover, and a record without a cover cannot be
overtime; both are enforced on write.

Examples:
  guardian attendance mark 2024-07-15 guard-3 --status Present
  guardian attendance mark 2024-07-15 guard-3 --status Absent --covered-by guard-7 --overtime`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			update := state.AttendanceUpdate{}
			if cmd.Flags().Changed("status") {
				status := state.AttendanceStatus(opts.Status)
				switch status {
				case state.StatusScheduled, state.StatusPresent, state.StatusAbsent:
				default:
					return NewExitError(ExitCommandError, fmt.Sprintf("unknown status %q", opts.Status))
				}
				update.Status = &status
			}
			if cmd.Flags().Changed("shift") {
				update.ShiftID = &opts.Shift
			}
			if cmd.Flags().Changed("covered-by") {
				update.CoveredBy = &opts.CoveredBy
			}
			if cmd.Flags().Changed("overtime") {
				update.IsOvertime = &opts.Overtime
			}
			if cmd.Flags().Changed("notes") {
				update.Notes = &opts.Notes
			}

			sess, err := openSession(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer sess.Close()

			date, guardID := args[0], args[1]
			if err := sess.sync.UpdateAttendance(cmd.Context(), date, guardID, update); err != nil {
				return WrapExitError(ExitFailure, "attendance not updated", err)
			}

			rec := sess.sync.State().Attendance[date][guardID]
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			if rootOpts.Format == "json" {
				return f.Success(rec)
			}
			return f.Success(fmt.Sprintf("%s %s: %s", date, guardID, rec.Status))
		},
	}

	cmd.Flags().StringVar(&opts.Status, "status", "", "attendance status (Scheduled|Present|Absent)")
	cmd.Flags().StringVar(&opts.Shift, "shift", "", "worked shift id")
	cmd.Flags().StringVar(&opts.CoveredBy, "covered-by", "", "covering guard id, empty to clear")
	cmd.Flags().BoolVar(&opts.Overtime, "overtime", false, "the cover counts as overtime")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "free-form note")

	return cmd
}
