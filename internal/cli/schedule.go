package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guardianhq/guardian/internal/state"
)

// NewScheduleCommand creates the schedule command group.
func NewScheduleCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "View and edit the shift plan",
	}
	cmd.AddCommand(newScheduleSetCommand(rootOpts))
	cmd.AddCommand(newScheduleShowCommand(rootOpts))
	return cmd
}

func newScheduleSetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <date> <guard-id> <shift-id>",
		Short: "Set a guard's planned shift for one date",
		Long: `Set a guard's planned shift for one date.

The edit applies immediately and is written to the shared store
best-effort. Dates use the 2006-01-02 layout.

Example:
  guardian schedule set 2024-07-15 guard-3 c`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.sync.UpdateSchedule(cmd.Context(), args[0], args[1], args[2]); err != nil {
				return WrapExitError(ExitFailure, "schedule not updated", err)
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Success(fmt.Sprintf("%s: %s -> %s", args[0], args[1], args[2]))
		},
	}
}

// scheduleDay is the JSON shape for one date of schedule output.
type scheduleDay struct {
	Date   string            `json:"date"`
	Shifts map[string]string `json:"shifts"` // guard id -> effective shift id
}

func newScheduleShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <start-date> [end-date]",
		Short:         "Show the effective schedule for a date range",
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := args[0]
			end := start
			if len(args) == 2 {
				end = args[1]
			}
			dates := state.IterateDates(start, end)
			if len(dates) == 0 {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid date range %s..%s", start, end))
			}

			sess, err := openSession(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.sync.LoadRange(cmd.Context(), start, end); err != nil {
				return WrapExitError(ExitCommandError, "failed to load range", err)
			}
			st := sess.sync.State()

			days := make([]scheduleDay, 0, len(dates))
			for _, d := range dates {
				day := scheduleDay{Date: d, Shifts: make(map[string]string, len(st.Guards))}
				for _, g := range st.Guards {
					day.Shifts[g.ID] = st.EffectiveShiftID(d, g.ID)
				}
				days = append(days, day)
			}

			if rootOpts.Format == "json" {
				f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
				return f.Success(days)
			}
			for _, day := range days {
				fmt.Fprintln(cmd.OutOrStdout(), day.Date)
				for _, g := range st.Guards {
					fmt.Fprintf(cmd.OutOrStdout(), "  %-12s  %-6s  %s\n",
						g.ID, day.Shifts[g.ID], g.Name)
				}
			}
			return nil
		},
	}
}
