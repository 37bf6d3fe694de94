package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guardianhq/guardian/internal/gateway"
)

// NewGuardCommand creates the guard command group.
func NewGuardCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guard",
		Short: "Manage the guard roster",
	}
	cmd.AddCommand(newGuardListCommand(rootOpts))
	cmd.AddCommand(newGuardAddCommand(rootOpts))
	cmd.AddCommand(newGuardRemoveCommand(rootOpts))
	return cmd
}

func newGuardListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List all guards",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer sess.Close()

			st := sess.sync.State()
			if rootOpts.Format == "json" {
				f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
				return f.Success(st.Guards)
			}
			for _, g := range st.Guards {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s  %-8s  %-6s  %s\n",
					g.ID, g.EmployeeID, g.DefaultShiftID, g.Name)
			}
			return nil
		},
	}
}

// GuardAddOptions holds flags for guard add.
type GuardAddOptions struct {
	EmployeeID string
	Shift      string
}

func newGuardAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GuardAddOptions{}

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a guard to the roster",
		Long: `Add a guard to the roster.

The employee id must be unique across the roster (compared
case-insensitively). The guard is scheduled on their default shift from
today forward; past dates are untouched.

Example:
  guardian guard add "ທ ຄໍາ" --employee-id 14901 --shift b`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer sess.Close()

			g, err := sess.sync.AddGuard(cmd.Context(), args[0], opts.EmployeeID, opts.Shift)
			if errors.Is(err, gateway.ErrDuplicateEmployeeID) {
				return WrapExitError(ExitFailure, "guard not added", err)
			}
			if err != nil {
				return WrapExitError(ExitCommandError, "guard not added", err)
			}

			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			if rootOpts.Format == "json" {
				return f.Success(g)
			}
			return f.Success(fmt.Sprintf("added guard %s (%s)", g.ID, g.Name))
		},
	}

	cmd.Flags().StringVar(&opts.EmployeeID, "employee-id", "", "unique employee id (required)")
	cmd.Flags().StringVar(&opts.Shift, "shift", "", "default shift id (defaults to off)")
	_ = cmd.MarkFlagRequired("employee-id")

	return cmd
}

func newGuardRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "remove <guard-id>",
		Short:         "Remove a guard and all their schedule and attendance rows",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.sync.DeleteGuard(cmd.Context(), args[0]); err != nil {
				return WrapExitError(ExitFailure, "guard not removed", err)
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Success(fmt.Sprintf("removed guard %s", args[0]))
		},
	}
}
