package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/guardianhq/guardian/internal/gateway"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow live changes to the shared store",
		Long: `Follow live changes to the shared store.

Subscribes to the guard, schedule, and attendance change feeds and
prints one line per change made by other clients until interrupted.

Example:
  guardian watch --config guardian.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(rootOpts, cmd)
		},
	}
}

func runWatch(opts *RootOptions, cmd *cobra.Command) error {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sess, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer sess.Close()

	// A dedicated client for printing. This command originates no writes,
	// so the feeds deliver every other client's changes here.
	watcher := sess.store.NewClient()
	out := cmd.OutOrStdout()

	unsubGuards := watcher.Guards().SubscribeChanges(func(ch gateway.GuardChange) {
		fmt.Fprintf(out, "guard %-7s %s %s\n", ch.Type, ch.Guard.ID, ch.Guard.Name)
	})
	defer unsubGuards()
	unsubSchedule := watcher.Schedule().SubscribeChanges(func(ch gateway.ScheduleChange) {
		fmt.Fprintf(out, "schedule %-7s %s %s -> %s\n", ch.Type, ch.Date, ch.GuardID, ch.ShiftID)
	})
	defer unsubSchedule()
	unsubAttendance := watcher.Attendance().SubscribeChanges(func(ch gateway.AttendanceChange) {
		fmt.Fprintf(out, "attendance %-7s %s %s %s\n", ch.Type, ch.Date, ch.GuardID, ch.Record.Status)
	})
	defer unsubAttendance()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	fmt.Fprintln(out, "Watching for changes. Press Ctrl-C to stop.")

	select {
	case sig := <-sigChan:
		fmt.Fprintf(out, "received %v, stopping\n", sig)
	case <-ctx.Done():
	}
	return nil
}
