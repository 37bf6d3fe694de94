package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewUserCommand creates the user command group.
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage login accounts",
	}
	cmd.AddCommand(newUserListCommand(rootOpts))
	cmd.AddCommand(newUserAddCommand(rootOpts))
	cmd.AddCommand(newUserRemoveCommand(rootOpts))
	return cmd
}

func newUserListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List accounts",
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
				return f.Success(st.Users)
			}
			for _, u := range st.Users {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s  %-8s  %s\n", u.ID, u.Role, u.Username)
			}
			return nil
		},
	}
}

func newUserAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add [username]",
		Short: "Create a viewer account with a generated password",
		Long: `Create a viewer account with a generated password.

Without a username, accounts auto-number as viewer1, viewer2, and so
on. The generated password is printed once; it cannot be recovered
later.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer sess.Close()

			username := ""
			if len(args) == 1 {
				username = args[0]
			}
			u, err := sess.sync.AddUser(username)
			if err != nil {
				return WrapExitError(ExitFailure, "user not added", err)
			}

			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			if rootOpts.Format == "json" {
				return f.Success(u)
			}
			return f.Success(fmt.Sprintf("added %s (%s) password: %s", u.Username, u.ID, u.Password))
		},
	}
}

func newUserRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "remove <user-id>",
		Short:         "Remove a viewer account",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer sess.Close()

			if !sess.sync.DeleteUser(args[0]) {
				return NewExitError(ExitFailure,
					fmt.Sprintf("user %s not removed (unknown id or admin account)", args[0]))
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Success(fmt.Sprintf("removed user %s", args[0]))
		},
	}
}
