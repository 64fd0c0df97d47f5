package authctl

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) mfaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mfa",
		Short: "Manage two-factor enrollment",
	}

	var email string
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Turn two-factor off for a user who lost their authenticator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := c.ctx(cmd)
			u, err := c.env.Users.GetUserByEmail(ctx, email)
			if err != nil {
				return fmt.Errorf("looking up %s: %w", email, err)
			}
			if err := c.env.TwoFactor.Disable(ctx, u); err != nil {
				return fmt.Errorf("resetting two-factor: %w", err)
			}
			return c.print(cmd.OutOrStdout(),
				map[string]any{"id": u.ID, "two_factor_enabled": false},
				"Two-factor reset for %s", u.Email)
		},
	}
	reset.Flags().StringVar(&email, "email", "", "Email address")
	_ = reset.MarkFlagRequired("email")

	cmd.AddCommand(reset)
	return cmd
}

func (c *cli) sessionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage login sessions",
	}

	var email string
	revoke := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke every session of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := c.ctx(cmd)
			u, err := c.env.Users.GetUserByEmail(ctx, email)
			if err != nil {
				return fmt.Errorf("looking up %s: %w", email, err)
			}
			n, err := c.env.Sessions.InvalidateAll(ctx, u.ID)
			if err != nil {
				return fmt.Errorf("revoking sessions: %w", err)
			}
			return c.print(cmd.OutOrStdout(), map[string]any{"revoked": n}, "Revoked %d session(s) for %s", n, u.Email)
		},
	}
	revoke.Flags().StringVar(&email, "email", "", "Email address")
	_ = revoke.MarkFlagRequired("email")

	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete expired sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := c.env.Sessions.Purge(c.ctx(cmd))
			if err != nil {
				return fmt.Errorf("purging sessions: %w", err)
			}
			return c.print(cmd.OutOrStdout(), map[string]any{"purged": n}, "Purged %d expired session(s)", n)
		},
	}

	cmd.AddCommand(revoke, purge)
	return cmd
}
