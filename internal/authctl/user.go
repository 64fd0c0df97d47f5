package authctl

import (
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
	"github.com/spf13/cobra"
)

type userView struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	AuthMethod       string    `json:"auth_method"`
	HasPassword      bool      `json:"has_password"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
	TwoFactorPending bool      `json:"two_factor_pending"`
	SubscriptionTier string    `json:"subscription_tier"`
	Credits          int64     `json:"credits"`
	CreatedAt        time.Time `json:"created_at"`

	Identities []identityView `json:"identities,omitempty"`
}

type identityView struct {
	Provider   string    `json:"provider"`
	ExternalID string    `json:"external_id"`
	LinkedAt   time.Time `json:"linked_at"`
}

func viewOf(u domain.User, links ...domain.OAuthIdentity) userView {
	ids := make([]identityView, 0, len(links))
	for _, l := range links {
		ids = append(ids, identityView{Provider: string(l.Provider), ExternalID: l.ExternalID, LinkedAt: l.CreatedAt})
	}
	return userView{
		Identities:       ids,
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		AuthMethod:       string(u.AuthMethod),
		HasPassword:      u.HasPassword(),
		TwoFactorEnabled: u.TwoFactorEnabled,
		TwoFactorPending: u.TwoFactorPending(),
		SubscriptionTier: u.SubscriptionTier,
		Credits:          u.Credits,
		CreatedAt:        u.CreatedAt,
	}
}

func (c *cli) userCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(c.userCreateCommand(), c.userShowCommand(), c.userSetPasswordCommand(), c.userSetPlanCommand())
	return cmd
}

func (c *cli) userCreateCommand() *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a password account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.env.Users.Register(c.ctx(cmd), email, password, name)
			if err != nil {
				return fmt.Errorf("creating user: %w", err)
			}
			return c.print(cmd.OutOrStdout(), viewOf(u), "Created user %s (id: %s)", u.Email, u.ID)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Initial password")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) userShowCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := c.ctx(cmd)
			u, err := c.env.Users.GetUserByEmail(ctx, email)
			if err != nil {
				return fmt.Errorf("looking up %s: %w", email, err)
			}
			links, err := c.env.Users.Identities(ctx, u.ID)
			if err != nil {
				return fmt.Errorf("listing identities: %w", err)
			}
			v := viewOf(u, links...)
			return c.print(cmd.OutOrStdout(), v,
				"ID:          %s\nEmail:       %s\nName:        %s\nAuth method: %s\nPassword:    %t\nTwo-factor:  %s\nPlan:        %s (%d credits)\nLinked:      %s",
				v.ID, v.Email, v.Name, v.AuthMethod, v.HasPassword, twoFactorState(u), v.SubscriptionTier, v.Credits, linkedProviders(v.Identities))
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *cli) userSetPasswordCommand() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "set-password",
		Short: "Set a password, also for accounts that only sign in through a provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := c.ctx(cmd)
			u, err := c.env.Users.GetUserByEmail(ctx, email)
			if err != nil {
				return fmt.Errorf("looking up %s: %w", email, err)
			}
			if err := c.env.Users.SetPassword(ctx, u.ID, password); err != nil {
				return fmt.Errorf("setting password: %w", err)
			}
			return c.print(cmd.OutOrStdout(),
				map[string]any{"id": u.ID, "has_password": true},
				"Password set for %s", u.Email)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "New password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) userSetPlanCommand() *cobra.Command {
	var (
		email, tier string
		credits     int64
	)

	cmd := &cobra.Command{
		Use:   "set-plan",
		Short: "Set subscription tier and credits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := c.ctx(cmd)
			u, err := c.env.Users.GetUserByEmail(ctx, email)
			if err != nil {
				return fmt.Errorf("looking up %s: %w", email, err)
			}
			if err := c.env.Users.SetSubscription(ctx, u.ID, tier, credits); err != nil {
				return fmt.Errorf("updating plan: %w", err)
			}
			return c.print(cmd.OutOrStdout(),
				map[string]any{"id": u.ID, "subscription_tier": tier, "credits": credits},
				"Plan for %s set to %s (%d credits)", u.Email, tier, credits)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&tier, "tier", domain.DefaultSubscriptionTier, "Subscription tier")
	cmd.Flags().Int64Var(&credits, "credits", 0, "Credit balance")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func linkedProviders(ids []identityView) string {
	if len(ids) == 0 {
		return "none"
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.Provider
	}
	return strings.Join(names, ", ")
}

func twoFactorState(u domain.User) string {
	switch {
	case u.TwoFactorEnabled:
		return "enabled"
	case u.TwoFactorPending():
		return "pending verification"
	default:
		return "off"
	}
}
