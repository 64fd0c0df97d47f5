// Package authctl implements the operator CLI. It talks to the store and
// session backend directly, using the same configuration as the server.
package authctl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aussiebroadwan/gatekeep/internal/auth/app"
	"github.com/aussiebroadwan/gatekeep/internal/auth/service"
	"github.com/aussiebroadwan/gatekeep/internal/auth/store"
	redisstore "github.com/aussiebroadwan/gatekeep/internal/auth/store/drivers/redis"
	"github.com/aussiebroadwan/gatekeep/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeep/pkg/slogx"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// Env is what every subcommand works with.
type Env struct {
	Config app.Config
	Store  store.Store

	Users     *service.UserService
	Sessions  *service.SessionService
	TwoFactor *service.TwoFactorService

	redis redis.UniversalClient
}

func (e *Env) Close() error {
	var errs []error
	if e.redis != nil {
		errs = append(errs, e.redis.Close())
	}
	if e.Store != nil {
		errs = append(errs, e.Store.Close())
	}
	return errors.Join(errs...)
}

// Open connects the configured store and session backend. Migrations are
// applied so a fresh database is usable straight away.
func Open(ctx context.Context, cfg app.Config) (*Env, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	env := &Env{Config: cfg, Store: db}

	if err := db.ApplyMigrations(); err != nil {
		_ = env.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	var sessions store.Sessions = db.Sessions()
	if cfg.SessionBackend == app.BackendRedis {
		client, err := app.OpenRedis(ctx, cfg)
		if err != nil {
			_ = env.Close()
			return nil, err
		}
		env.redis = client
		sessions = redisstore.NewSessionStore(client, redisstore.DefaultPrefix)
	}

	pepper, err := cryptox.LoadPepper(cfg.PepperFile)
	if err != nil {
		_ = env.Close()
		return nil, fmt.Errorf("load pepper: %w", err)
	}

	env.Users = &service.UserService{Store: db, Hasher: cryptox.NewPasswordHasher(pepper)}
	env.Sessions = &service.SessionService{Users: db.Users(), Sessions: sessions, TTL: cfg.SessionTTL}
	env.TwoFactor = &service.TwoFactorService{Users: db.Users(), Issuer: cfg.AppName}
	return env, nil
}

// Opener builds the Env for a command.
type Opener func(ctx context.Context) (*Env, error)

// ConfigOpener opens an Env from the process environment.
func ConfigOpener(ctx context.Context) (*Env, error) {
	return Open(ctx, app.LoadConfig())
}

type cli struct {
	open   Opener
	env    *Env
	json   bool
	logger *slog.Logger
}

// NewRootCommand assembles the authctl command tree.
func NewRootCommand(open Opener) *cobra.Command {
	c := &cli{open: open}

	root := &cobra.Command{
		Use:   "authctl",
		Short: "Operate a gatekeep deployment",
		Long: `authctl manages accounts, two-factor enrollment and sessions
directly in the gatekeep store.

  authctl migrate                                      Apply database migrations
  authctl user create --email a@b.c --password ...     Create a password account
  authctl mfa reset --email a@b.c                      Turn off two-factor for a user
  authctl sessions revoke --email a@b.c                Log a user out everywhere`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.logger = slogx.New(slogx.Config{
				Service: "authctl",
				Version: app.BuildVersion,
				Level:   "warn",
				Format:  "text",
				Output:  cmd.ErrOrStderr(),
			})

			env, err := c.open(cmd.Context())
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			c.env = env
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.env == nil {
				return nil
			}
			return c.env.Close()
		},
	}
	root.PersistentFlags().BoolVar(&c.json, "json", false, "Output as JSON")

	root.AddCommand(
		c.migrateCommand(),
		c.userCommand(),
		c.mfaCommand(),
		c.sessionsCommand(),
	)
	return root
}

func (c *cli) ctx(cmd *cobra.Command) context.Context {
	return slogx.WithContext(cmd.Context(), c.logger)
}

func (c *cli) print(w io.Writer, v any, text string, args ...any) error {
	if c.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintf(w, text+"\n", args...)
	return err
}

func (c *cli) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Open has migrated already; this is a no-op that reports the driver.
			if err := c.env.Store.ApplyMigrations(); err != nil {
				return fmt.Errorf("applying migrations: %w", err)
			}
			return c.print(cmd.OutOrStdout(), map[string]string{"status": "ok"}, "Migrations applied (%s)", c.env.Config.StoreDriver)
		},
	}
}
