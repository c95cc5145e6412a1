// Package admin implements the operator command line: schema migrations,
// manual email confirmation and password hashing.
package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/cryptox"
	"github.com/dmitrijs2005/contactbook/internal/logging"
	"github.com/dmitrijs2005/contactbook/internal/server/config"
	"github.com/dmitrijs2005/contactbook/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/contactbook/internal/server/services"
	"github.com/spf13/cobra"
)

// Env carries the dependencies of every command.
type Env struct {
	LoadConfig func(args []string) (*config.Config, error)
	OpenDB     func(ctx context.Context, dsn string) (*sql.DB, error)
	Repos      repomanager.RepositoryManager
	Logger     logging.Logger
	In         io.Reader
}

// DefaultEnv talks to the configured PostgreSQL database.
func DefaultEnv() Env {
	return Env{
		LoadConfig: config.Load,
		OpenDB:     repomanager.OpenPostgres,
		Repos:      repomanager.NewPostgresRepositoryManager(),
		Logger:     logging.NewJSONLogger(os.Stderr, "warn"),
		In:         os.Stdin,
	}
}

func NewRootCmd(env Env) *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "contactbook-admin",
		Short:         "Contact book administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to JSON config file")

	load := func() (*config.Config, error) {
		var args []string
		if configPath != "" {
			args = []string{"-c", configPath}
		}
		return env.LoadConfig(args)
	}

	root.AddCommand(newMigrateCmd(env, load))
	root.AddCommand(newConfirmCmd(env, load))
	root.AddCommand(newHashPasswordCmd(env, load))
	return root
}

func withDB(ctx context.Context, env Env, load func() (*config.Config, error), fn func(*sql.DB) error) error {
	cfg, err := load()
	if err != nil {
		return err
	}
	db, err := env.OpenDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

func newMigrateCmd(env Env, load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withDB(ctx, env, load, func(db *sql.DB) error {
				if err := env.Repos.RunMigrations(ctx, db); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}
}

func newConfirmCmd(env Env, load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <email>",
		Short: "Mark an account's email as confirmed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			email := args[0]
			return withDB(ctx, env, load, func(db *sql.DB) error {
				users := services.NewUserDirectory(db, env.Repos, nil, env.Logger)
				err := users.MarkConfirmed(ctx, email)
				if errors.Is(err, common.ErrorNotFound) {
					return fmt.Errorf("no account for %s", email)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "confirmed %s\n", email)
				return nil
			})
		},
	}
}

func newHashPasswordCmd(env Env, load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Print the stored form of a password read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			pw, err := GetPassword(env.In, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)
			if len(pw) == 0 {
				return errors.New("empty password")
			}

			hash, err := cryptox.NewPasswordHasher(cfg.Argon2Params()).Hash(string(pw))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
