package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/tokend/internal/auth/app"
	"github.com/aussiebroadwan/tokend/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tokend/pkg/cryptox"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cli carries the configuration shared by every subcommand.
type cli struct {
	v      *viper.Viper
	cfg    app.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{v: app.NewViper()}

	rootCmd := &cobra.Command{
		Use:               "tokend",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "OAuth2 and OpenID Connect token service",
		Long: `tokend issues, refreshes, introspects and revokes OAuth2 tokens.
Every flag can also be set through the environment variable named in its help.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig(c.v)
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = app.NewLogger(cfg)
			cryptox.SetPepperPath(cfg.PepperFile)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("issuer", "", "Issuer URL (AUTH_ISSUER)")
	flags.String("database-file", "", "SQLite database file (AUTH_DATABASE_FILE)")
	flags.String("pepper-file", "", "Pepper file for secret hashing (AUTH_PEPPER_FILE)")
	flags.String("log-level", "", "Log level: debug, info, warn, error (LOG_LEVEL)")
	flags.String("log-format", "", "Log format: json or text (LOG_FORMAT)")
	bindFlags(c.v, rootCmd, map[string]string{
		"AUTH_ISSUER":        "issuer",
		"AUTH_DATABASE_FILE": "database-file",
		"AUTH_PEPPER_FILE":   "pepper-file",
		"LOG_LEVEL":          "log-level",
		"LOG_FORMAT":         "log-format",
	})

	rootCmd.AddCommand(
		newServeCmd(c),
		newMigrateCmd(c),
		newClientCmd(c),
		newAccountCmd(c),
		newRevokeCmd(c),
	)
	return rootCmd
}

// bindFlags binds persistent or local flags of cmd to viper keys. Flags
// only override the environment when set explicitly.
func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for key, name := range keys {
		flag := cmd.PersistentFlags().Lookup(name)
		if flag == nil {
			flag = cmd.Flags().Lookup(name)
		}
		if flag == nil {
			panic(fmt.Sprintf("flag %q not defined on %s", name, cmd.Name()))
		}
		if err := v.BindPFlag(key, flag); err != nil {
			panic(err)
		}
	}
}

// openDatabase opens the migrated database for an admin command.
func (c *cli) openDatabase() (*sqlite.Store, error) {
	return app.OpenDatabase(c.cfg, c.logger)
}

// withDatabase runs fn against the database and closes it afterwards.
func (c *cli) withDatabase(fn func(db *sqlite.Store) error) error {
	db, err := c.openDatabase()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			c.logger.Warn("failed to close database", "err", cerr)
		}
	}()
	return fn(db)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
