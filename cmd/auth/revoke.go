package main

import (
	"fmt"

	"github.com/aussiebroadwan/tokend/internal/auth/app"
	"github.com/aussiebroadwan/tokend/internal/auth/service"
	"github.com/aussiebroadwan/tokend/internal/auth/store/drivers/sqlite"
	"github.com/spf13/cobra"
)

func newRevokeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <token>",
		Short: "Revoke the grant behind a token",
		Long: `Deletes the grant identified by an access token, refresh token or
authorization code. Signed access tokens only resolve with persistent keys.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			return c.withDatabase(func(db *sqlite.Store) error {
				tokens, err := app.OpenTokenStore(ctx, c.cfg, db, c.logger)
				if err != nil {
					return err
				}
				defer func() { _ = tokens.Close() }()

				keys, err := app.InitAuthKeys(ctx, c.cfg, db, c.logger)
				if err != nil {
					return err
				}

				manager := &service.TokenManager{
					Tokens:    tokens.Tokens,
					Signer:    service.NewKeySigner(keys, c.cfg.Issuer),
					Lifetimes: c.cfg.Lifetimes(),
				}
				if err := manager.Revoke(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "revoked")
				return nil
			})
		},
	}
}
