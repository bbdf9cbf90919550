package main

import (
	"os/signal"
	"syscall"

	"github.com/aussiebroadwan/tokend/internal/auth/app"
	"github.com/spf13/cobra"
)

func newServeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the token service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, err := app.New(ctx, c.cfg)
			if err != nil {
				return err
			}
			return application.Run(ctx)
		},
	}

	cmd.Flags().Int("port", 0, "HTTP listen port (PORT)")
	cmd.Flags().String("token-store", "", "Token store engine: sqlite or redis (AUTH_TOKEN_STORE)")
	cmd.Flags().String("redis-addr", "", "Redis address (AUTH_REDIS_ADDR)")
	cmd.Flags().String("key-storage-mode", "", "Signing key storage: ephemeral or persistent (AUTH_KEY_STORAGE_MODE)")
	cmd.Flags().String("access-token-mode", "", "Access token format: auto, jwt or opaque (AUTH_ACCESS_TOKEN_MODE)")
	cmd.Flags().Bool("enable-password-grant", false, "Allow the resource owner password grant (AUTH_ENABLE_PASSWORD_GRANT)")
	bindFlags(c.v, cmd, map[string]string{
		"PORT":                       "port",
		"AUTH_TOKEN_STORE":           "token-store",
		"AUTH_REDIS_ADDR":            "redis-addr",
		"AUTH_KEY_STORAGE_MODE":      "key-storage-mode",
		"AUTH_ACCESS_TOKEN_MODE":     "access-token-mode",
		"AUTH_ENABLE_PASSWORD_GRANT": "enable-password-grant",
	})
	return cmd
}
