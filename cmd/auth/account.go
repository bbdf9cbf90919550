package main

import (
	"fmt"
	"os"

	"github.com/aussiebroadwan/tokend/internal/auth/service"
	"github.com/aussiebroadwan/tokend/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tokend/pkg/cryptox"
	"github.com/spf13/cobra"
)

func newAccountCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage resource owner accounts",
	}
	cmd.AddCommand(newAccountCreateCmd(c))
	return cmd
}

func newAccountCreateCmd(c *cli) *cobra.Command {
	var req service.CreateAccountRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Long: `Creates an account. When --password is omitted a random password is
generated and printed once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			generated := false
			if req.Password == "" {
				pw, err := cryptox.GeneratePassword()
				if err != nil {
					return err
				}
				req.Password = pw
				generated = true
			}

			return c.withDatabase(func(db *sqlite.Store) error {
				svc := &service.AccountService{Store: db}
				account, err := svc.CreateAccount(commandContext(cmd), req)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "sub:      %s\n", account.Sub)
				fmt.Fprintf(cmd.OutOrStdout(), "username: %s\n", account.Username)
				if generated {
					fmt.Fprintf(cmd.OutOrStdout(), "password: %s\n", req.Password)
				}
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Username, "username", "", "Login name")
	f.StringVar(&req.Password, "password", "", "Password (generated when empty)")
	f.StringVar(&req.Email, "email", "", "Email address")
	f.StringVar(&req.Aud, "aud", "", "Resource server audience of the account's tokens")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("aud")
	return cmd
}

func readFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return raw, nil
}
