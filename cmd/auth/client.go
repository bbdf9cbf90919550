package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/internal/auth/service"
	"github.com/aussiebroadwan/tokend/internal/auth/store/drivers/sqlite"
	"github.com/spf13/cobra"
)

func newClientCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Manage OAuth2 clients",
	}
	cmd.AddCommand(newClientCreateCmd(c), newClientListCmd(c))
	return cmd
}

func newClientCreateCmd(c *cli) *cobra.Command {
	var (
		req        service.CreateClientRequest
		jwksFile   string
		grantTypes []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a client and print its credentials",
		Long: `Registers a client. For client_secret_basic and client_secret_post the
generated secret is printed once and cannot be recovered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Metadata.GrantTypes = grantTypes
			if jwksFile != "" {
				raw, err := readFile(jwksFile)
				if err != nil {
					return err
				}
				req.Metadata.JWKS = raw
			}

			return c.withDatabase(func(db *sqlite.Store) error {
				svc := &service.ClientService{Store: db}
				client, secret, err := svc.CreateClient(commandContext(cmd), req)
				if err != nil {
					return err
				}

				out := map[string]any{
					"client_id":                  client.ID,
					"name":                       client.Name,
					"token_endpoint_auth_method": client.Metadata.TokenEndpointAuthMethod,
					"grant_types":                client.Metadata.GrantTypes,
					"redirect_uris":              client.Metadata.RedirectURIs,
				}
				if secret != "" {
					out["client_secret"] = secret
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Name, "name", "", "Display name")
	f.StringSliceVar(&req.Metadata.RedirectURIs, "redirect-uri", nil, "Registered redirect URI (repeatable)")
	f.StringSliceVar(&grantTypes, "grant-type", []string{domain.GrantAuthorizationCode, domain.GrantRefreshToken}, "Allowed grant type (repeatable)")
	f.StringVar(&req.Metadata.Scope, "scope", "", "Space-delimited scopes the client may request (empty allows any)")
	f.StringVar(&req.Metadata.TokenEndpointAuthMethod, "auth-method", domain.AuthMethodNone,
		"Token endpoint auth method: none, client_secret_basic, client_secret_post or private_key_jwt")
	f.BoolVar(&req.Metadata.DPoPBoundAccessTokens, "dpop", false, "Require DPoP bound access tokens")
	f.StringVar(&jwksFile, "jwks-file", "", "JWKS file with the client's public keys (private_key_jwt)")
	f.BoolVar(&req.FirstParty, "first-party", false, "Mark as first-party client (longest refresh lifetime)")
	f.BoolVar(&req.Protected, "protected", false, "Prevent deletion through the admin API")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newClientListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withDatabase(func(db *sqlite.Store) error {
				svc := &service.ClientService{Store: db}
				clients, err := svc.ListClients(commandContext(cmd))
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "CLIENT ID\tNAME\tAUTH METHOD\tGRANTS\tFIRST PARTY\tPROTECTED")
				for _, cl := range clients {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%t\n",
						cl.ID,
						cl.Name,
						cl.Metadata.TokenEndpointAuthMethod,
						strings.Join(cl.Metadata.GrantTypes, ","),
						cl.FirstParty,
						cl.Protected,
					)
				}
				return tw.Flush()
			})
		},
	}
}
