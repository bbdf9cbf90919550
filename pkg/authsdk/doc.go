/*
Package authsdk is a Go client for the tokend HTTP API.

# SDKClient and Session

An SDKClient acts for one OAuth2 client. It runs the grants and calls the
endpoints that authenticate the client itself:

	client := authsdk.NewSDKClient("https://auth.example.com", "my-app")

	// Confidential clients authenticate with HTTP Basic.
	backend := client.WithSecret(secret)

	// Introspect and revoke.
	info, err := backend.Introspect(ctx, token)
	err = backend.RevokeToken(ctx, token)

A Session holds the resulting token pair and refreshes the access token when
it expires. Refresh tokens rotate on every use and the Session keeps the
latest one:

	session, err := client.AuthenticateWithRefreshToken(ctx, refreshToken)
	userInfo, err := session.GetUserInfo(ctx)

Sessions are safe for concurrent use.

# Authorization code flow

	pkce := authsdk.NewPKCEChallenge()
	req := authsdk.AuthorizeRequest{
		RedirectURI: "https://app.example.com/callback",
		Scopes:      []string{"openid", "offline_access"},
		State:       state,
		PKCE:        pkce,
	}

	// Browser based clients redirect the user to:
	authURL := client.BuildAuthorizeURL(req)

	// Trusted first-party clients may post credentials directly:
	res, err := client.AuthorizeWithPassword(ctx, req, username, password, true)

	tokens, err := client.ExchangeCode(ctx, res.Code, req.RedirectURI, pkce.Verifier)
	session := client.NewSession(tokens)

# DPoP

Attaching a DPoPKey binds issued access tokens to the key (RFC 9449). The
client sends dpop_jkt on authorization, a proof on every token request and
a proof with the access token hash on every resource request:

	key, err := authsdk.NewDPoPKey()
	bound := client.WithDPoP(key)

# Errors

Error responses are returned as *OAuth2Error carrying the HTTP status and
the RFC 6749 error code. Resource endpoints that only answer with a
WWW-Authenticate challenge are decoded the same way.

	var oerr *authsdk.OAuth2Error
	if errors.As(err, &oerr) && oerr.Code == authsdk.ErrorCodeInvalidGrant {
		// the refresh token was already used or the grant was revoked
	}

# Administration

Client and signing key management needs an access token with the admin
scope:

	admin, err := backend.AuthenticateWithPassword(ctx, "root", password, []string{"admin"})
	clients, err := admin.ListClients(ctx)
	rotated, err := admin.RotateKey(ctx, authsdk.RotateKeyRequest{})
*/
package authsdk
