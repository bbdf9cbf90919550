package authsdk

import "golang.org/x/oauth2"

// PKCEChallenge holds a PKCE verifier and its S256 challenge (RFC 7636).
// The verifier stays with the client until the code is exchanged.
type PKCEChallenge struct {
	Verifier  string
	Challenge string
	Method    string
}

// NewPKCEChallenge creates a verifier with 256 bits of entropy.
func NewPKCEChallenge() PKCEChallenge {
	verifier := oauth2.GenerateVerifier()
	return PKCEChallenge{
		Verifier:  verifier,
		Challenge: oauth2.S256ChallengeFromVerifier(verifier),
		Method:    "S256",
	}
}
