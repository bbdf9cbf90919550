// Package dpopx verifies RFC 9449 DPoP proofs.
package dpopx

import (
	"crypto"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/jellydator/ttlcache/v3"
)

// HeaderName is the request header that carries the proof.
const HeaderName = "DPoP"

// ProofType is the required "typ" header of a proof.
const ProofType = "dpop+jwt"

var (
	ErrInvalidProof = errors.New("dpopx: invalid proof")
	ErrReplay       = errors.New("dpopx: proof replayed")
)

// SupportedAlgorithms are accepted proof signature algorithms. Symmetric
// algorithms are never valid for DPoP.
var SupportedAlgorithms = []jose.SignatureAlgorithm{
	jose.ES256, jose.ES384, jose.ES512,
	jose.RS256, jose.RS384, jose.RS512,
	jose.PS256, jose.PS384, jose.PS512,
	jose.EdDSA,
}

// Proof is a verified DPoP proof.
type Proof struct {
	JKT      string // RFC 7638 SHA-256 thumbprint of the proof key
	JTI      string
	Method   string
	URI      string
	IssuedAt time.Time
}

type claims struct {
	JTI   string `json:"jti"`
	HTM   string `json:"htm"`
	HTU   string `json:"htu"`
	IAT   int64  `json:"iat"`
	ATH   string `json:"ath,omitempty"`
	Nonce string `json:"nonce,omitempty"`
}

type Options struct {
	// MaxAge bounds how old a proof's iat may be. Defaults to 5 minutes.
	MaxAge time.Duration

	// Leeway tolerates clocks running ahead. Defaults to 5 seconds.
	Leeway time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Verifier checks proofs and remembers every (jkt, jti) pair until it would
// be too old to pass again.
type Verifier struct {
	maxAge time.Duration
	leeway time.Duration
	now    func() time.Time

	mu   sync.Mutex
	seen *ttlcache.Cache[string, struct{}]
}

func NewVerifier(opts Options) *Verifier {
	if opts.MaxAge <= 0 {
		opts.MaxAge = 5 * time.Minute
	}
	if opts.Leeway <= 0 {
		opts.Leeway = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Verifier{
		maxAge: opts.MaxAge,
		leeway: opts.Leeway,
		now:    opts.Now,
		seen: ttlcache.New[string, struct{}](
			ttlcache.WithTTL[string, struct{}](opts.MaxAge+opts.Leeway),
			ttlcache.WithDisableTouchOnHit[string, struct{}](),
		),
	}
}

// Start runs the expiry loop until Stop is called. It blocks.
func (v *Verifier) Start() { v.seen.Start() }

// Stop ends the expiry loop.
func (v *Verifier) Stop() { v.seen.Stop() }

// Verify validates proof for a request with the given method and absolute
// URI. accessToken, when non-empty, must match the proof's "ath" claim.
func (v *Verifier) Verify(proof, method, uri, accessToken string) (*Proof, error) {
	jws, err := jose.ParseSigned(proof, SupportedAlgorithms)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	if len(jws.Signatures) != 1 {
		return nil, fmt.Errorf("%w: expected one signature", ErrInvalidProof)
	}

	hdr := jws.Signatures[0].Protected
	if typ, _ := hdr.ExtraHeaders[jose.HeaderType].(string); typ != ProofType {
		return nil, fmt.Errorf("%w: typ %q", ErrInvalidProof, typ)
	}
	jwk := hdr.JSONWebKey
	if jwk == nil || !jwk.Valid() || !jwk.IsPublic() {
		return nil, fmt.Errorf("%w: missing or non-public jwk", ErrInvalidProof)
	}

	payload, err := jws.Verify(jwk)
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %v", ErrInvalidProof, err)
	}

	var c claims
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("%w: claims: %v", ErrInvalidProof, err)
	}
	if c.JTI == "" {
		return nil, fmt.Errorf("%w: missing jti", ErrInvalidProof)
	}
	if !strings.EqualFold(c.HTM, method) {
		return nil, fmt.Errorf("%w: htm %q", ErrInvalidProof, c.HTM)
	}
	if normalizeURI(c.HTU) != normalizeURI(uri) {
		return nil, fmt.Errorf("%w: htu %q", ErrInvalidProof, c.HTU)
	}

	now := v.now()
	iat := time.Unix(c.IAT, 0)
	if c.IAT == 0 || iat.After(now.Add(v.leeway)) || now.Sub(iat) > v.maxAge {
		return nil, fmt.Errorf("%w: iat outside acceptable window", ErrInvalidProof)
	}

	if accessToken != "" && c.ATH != AccessTokenHash(accessToken) {
		return nil, fmt.Errorf("%w: ath mismatch", ErrInvalidProof)
	}

	jkt, err := Thumbprint(jwk)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}

	if err := v.remember(jkt + ":" + c.JTI); err != nil {
		return nil, err
	}

	return &Proof{
		JKT:      jkt,
		JTI:      c.JTI,
		Method:   c.HTM,
		URI:      c.HTU,
		IssuedAt: iat,
	}, nil
}

func (v *Verifier) remember(key string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.seen.Get(key) != nil {
		return ErrReplay
	}
	v.seen.Set(key, struct{}{}, ttlcache.DefaultTTL)
	return nil
}

// Thumbprint returns the base64url RFC 7638 SHA-256 thumbprint of jwk.
func Thumbprint(jwk *jose.JSONWebKey) (string, error) {
	tp, err := jwk.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("thumbprint: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(tp), nil
}

// AccessTokenHash is the "ath" value for an access token.
func AccessTokenHash(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// normalizeURI drops query and fragment and lowercases scheme and host, per
// RFC 9449 section 4.3.
func normalizeURI(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}
