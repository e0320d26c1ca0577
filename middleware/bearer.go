package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"

	"github.com/mnehpets/openrpcserve/endpoint"
)

// VerifyFunc checks a raw bearer token and returns nil if it is acceptable.
type VerifyFunc func(ctx context.Context, token string) error

// BearerAuthProcessor rejects requests that do not carry a valid bearer
// token in the Authorization header. It is meant to guard RPC and document
// endpoints: verification failures short-circuit the chain with 401 before
// any handler runs.
//
// The processor only authenticates; it does not attach identity to the
// request. Endpoints that need claims should verify the token themselves.
type BearerAuthProcessor struct {
	// Verify checks the presented token. Required.
	Verify VerifyFunc

	// Realm is advertised in the WWW-Authenticate header on rejection.
	// Defaults to "rpc".
	Realm string
}

// NewJWTBearerProcessor verifies locally-issued JWTs against a static key
// set. algs lists the signature algorithms to accept; expected carries the
// issuer/audience constraints (its Time field is ignored, validation always
// uses the request time with one minute of leeway).
func NewJWTBearerProcessor(keys jose.JSONWebKeySet, algs []jose.SignatureAlgorithm, expected jwt.Expected) *BearerAuthProcessor {
	return &BearerAuthProcessor{
		Verify: func(_ context.Context, token string) error {
			tok, err := jwt.ParseSigned(token, algs)
			if err != nil {
				return err
			}
			var claims jwt.Claims
			if err := tok.Claims(keys, &claims); err != nil {
				return err
			}
			return claims.ValidateWithLeeway(expected.WithTime(time.Now()), time.Minute)
		},
	}
}

// NewOIDCBearerProcessor verifies tokens minted by an OIDC issuer. Obtain
// the verifier from the issuer's discovery metadata, e.g.:
//
//	provider, err := oidc.NewProvider(ctx, issuerURL)
//	...
//	p := middleware.NewOIDCBearerProcessor(provider.Verifier(&oidc.Config{ClientID: audience}))
func NewOIDCBearerProcessor(verifier *oidc.IDTokenVerifier) *BearerAuthProcessor {
	return &BearerAuthProcessor{
		Verify: func(ctx context.Context, token string) error {
			_, err := verifier.Verify(ctx, token)
			return err
		},
	}
}

// Process implements endpoint.Processor.
func (p *BearerAuthProcessor) Process(w http.ResponseWriter, r *http.Request, next func(http.ResponseWriter, *http.Request) error) error {
	token, ok := bearerToken(r)
	if !ok {
		p.challenge(w)
		return endpoint.Error(http.StatusUnauthorized, "missing bearer token", nil)
	}
	if p.Verify == nil {
		return endpoint.Error(http.StatusInternalServerError, "bearer auth misconfigured", nil)
	}
	if err := p.Verify(r.Context(), token); err != nil {
		p.challenge(w)
		return endpoint.Error(http.StatusUnauthorized, "invalid bearer token", err)
	}
	return next(w, r)
}

func (p *BearerAuthProcessor) challenge(w http.ResponseWriter) {
	realm := p.Realm
	if realm == "" {
		realm = "rpc"
	}
	w.Header().Set("WWW-Authenticate", `Bearer realm="`+realm+`"`)
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(auth[len(prefix):])
	return token, token != ""
}

var _ endpoint.Processor = (*BearerAuthProcessor)(nil)
