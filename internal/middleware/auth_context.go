package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"my-pet/internal/domain/identity"
	"my-pet/internal/ports/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

const (
	HeaderDebugIdentity = "X-Debug-Identity"
	HeaderPublicKey     = "X-Public-Key"
	HeaderSignature     = "X-Signature"
	HeaderTimestamp     = "X-Timestamp"
)

const maxSignedBody = 1 << 20

// AuthContext:
// - Si verifier == nil => modo dev: si viene header X-Debug-Identity => setea claims.
// - Si verifier != nil y vienen headers de firma => Verify() y setea claims.
// - Si no hay claims, el request sigue igual; los handlers decidirán si exigen auth.
func AuthContext(verifier auth.AuthVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				raw := strings.TrimSpace(r.Header.Get(HeaderDebugIdentity))
				if raw == "" {
					next.ServeHTTP(w, r)
					return
				}
				id, err := identity.Parse(raw)
				if err != nil {
					next.ServeHTTP(w, r)
					return
				}
				next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), auth.Claims{Identity: id})))
				return
			}

			pub := strings.TrimSpace(r.Header.Get(HeaderPublicKey))
			sig := strings.TrimSpace(r.Header.Get(HeaderSignature))
			if pub == "" || sig == "" {
				next.ServeHTTP(w, r)
				return
			}

			// El body firmado se lee completo y se repone para el handler.
			var body []byte
			if r.Body != nil {
				b, err := io.ReadAll(io.LimitReader(r.Body, maxSignedBody))
				if err != nil {
					next.ServeHTTP(w, r)
					return
				}
				_ = r.Body.Close()
				body = b
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			claims, err := verifier.Verify(r.Context(), auth.SignedRequest{
				Method:    r.Method,
				Path:      r.URL.RequestURI(),
				Timestamp: strings.TrimSpace(r.Header.Get(HeaderTimestamp)),
				PublicKey: pub,
				Signature: sig,
				Body:      body,
			})
			if err != nil {
				// No cortamos aquí; el handler decide 401.
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}

// Caller devuelve la identidad autenticada, si la hay.
func Caller(ctx context.Context) (identity.ID, bool) {
	c, ok := GetClaims(ctx)
	if !ok || c.Identity.IsZero() {
		return "", false
	}
	return c.Identity, true
}
