package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"my-pet/internal/domain/identity"
	"my-pet/internal/ports/auth"
)

type stubVerifier struct {
	got auth.SignedRequest
	err error
}

func (s *stubVerifier) Verify(_ context.Context, req auth.SignedRequest) (auth.Claims, error) {
	s.got = req
	if s.err != nil {
		return auth.Claims{}, s.err
	}
	return auth.Claims{Identity: identity.MustParse("0xbeef"), PublicKey: req.PublicKey}, nil
}

func captureCaller(t *testing.T, h func(http.Handler) http.Handler, req *http.Request) (identity.ID, bool, string) {
	t.Helper()

	var (
		id   identity.ID
		ok   bool
		body string
	)
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		id, ok = Caller(r.Context())
		b, _ := io.ReadAll(r.Body)
		body = string(b)
	})
	h(next).ServeHTTP(httptest.NewRecorder(), req)
	return id, ok, body
}

func TestAuthContext_DevHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/pets", nil)
	req.Header.Set(HeaderDebugIdentity, "0xC")

	id, ok, _ := captureCaller(t, AuthContext(nil), req)
	if !ok || id != "0xc" {
		t.Fatalf("expected caller 0xc, got %q ok=%v", id, ok)
	}
}

func TestAuthContext_DevHeaderInvalidIsAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/pets", nil)
	req.Header.Set(HeaderDebugIdentity, "bob")

	if _, ok, _ := captureCaller(t, AuthContext(nil), req); ok {
		t.Fatalf("expected anonymous request")
	}
}

func TestAuthContext_SignatureRestoresBody(t *testing.T) {
	v := &stubVerifier{}
	req := httptest.NewRequest(http.MethodPost, "/pets?x=1", strings.NewReader(`{"name":"Milo"}`))
	req.Header.Set(HeaderPublicKey, "aa")
	req.Header.Set(HeaderSignature, "bb")
	req.Header.Set(HeaderTimestamp, "2026-01-01T00:00:00Z")

	id, ok, body := captureCaller(t, AuthContext(v), req)
	if !ok || id != "0xbeef" {
		t.Fatalf("expected verified caller, got %q ok=%v", id, ok)
	}
	if body != `{"name":"Milo"}` || string(v.got.Body) != body {
		t.Fatalf("body not preserved: handler=%q verifier=%q", body, string(v.got.Body))
	}
	if v.got.Path != "/pets?x=1" || v.got.Method != http.MethodPost {
		t.Fatalf("unexpected signed request %#v", v.got)
	}
}

func TestAuthContext_SignatureFailureIsAnonymous(t *testing.T) {
	v := &stubVerifier{err: errors.New("bad signature")}
	req := httptest.NewRequest(http.MethodGet, "/pets", nil)
	req.Header.Set(HeaderPublicKey, "aa")
	req.Header.Set(HeaderSignature, "bb")

	if _, ok, _ := captureCaller(t, AuthContext(v), req); ok {
		t.Fatalf("expected anonymous request after failed verification")
	}
}
