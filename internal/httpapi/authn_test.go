package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"gatehouse.org/internal/auth"
)

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		err    error
	}{
		{header: "Bearer abc", want: "abc"},
		{header: "bearer abc", want: "abc"},
		{header: "BEARER   abc  ", want: "abc"},
		{header: "", err: errMissingToken},
		{header: "Bearer", err: errBadScheme},
		{header: "Bearer    ", err: errBadScheme},
		{header: "Basic abc", err: errBadScheme},
		{header: "Token abc", err: errBadScheme},
	}
	for _, tc := range cases {
		got, err := extractBearerToken(tc.header)
		if err != tc.err {
			t.Fatalf("%q: expected err %v, got %v", tc.header, tc.err, err)
		}
		if got != tc.want {
			t.Fatalf("%q: expected token %q, got %q", tc.header, tc.want, got)
		}
	}
}

func TestRequireSessionAttachesClaims(t *testing.T) {
	issuer, err := auth.NewIssuer([]byte("test-secret"))
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	tok, err := issuer.Issue("alice@x.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	api := &API{issuer: issuer}

	var gotID, gotToken string
	handler := api.requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = auth.IdentifierFromContext(r.Context())
		gotToken, _ = auth.TokenFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Value)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if gotID != "alice@x.com" || gotToken != tok.Value {
		t.Fatalf("unexpected context values: %q %q", gotID, gotToken)
	}
}

func TestRequireSessionDoesNotCallNextOnFailure(t *testing.T) {
	issuer, err := auth.NewIssuer([]byte("test-secret"))
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	api := &API{issuer: issuer}

	called := false
	handler := api.requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	for _, header := range []string{"", "Bearer nope"} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized && rr.Code != http.StatusForbidden {
			t.Fatalf("%q: unexpected status %d", header, rr.Code)
		}
		if got := rr.Header().Get("WWW-Authenticate"); got == "" {
			t.Fatalf("%q: expected WWW-Authenticate header set", header)
		}
	}
	if called {
		t.Fatal("next handler must not run without a valid session")
	}
}
