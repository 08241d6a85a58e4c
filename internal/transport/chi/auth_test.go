package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(t *testing.T, h http.Handler, auth string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin/keys", http.NoBody)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeErrorResponse(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return errResp
}

func TestAdminAuthMiddleware_EmptyKeys_Reject(t *testing.T) {
	for _, keys := range [][]string{nil, {"", ""}} {
		handler := AdminAuthMiddleware(keys)(okHandler())
		rr := serve(t, handler, "Bearer ")
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("keys %q: got %d, want %d", keys, rr.Code, http.StatusUnauthorized)
		}
	}
}

func TestAdminAuthMiddleware_MissingHeader_401(t *testing.T) {
	handler := AdminAuthMiddleware([]string{"secret"})(okHandler())

	rr := serve(t, handler, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing header: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	if errResp := decodeErrorResponse(t, rr); errResp.Code != CodeUnauthorized {
		t.Errorf("error code: got %s, want %s", errResp.Code, CodeUnauthorized)
	}
}

func TestAdminAuthMiddleware_BasicScheme_401(t *testing.T) {
	handler := AdminAuthMiddleware([]string{"secret"})(okHandler())

	if rr := serve(t, handler, "Basic dXNlcjpwYXNz"); rr.Code != http.StatusUnauthorized {
		t.Errorf("basic scheme: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAdminAuthMiddleware_InvalidToken_401(t *testing.T) {
	handler := AdminAuthMiddleware([]string{"secret"})(okHandler())

	rr := serve(t, handler, "Bearer wrong")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("invalid token: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	if errResp := decodeErrorResponse(t, rr); errResp.Message != accessDenied {
		t.Errorf("message: got %q, want %q", errResp.Message, accessDenied)
	}
}

func TestAdminAuthMiddleware_ValidToken_200(t *testing.T) {
	handler := AdminAuthMiddleware([]string{"first", "secret"})(okHandler())

	if rr := serve(t, handler, "Bearer secret"); rr.Code != http.StatusOK {
		t.Errorf("valid token: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestTenantAuthMiddleware(t *testing.T) {
	tokens := NewTokenIssuer("jwt-secret", time.Hour)
	var gotKey string
	handler := TenantAuthMiddleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = apiKeyFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	token, _, err := tokens.Issue("tenant-key", 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if rr := serve(t, handler, "Bearer "+token); rr.Code != http.StatusOK {
		t.Fatalf("valid token: got %d, want %d", rr.Code, http.StatusOK)
	}
	if gotKey != "tenant-key" {
		t.Errorf("api key in context = %q, want tenant-key", gotKey)
	}

	// An admin key is not a session token.
	if rr := serve(t, handler, "Bearer tenant-key"); rr.Code != http.StatusUnauthorized {
		t.Errorf("raw key: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	if rr := serve(t, handler, ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("missing header: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"Bearer   abc  ", "abc", true},
		{"Bearer ", "", false},
		{"bearer abc", "", false},
		{"Token abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		got, ok := bearerToken(req)
		if got != tt.want || ok != tt.ok {
			t.Errorf("bearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}
