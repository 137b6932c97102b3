package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// guardedEcho is a handler that reports the identity the guard established.
func guardedEcho(t *testing.T, wantEmail string, called *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		email, ok := EmailFromContext(r.Context())
		if !ok {
			t.Error("EmailFromContext() not set inside guarded handler")
		}
		if email != wantEmail {
			t.Errorf("EmailFromContext() = %q, want %q", email, wantEmail)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_NoCookie(t *testing.T) {
	ts := newTestTokenService(t)
	called := false
	guard := RequireAuth(ts)(guardedEcho(t, "", &called))

	req := httptest.NewRequest(http.MethodGet, "/myFood/a@example.com", nil)
	rr := httptest.NewRecorder()
	guard.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	if called {
		t.Error("handler should not run without a token cookie")
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	ts := newTestTokenService(t)
	called := false
	guard := RequireAuth(ts)(guardedEcho(t, "", &called))

	req := httptest.NewRequest(http.MethodGet, "/myFood/a@example.com", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-token"})
	rr := httptest.NewRecorder()
	guard.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	if called {
		t.Error("handler should not run with an invalid token")
	}
}

func TestRequireAuth_ValidToken(t *testing.T) {
	ts := newTestTokenService(t)
	token, err := ts.Generate("a@example.com")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	called := false
	guard := RequireAuth(ts)(guardedEcho(t, "a@example.com", &called))

	req := httptest.NewRequest(http.MethodGet, "/myFood/a@example.com", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	rr := httptest.NewRecorder()
	guard.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if !called {
		t.Error("handler should run with a valid token")
	}
}

func TestSetTokenCookie_Attributes(t *testing.T) {
	rr := httptest.NewRecorder()
	SetTokenCookie(rr, "some-token")

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}

	c := cookies[0]
	if c.Name != CookieName {
		t.Errorf("cookie name = %q, want %q", c.Name, CookieName)
	}
	if !c.HttpOnly {
		t.Error("token cookie must be HttpOnly")
	}
	if c.SameSite != http.SameSiteStrictMode {
		t.Error("token cookie must be SameSite=Strict")
	}
	if c.MaxAge != int(TokenTTL.Seconds()) {
		t.Errorf("cookie MaxAge = %d, want %d", c.MaxAge, int(TokenTTL.Seconds()))
	}
}

func TestClearTokenCookie_Expires(t *testing.T) {
	rr := httptest.NewRecorder()
	ClearTokenCookie(rr)

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	if cookies[0].MaxAge >= 0 {
		t.Errorf("cleared cookie MaxAge = %d, want negative", cookies[0].MaxAge)
	}
	if cookies[0].Value != "" {
		t.Errorf("cleared cookie value = %q, want empty", cookies[0].Value)
	}
}
