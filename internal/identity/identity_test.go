package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, string, string) {
	t.Helper()
	var userID, sessionID string
	h := Middleware(true)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		userID = UserIDFromContext(r.Context())
		sessionID = SessionIDFromContext(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, userID, sessionID
}

func TestMiddlewareIssuesAnonCookie(t *testing.T) {
	t.Parallel()

	rec, userID, sessionID := serve(t, httptest.NewRequest(http.MethodGet, "/", nil))
	if !isValidAnonID(userID) {
		t.Fatalf("unexpected user id %q", userID)
	}
	if sessionID != DefaultSessionIDValue {
		t.Fatalf("session id = %q", sessionID)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != AnonCookieName || cookies[0].Value != userID {
		t.Fatalf("unexpected cookies %+v", cookies)
	}
}

func TestMiddlewareReusesValidCookieAndSessionHeader(t *testing.T) {
	t.Parallel()

	existing := "anon_0123456789abcdef0123456789abcdef"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: existing})
	req.Header.Set(SessionHeaderName, "tab-7")

	_, userID, sessionID := serve(t, req)
	if userID != existing {
		t.Fatalf("user id = %q", userID)
	}
	if sessionID != "tab-7" {
		t.Fatalf("session id = %q", sessionID)
	}
}

func TestMiddlewareRejectsForgedValues(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/?session_id=../../etc", nil)
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: "admin"})

	_, userID, sessionID := serve(t, req)
	if userID == "admin" || !isValidAnonID(userID) {
		t.Fatalf("forged cookie accepted: %q", userID)
	}
	if sessionID != DefaultSessionIDValue {
		t.Fatalf("forged session id accepted: %q", sessionID)
	}
}
