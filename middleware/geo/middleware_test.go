package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeLocator struct {
	calls []string
	info  Info
	ok    bool
}

func (f *fakeLocator) Lookup(_ context.Context, ip string) (Info, bool) {
	f.calls = append(f.calls, ip)
	return f.info, f.ok
}

func serve(h http.Handler, headers map[string]string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "http://example/api/health", nil)
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

func TestMiddleware_AddsDetectedHeaders(t *testing.T) {
	loc := &fakeLocator{ok: true, info: Info{CountryCode: "FR", CountryName: "France", Locale: "fr"}}
	w := serve(Middleware(loc)(okHandler), map[string]string{"X-Forwarded-For": "88.1.2.3"})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("x-detected-locale"); got != "fr" {
		t.Fatalf("expected locale fr, got %q", got)
	}
	if got := w.Header().Get("x-detected-country"); got != "FR" {
		t.Fatalf("expected country FR, got %q", got)
	}
	if got := w.Header().Get("x-detected-country-name"); got != "France" {
		t.Fatalf("expected country name France, got %q", got)
	}
	if len(loc.calls) != 1 || loc.calls[0] != "88.1.2.3" {
		t.Fatalf("unexpected lookups: %v", loc.calls)
	}
}

func TestMiddleware_FailedLookupStillForwards(t *testing.T) {
	loc := &fakeLocator{ok: false}
	w := serve(Middleware(loc)(okHandler), map[string]string{"CF-Connecting-IP": "88.1.2.3"})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	for _, h := range []string{HeaderLocale, HeaderCountry, HeaderCountryName} {
		if got := w.Header().Get(h); got != "" {
			t.Fatalf("expected %s to be absent, got %q", h, got)
		}
	}
}

func TestMiddleware_PrivateKeysNeverLookedUp(t *testing.T) {
	loc := &fakeLocator{ok: true, info: Info{CountryCode: "US", Locale: "en"}}
	h := Middleware(loc)(okHandler)

	for _, ip := range []string{"127.0.0.1", "192.168.1.20", "10.1.2.3"} {
		serve(h, map[string]string{"X-Forwarded-For": ip})
	}
	serve(h, nil) // "unknown"

	if len(loc.calls) != 0 {
		t.Fatalf("expected no outbound lookups, got %v", loc.calls)
	}
}
