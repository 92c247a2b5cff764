package api

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func headerList(v string) []string {
	parts := strings.Split(v, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func TestIsAllowedOrigin(t *testing.T) {
	allowed := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://localhost",
		"https://localhost:8443",
		"http://127.0.0.1:7860",
		"http://127.0.0.1",
		"http://[::1]:3000",
	}
	for _, origin := range allowed {
		if !isAllowedOrigin(origin) {
			t.Errorf("isAllowedOrigin(%q) = false, want true", origin)
		}
	}

	denied := []string{
		"",
		"https://evil.com",
		"http://localhost.evil.com",
		"http://192.168.1.1:3000",
		"ftp://localhost:3000",
		"http://localhost:not-a-port",
		"http://localhost:0",
		"http://localhost:3000/path",
		"http://localhost:3000?x=1",
		"http://user@localhost:3000",
	}
	for _, origin := range denied {
		if isAllowedOrigin(origin) {
			t.Errorf("isAllowedOrigin(%q) = true, want false", origin)
		}
	}
}

func TestCORSAllowlist_AllowedOrigin(t *testing.T) {
	handler := CORSAllowlist()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("ACAO = %q, want %q", got, "http://localhost:5173")
	}
	if got := rr.Header().Get("Vary"); got != "Origin" {
		t.Errorf("Vary = %q, want Origin", got)
	}
	expose := headerList(rr.Header().Get("Access-Control-Expose-Headers"))
	for _, h := range []string{"Content-Range", "Accept-Ranges", "Content-Disposition"} {
		if !slices.Contains(expose, h) {
			t.Errorf("Access-Control-Expose-Headers missing %q, got %v", h, expose)
		}
	}
}

func TestCORSAllowlist_ExtraOrigin(t *testing.T) {
	handler := CORSAllowlist("https://clips.example.org/")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.Header.Set("Origin", "https://clips.example.org")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://clips.example.org" {
		t.Errorf("ACAO = %q, want https://clips.example.org", got)
	}
}

func TestCORSAllowlist_DeniedOrigin(t *testing.T) {
	handler := CORSAllowlist()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.Header.Set("Origin", "https://evil.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("ACAO = %q, want empty", got)
	}
}

func TestCORSAllowlist_Preflight(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		want   int
		acao   string
	}{
		{"allowed", "http://localhost:3000", http.StatusNoContent, "http://localhost:3000"},
		{"denied", "https://evil.com", http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := CORSAllowlist()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called for preflight")
			}))

			req := httptest.NewRequest(http.MethodOptions, "/session/download", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", "POST")
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.acao {
				t.Errorf("ACAO = %q, want %q", got, tt.acao)
			}
			if tt.acao == "" {
				return
			}
			methods := headerList(rr.Header().Get("Access-Control-Allow-Methods"))
			for _, m := range []string{"GET", "POST", "PUT"} {
				if !slices.Contains(methods, m) {
					t.Errorf("Access-Control-Allow-Methods missing %q, got %v", m, methods)
				}
			}
			headers := headerList(rr.Header().Get("Access-Control-Allow-Headers"))
			for _, h := range []string{"Authorization", "Content-Type", "Range"} {
				if !slices.Contains(headers, h) {
					t.Errorf("Access-Control-Allow-Headers missing %q, got %v", h, headers)
				}
			}
		})
	}
}

func TestCORSAllowlist_NoOrigin(t *testing.T) {
	handler := CORSAllowlist()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("ACAO = %q, want empty when no Origin header", got)
	}
	if got := rr.Header().Get("Vary"); got != "" {
		t.Errorf("Vary = %q, want empty when no Origin header", got)
	}
}

func TestCORSAllowlist_VaryIsAdditive(t *testing.T) {
	handler := CORSAllowlist()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	rr.Header().Set("Vary", "Accept-Encoding")
	handler.ServeHTTP(rr, req)

	vary := rr.Header().Values("Vary")
	if !slices.Contains(vary, "Accept-Encoding") || !slices.Contains(vary, "Origin") {
		t.Errorf("Vary = %v, want Accept-Encoding and Origin", vary)
	}
}

func TestIsLoopbackRemoteAddr(t *testing.T) {
	cases := []struct {
		addr string
		want bool
	}{
		{"127.0.0.1:12345", true},
		{"[::1]:12345", true},
		{"::1", true},
		{"[::1]", true},
		{"127.0.0.1", true},
		{"8.8.8.8:12345", false},
		{"192.168.1.1:8080", false},
		{"not-an-ip:1234", false},
		{"garbage", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := isLoopbackRemoteAddr(tc.addr); got != tc.want {
			t.Errorf("isLoopbackRemoteAddr(%q) = %v, want %v", tc.addr, got, tc.want)
		}
	}
}

func TestLoopbackGuard(t *testing.T) {
	tests := []struct {
		addr string
		want int
	}{
		{"127.0.0.1:12345", http.StatusOK},
		{"[::1]:12345", http.StatusOK},
		{"8.8.8.8:12345", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			handler := LoopbackGuard()(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/clips/x/file", nil)
			req.RemoteAddr = tt.addr
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
			if tt.want == http.StatusForbidden {
				assertError(t, rr, http.StatusForbidden, "FORBIDDEN")
			}
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assertError(t, rr, http.StatusInternalServerError, "INTERNAL_ERROR")
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(RequestIDKey).(string)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if len(seen) != 8 {
		t.Errorf("request id = %q, want 8 characters", seen)
	}
	if got := rr.Header().Get("X-Request-ID"); got != seen {
		t.Errorf("X-Request-ID = %q, want %q", got, seen)
	}
}
