package middleware

import (
	"net/http/httptest"
	"testing"
)

func TestClientIPIgnoresForwardedHeaderByDefault(t *testing.T) {
	rl := NewRateLimiter(false)

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:51234"
	r.Header.Set("X-Forwarded-For", "10.0.0.1")

	if got := rl.clientIP(r); got != "203.0.113.7" {
		t.Fatalf("clientIP = %q, want transport peer 203.0.113.7", got)
	}
}

func TestClientIPSpoofedHeaderKeepsOneBucket(t *testing.T) {
	// Varying the header must not mint fresh buckets for a direct client.
	rl := NewRateLimiter(false)

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:51234"

	r.Header.Set("X-Forwarded-For", "1.1.1.1")
	first := rl.clientIP(r)
	r.Header.Set("X-Forwarded-For", "2.2.2.2")
	second := rl.clientIP(r)

	if first != second {
		t.Fatalf("spoofed header split buckets: %q vs %q", first, second)
	}
}

func TestClientIPBehindTrustedProxy(t *testing.T) {
	rl := NewRateLimiter(true)

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:443" // proxy hop
	r.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")

	if got := rl.clientIP(r); got != "198.51.100.4" {
		t.Fatalf("clientIP = %q, want first forwarded hop 198.51.100.4", got)
	}
}

func TestClientIPTrustedProxyWithoutHeader(t *testing.T) {
	rl := NewRateLimiter(true)

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:51234"

	if got := rl.clientIP(r); got != "203.0.113.7" {
		t.Fatalf("clientIP = %q, want transport peer fallback", got)
	}
}
