package ratelimit

import (
	"net/http"
	"strings"
)

// UnknownClientKey is the bucket used when no client address can be
// determined. All such requests share one quota.
const UnknownClientKey = "unknown"

// KeyFunc is a function that extracts a rate limit key from an HTTP request.
type KeyFunc func(r *http.Request) string

// PeerIPKeyFunc returns the IP of the direct peer, ignoring forwarding
// headers. Requests with no resolvable address share UnknownClientKey.
func PeerIPKeyFunc(r *http.Request) string {
	addr := r.RemoteAddr
	if addr == "" {
		return UnknownClientKey
	}
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		addr = addr[:idx]
	}
	addr = strings.TrimPrefix(addr, "[")
	addr = strings.TrimSuffix(addr, "]")
	if addr == "" {
		return UnknownClientKey
	}
	return addr
}

// ClientIPKeyFunc resolves the client IP honoring proxy headers, falling
// back to the peer address.
func ClientIPKeyFunc(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			if ip := strings.TrimSpace(ips[0]); ip != "" {
				return ip
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return PeerIPKeyFunc(r)
}

// HeaderKeyFunc returns a KeyFunc that uses a specific header value as
// the rate limit key, falling back to the peer IP.
func HeaderKeyFunc(header string) KeyFunc {
	return func(r *http.Request) string {
		value := r.Header.Get(header)
		if value == "" {
			return PeerIPKeyFunc(r)
		}
		return value
	}
}
