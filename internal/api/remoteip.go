package api

import (
	"net"
	"net/http"
	"strings"
)

// remoteIP resolves the originating client address for request logging.
// Behind a trusted reverse proxy the forwarding headers win, X-Forwarded-For
// first (leftmost hop is the client), then X-Real-IP; without one the peer
// address is authoritative and the headers are attacker-controlled, so they
// are ignored.
func remoteIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
		if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
			return real
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
