package admission

import (
	"net"
	"net/http"
	"strings"
)

// ClientKey extracts a stable client identity from the request, checking
// proxy headers before falling back to the peer address. The peer port is
// stripped so reconnecting clients keep the same identity.
func ClientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
