package ratelimit

import (
	"net"
	"net/http"
	"strings"

	constants "github.com/CodeAndHammer/rootword/internal/constants"
)

// ClientKey identifies the caller: the first X-Forwarded-For entry when
// trustXFF is set and the header is present, else the peer host.
func ClientKey(r *http.Request, trustXFF bool) string {
	if trustXFF {
		if xff := r.Header.Get(constants.HeaderForwardedFor); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
