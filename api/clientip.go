package api

import (
	"net"
	"net/http"
	"slices"
	"strings"
)

// GetClientIP honours X-Forwarded-For only when the direct peer is a trusted proxy.
func GetClientIP(r *http.Request, trustedProxies []string) string {
	remoteIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		remoteIP = host
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" && slices.Contains(trustedProxies, remoteIP) {
		clientIP := strings.TrimSpace(strings.Split(xff, ",")[0])
		if clientIP != "" {
			return clientIP
		}
	}

	return remoteIP
}
