package metadata

import (
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"sanitrack/pkg/requestcontext"
)

// ClientMetadata extracts client IP address and User-Agent from the request
// and adds them to the context. Apply it early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), ua)
		ctx = requestcontext.WithDevice(ctx, DeviceName(ua))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DeviceName summarizes a User-Agent for security logs: "Chrome on Windows 10",
// "bot Googlebot", or the bare product name when no OS is reported.
func DeviceName(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	ua := useragent.New(raw)
	name, _ := ua.Browser()
	if ua.Bot() {
		return strings.TrimSpace("bot " + name)
	}
	os := ua.OS()
	switch {
	case name != "" && os != "":
		return name + " on " + os
	case name != "":
		return name
	default:
		return os
	}
}

// ClientIPFromRequest extracts the client IP, preferring proxy headers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For is "client, proxy1, proxy2"
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
