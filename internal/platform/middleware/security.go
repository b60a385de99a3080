package middleware

import (
	"net/http"
	"strings"
)

const (
	permissionsPolicy = "accelerometer=(), camera=(), geolocation=(), gyroscope=(), magnetometer=(), microphone=(), payment=(), usb=()"
	hstsValue         = "max-age=63072000; includeSubDomains"
	clearSiteData     = `"cookies", "storage"`
)

// SecurityPolicy selects the headers Security adds.
type SecurityPolicy struct {
	// SkipPaths are path prefixes served untouched, e.g. the OpenAPI docs UI.
	SkipPaths []string
	// HSTS adds Strict-Transport-Security. Enable it together with Secure session cookies.
	HSTS bool
	// LogoutPath is the endpoint whose POST responses also wipe cookies and storage.
	LogoutPath string
}

// Security sets headers that keep doctor profile data out of shared caches and keep
// portal pages and their profile/login redirects from being framed or leaking the
// ?redirect= target to other origins. Headers set by a downstream handler win.
func Security(policy SecurityPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range policy.SkipPaths {
				if strings.HasPrefix(r.URL.Path, p) {
					next.ServeHTTP(w, r)
					return
				}
			}
			h := w.Header()
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Content-Security-Policy", "frame-ancestors 'none'")
			h.Set("Cross-Origin-Opener-Policy", "same-origin")
			h.Set("Cross-Origin-Resource-Policy", "same-origin")
			h.Set("Permissions-Policy", permissionsPolicy)
			h.Set("Referrer-Policy", "same-origin")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			if policy.HSTS {
				h.Set("Strict-Transport-Security", hstsValue)
			}
			if policy.LogoutPath != "" && r.Method == http.MethodPost && r.URL.Path == policy.LogoutPath {
				h.Set("Clear-Site-Data", clearSiteData)
			}
			next.ServeHTTP(w, r)
		})
	}
}
