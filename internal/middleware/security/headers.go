// Package security sets response hardening headers, answers CORS
// preflights and flags scanner traffic.
package security

import (
	"fmt"
	"net/http"
	"strings"
)

// HeadersConfig holds the header values applied to every response.
type HeadersConfig struct {
	CSP string

	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	CrossOriginResource string

	// CORS. An empty AllowedOrigin disables the CORS headers.
	AllowedOrigin  string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAgeSeconds  int
}

// DefaultHeadersConfig suits a JSON API consumed by a browser client on
// another origin.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP:                   "default-src 'none'; frame-ancestors 'none'",
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
		XFrameOptions:         "DENY",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "no-referrer",
		CrossOriginResource:   "cross-origin",
		AllowedOrigin:         "*",
		AllowedMethods:        []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:        []string{"Content-Type", "Authorization", "token", "X-Request-ID"},
		MaxAgeSeconds:         600,
	}
}

type HeadersMiddleware struct {
	config HeadersConfig
}

func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	return &HeadersMiddleware{config: config}
}

// Middleware applies the headers and short-circuits CORS preflight
// requests with 204.
func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.applyHeaders(w, r)
		if h.config.AllowedOrigin != "" && r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *HeadersMiddleware) applyHeaders(w http.ResponseWriter, r *http.Request) {
	headers := w.Header()

	headers.Set("X-Content-Type-Options", h.config.XContentTypeOptions)
	headers.Set("X-Frame-Options", h.config.XFrameOptions)
	if h.config.CSP != "" {
		headers.Set("Content-Security-Policy", h.config.CSP)
	}
	headers.Set("Referrer-Policy", h.config.ReferrerPolicy)
	headers.Set("Cross-Origin-Resource-Policy", h.config.CrossOriginResource)

	// HSTS only over TLS
	if r.TLS != nil && h.config.HSTSMaxAge > 0 {
		hsts := fmt.Sprintf("max-age=%d", h.config.HSTSMaxAge)
		if h.config.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		headers.Set("Strict-Transport-Security", hsts)
	}

	if h.config.AllowedOrigin == "" {
		return
	}
	origin := h.config.AllowedOrigin
	if origin != "*" {
		headers.Add("Vary", "Origin")
		if r.Header.Get("Origin") != origin {
			return
		}
	}
	headers.Set("Access-Control-Allow-Origin", origin)
	headers.Set("Access-Control-Allow-Methods", strings.Join(h.config.AllowedMethods, ", "))
	headers.Set("Access-Control-Allow-Headers", strings.Join(h.config.AllowedHeaders, ", "))
	if h.config.MaxAgeSeconds > 0 {
		headers.Set("Access-Control-Max-Age", fmt.Sprint(h.config.MaxAgeSeconds))
	}
}
