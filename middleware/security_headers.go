// Package middleware provides endpoint.Processor implementations for
// cross-cutting concerns on RPC and document endpoints: security headers,
// CORS, and bearer-token authentication.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mnehpets/openrpcserve/endpoint"
)

// SecurityHeadersProcessor is a middleware that sets recommended security
// headers for API responses.
//
// Defaults from NewAPISecurityHeadersProcessor:
//   - HSTS: max-age=31536000; includeSubDomains (1 year, with subdomains)
//   - Referrer-Policy: no-referrer
//   - X-Frame-Options: DENY
//   - X-Content-Type-Options: nosniff
//   - Content-Security-Policy: default-src 'none'; frame-ancestors 'none'
//   - Cross-Origin Policies: COOP=same-origin, COEP=require-corp, CORP=same-origin
//
// For cross-origin scenarios (browser-based tooling fetching the discovery
// document), configure CORS via CORSConfig. The middleware automatically
// handles CORS preflight (OPTIONS) requests.
type SecurityHeadersProcessor struct {
	// HSTS configures the Strict-Transport-Security header.
	// Set to nil to disable. Default: max-age=31536000; includeSubDomains
	HSTS *HSTSConfig

	// ReferrerPolicy sets the Referrer-Policy header.
	// Set to empty string to disable. Default: no-referrer
	ReferrerPolicy string

	// FrameOptions sets the X-Frame-Options header.
	// Common values: DENY, SAMEORIGIN, or empty to disable. Default: DENY
	FrameOptions string

	// ContentTypeOptions sets the X-Content-Type-Options header.
	// Set to false to disable. Default: true (nosniff)
	ContentTypeOptions bool

	// ContentSecurityPolicy sets the Content-Security-Policy header.
	// Set to empty string to disable.
	ContentSecurityPolicy string

	// CrossOriginOpenerPolicy sets the Cross-Origin-Opener-Policy header.
	// Set to empty string to disable.
	CrossOriginOpenerPolicy string

	// CrossOriginEmbedderPolicy sets the Cross-Origin-Embedder-Policy header.
	// Set to empty string to disable.
	CrossOriginEmbedderPolicy string

	// CrossOriginResourcePolicy sets the Cross-Origin-Resource-Policy header.
	// Set to empty string to disable.
	CrossOriginResourcePolicy string

	// CORS configures Cross-Origin Resource Sharing headers.
	// Set to nil to disable CORS headers.
	CORS *CORSConfig
}

// HSTSConfig configures HTTP Strict Transport Security.
type HSTSConfig struct {
	// MaxAge specifies the duration (in seconds) that the browser should
	// remember that a site is only to be accessed using HTTPS.
	// Default: 31536000 (1 year)
	MaxAge int

	// IncludeSubDomains indicates whether HSTS applies to subdomains.
	// Default: true
	IncludeSubDomains bool

	// Preload indicates whether the site should be included in browsers'
	// HSTS preload lists. Only use if you've submitted your domain to the
	// HSTS preload list. Default: false
	Preload bool
}

// CORSConfig configures Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	// AllowedOrigins specifies allowed origins for CORS requests.
	// Use "*" to allow any origin (not recommended for production).
	AllowedOrigins []string

	// AllowedMethods specifies allowed HTTP methods for CORS requests.
	AllowedMethods []string

	// AllowedHeaders specifies allowed headers for CORS requests.
	AllowedHeaders []string

	// ExposedHeaders specifies headers that are safe to expose to the API.
	ExposedHeaders []string

	// AllowCredentials indicates whether credentials (cookies, auth headers)
	// can be sent.
	AllowCredentials bool

	// MaxAge indicates how long (in seconds) preflight request results can
	// be cached. Default: 3600 (1 hour)
	MaxAge int
}

// SecurityHeadersOption is a functional option for configuring SecurityHeadersProcessor.
type SecurityHeadersOption func(*SecurityHeadersProcessor)

// NewAPISecurityHeadersProcessor creates a SecurityHeadersProcessor with
// defaults suitable for API endpoints.
func NewAPISecurityHeadersProcessor(opts ...SecurityHeadersOption) *SecurityHeadersProcessor {
	p := &SecurityHeadersProcessor{
		HSTS: &HSTSConfig{
			MaxAge:            31536000, // 1 year
			IncludeSubDomains: true,
			Preload:           false,
		},
		ReferrerPolicy:            "no-referrer",
		FrameOptions:              "DENY",
		ContentTypeOptions:        true,
		ContentSecurityPolicy:     "default-src 'none'; frame-ancestors 'none'",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginEmbedderPolicy: "require-corp",
		CrossOriginResourcePolicy: "same-origin",
		CORS:                      nil,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// WithoutHSTS disables HSTS headers (for plain-HTTP development servers).
func WithoutHSTS() SecurityHeadersOption {
	return func(p *SecurityHeadersProcessor) {
		p.HSTS = nil
	}
}

// WithCORS configures CORS headers for cross-origin access.
func WithCORS(config *CORSConfig) SecurityHeadersOption {
	return func(p *SecurityHeadersProcessor) {
		p.CORS = config
	}
}

// Process implements endpoint.Processor.
func (p *SecurityHeadersProcessor) Process(w http.ResponseWriter, r *http.Request, next func(http.ResponseWriter, *http.Request) error) error {
	if p.HSTS != nil {
		hsts := formatHSTS(p.HSTS)
		if hsts != "" {
			w.Header().Set("Strict-Transport-Security", hsts)
		}
	}

	if p.ReferrerPolicy != "" {
		w.Header().Set("Referrer-Policy", p.ReferrerPolicy)
	}

	if p.FrameOptions != "" {
		w.Header().Set("X-Frame-Options", p.FrameOptions)
	}

	if p.ContentTypeOptions {
		w.Header().Set("X-Content-Type-Options", "nosniff")
	}

	if p.ContentSecurityPolicy != "" {
		w.Header().Set("Content-Security-Policy", p.ContentSecurityPolicy)
	}

	if p.CrossOriginOpenerPolicy != "" {
		w.Header().Set("Cross-Origin-Opener-Policy", p.CrossOriginOpenerPolicy)
	}
	if p.CrossOriginEmbedderPolicy != "" {
		w.Header().Set("Cross-Origin-Embedder-Policy", p.CrossOriginEmbedderPolicy)
	}
	if p.CrossOriginResourcePolicy != "" {
		w.Header().Set("Cross-Origin-Resource-Policy", p.CrossOriginResourcePolicy)
	}

	if p.CORS != nil {
		setCORSHeaders(w, r, p.CORS)

		// Short-circuit CORS preflight requests: an OPTIONS request with an
		// Origin and Access-Control-Request-Method gets 204 directly.
		if r.Method == http.MethodOptions &&
			r.Header.Get("Origin") != "" &&
			r.Header.Get("Access-Control-Request-Method") != "" {
			return endpoint.Error(http.StatusNoContent, "", nil)
		}
	}

	return next(w, r)
}

// formatHSTS formats the HSTS header value.
func formatHSTS(config *HSTSConfig) string {
	if config == nil || config.MaxAge <= 0 {
		return ""
	}

	var parts []string
	parts = append(parts, "max-age="+strconv.Itoa(config.MaxAge))

	if config.IncludeSubDomains {
		parts = append(parts, "includeSubDomains")
	}

	if config.Preload {
		parts = append(parts, "preload")
	}

	return strings.Join(parts, "; ")
}

// setCORSHeaders sets CORS headers based on the configuration.
func setCORSHeaders(w http.ResponseWriter, r *http.Request, config *CORSConfig) {
	// CORS headers are only needed for actual cross-origin requests
	// (Origin header present, per the CORS spec).
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}

	if len(config.AllowedOrigins) > 0 {
		for _, allowed := range config.AllowedOrigins {
			if allowed == "*" {
				// The CORS spec forbids '*' with credentials; skip the
				// wildcard when credentials are enabled.
				if config.AllowCredentials {
					continue
				}
				w.Header().Set("Access-Control-Allow-Origin", "*")
				break
			} else if allowed == origin {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				break
			}
		}
	}

	if config.AllowCredentials {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}

	if len(config.ExposedHeaders) > 0 {
		w.Header().Set("Access-Control-Expose-Headers", strings.Join(config.ExposedHeaders, ", "))
	}

	// Preflight-specific headers (only for OPTIONS requests).
	if r.Method == http.MethodOptions {
		if len(config.AllowedMethods) > 0 {
			w.Header().Set("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
		}

		if len(config.AllowedHeaders) > 0 {
			w.Header().Set("Access-Control-Allow-Headers", strings.Join(config.AllowedHeaders, ", "))
		}

		if config.MaxAge > 0 {
			w.Header().Set("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))
		}
	}
}

var _ endpoint.Processor = (*SecurityHeadersProcessor)(nil)
