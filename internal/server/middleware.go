// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// middleware.go - HTTP middleware for the nila conversation service.
//
// Includes:
//   - Session auth middleware (bearer tokens resolved against storage)
//   - CORS middleware with origin allowlist
//   - Per-IP rate limiting (token buckets, idle eviction)
//   - Request logging middleware
//   - Security headers middleware
//   - Panic recovery middleware
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/nila-tui/internal/storage"
)

// ============================================================================
// Session Auth Middleware
// ============================================================================

// userKey is the context key for the authenticated user.
type userKey struct{}

// sessionUser returns the user the auth middleware resolved.
// Only valid inside handlers mounted behind requireSession.
func sessionUser(ctx context.Context) *storage.User {
	user, _ := ctx.Value(userKey{}).(*storage.User)
	return user
}

// requireSession enforces bearer auth on privileged routes. The token is
// an opaque session ID resolved against storage; unknown and expired
// tokens both produce 401 so callers learn nothing about which it was.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		token := strings.TrimSpace(header[len(prefix):])

		user, err := s.store.ResolveSession(r.Context(), token)
		if errors.Is(err, storage.ErrSessionNotFound) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}
		if err != nil {
			s.logger.Printf("AUTH_FAILED | error=%v", err)
			writeError(w, http.StatusInternalServerError, "could not validate session")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
	})
}

// ============================================================================
// CORS Middleware
// ============================================================================

// CORSConfig holds the browser-origin allowlist and preflight settings.
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// NewCORSConfig builds a CORSConfig for the given origin allowlist.
func NewCORSConfig(origins []string) *CORSConfig {
	return &CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}
}

// isOriginAllowed checks the origin against the allowlist.
func (c *CORSConfig) isOriginAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range c.AllowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// CORSMiddleware returns HTTP middleware that applies the origin
// allowlist and answers preflight requests with 204.
func CORSMiddleware(config *CORSConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if config.isOriginAllowed(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
				w.Header().Set("Access-Control-Allow-Headers", strings.Join(config.AllowedHeaders, ", "))
				w.Header().Set("Access-Control-Max-Age", fmt.Sprintf("%d", config.MaxAge))
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Vary", "Origin")
			}

			// Preflight requests stop here.
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ============================================================================
// Rate Limiter
// ============================================================================

// visitor pairs a token bucket with its last activity time so idle
// entries can be evicted.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces a per-IP token bucket.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor

	limit rate.Limit
	burst int

	// idleAfter is how long a bucket may sit unused before eviction.
	idleAfter time.Duration
}

// NewRateLimiter creates a per-IP limiter allowing perSec sustained
// requests with the given burst. A background sweep evicts idle buckets.
func NewRateLimiter(perSec float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		visitors:  make(map[string]*visitor),
		limit:     rate.Limit(perSec),
		burst:     burst,
		idleAfter: 3 * time.Minute,
	}

	go rl.sweep()

	return rl
}

// Allow reports whether a request from ip fits its bucket.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()

	return v.limiter.Allow()
}

// sweep periodically drops buckets that have been idle long enough that
// they are full again anyway.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-rl.idleAfter)
		for ip, v := range rl.visitors {
			if v.lastSeen.Before(cutoff) {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimitMiddleware returns HTTP middleware that enforces the per-IP
// limit, answering 429 with a Retry-After hint when exceeded.
func RateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			if !limiter.Allow(ip) {
				w.Header().Set("Retry-After", "1")
				log.Printf("RATE_LIMIT_EXCEEDED | ip=%s", ip)
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ============================================================================
// Request Logging Middleware
// ============================================================================

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// newResponseWriter creates a wrapped response writer.
func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

// WriteHeader captures the status code before writing it.
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware returns HTTP middleware that logs every request.
//
// Log format: "POST /chat | 200 | 1.234s | 127.0.0.1"
func LoggingMiddleware(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			logger.Printf("%s %s | %d | %.3fs | %s",
				r.Method,
				r.URL.Path,
				wrapped.statusCode,
				time.Since(start).Seconds(),
				clientIP(r),
			)
		})
	}
}

// ============================================================================
// Security Headers Middleware
// ============================================================================

// SecurityHeadersMiddleware returns HTTP middleware that adds standard
// security headers to every response.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME type sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Prevent clickjacking
			w.Header().Set("X-Frame-Options", "DENY")

			// Content Security Policy
			w.Header().Set("Content-Security-Policy", "default-src 'self'")

			// Sessions and transcripts must never be cached
			w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")

			// Referrer Policy
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}

// ============================================================================
// Recovery Middleware
// ============================================================================

// RecoveryMiddleware returns HTTP middleware that recovers from panics,
// logs the stack trace, and answers 500 instead of dropping the
// connection.
func RecoveryMiddleware(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Printf("PANIC_RECOVERED | method=%s path=%s error=%v\n%s",
						r.Method,
						r.URL.Path,
						err,
						debug.Stack(),
					)
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// ============================================================================
// IP Extraction Helper
// ============================================================================

// clientIP extracts the client IP from the request. chi's RealIP
// middleware has already folded trusted forwarding headers into
// RemoteAddr, which may or may not still carry a port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
