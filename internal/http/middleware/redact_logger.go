// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, an access logger that scrubs
// credentials and obvious PII before anything reaches the log:
//
//   - Authorization, Cookie and Set-Cookie headers (plus MaskHeaders) are
//     replaced with "[REDACTED]".
//   - The token query parameter used by WebSocket handshakes (plus
//     MaskQueryParams) is replaced with "[REDACTED]".
//   - E-mail addresses, UUIDs and phone numbers are replaced in the remaining
//     query string and header values.
//
// Bodies are never logged.
package middleware

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// defaultMaskedParams are query parameters that carry credentials.
var defaultMaskedParams = []string{"token", "access_token"}

// RedactOptions adds header names and query parameters to the masked sets.
type RedactOptions struct {
	MaskHeaders     []string
	MaskQueryParams []string
}

var (
	// UUIDs are matched first so the phone pattern cannot eat their digits.
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

func redactPII(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// maskQuery replaces the values of the named parameters. Unparseable
// queries are dropped entirely rather than logged raw.
func maskQuery(raw string, params []string) string {
	if raw == "" {
		return ""
	}
	q, err := url.ParseQuery(raw)
	if err != nil {
		return "[UNPARSEABLE]"
	}
	masked := false
	for _, p := range params {
		if vs, ok := q[p]; ok {
			for i := range vs {
				vs[i] = "[REDACTED]"
			}
			masked = true
		}
	}
	if !masked {
		return raw
	}
	// Encode escapes the brackets; keep the marker readable.
	return strings.ReplaceAll(q.Encode(), "%5BREDACTED%5D", "[REDACTED]")
}

// RedactingLogger returns an access logger with credentials and PII
// scrubbed. Level is info, warn for 4xx and error for 5xx.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	maskHeaders := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			maskHeaders[h] = struct{}{}
		}
	}
	params := append(append([]string(nil), defaultMaskedParams...), opts.MaskQueryParams...)

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		query := redactPII(maskQuery(c.Request.URL.RawQuery, params))

		headers := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				headers[k] = "[REDACTED]"
				continue
			}
			headers[k] = redactPII(strings.Join(vv, ", "))
		}

		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}

		reqID := c.Writer.Header().Get(requestIDHeader)
		if reqID == "" {
			reqID = c.GetHeader(requestIDHeader)
		}
		if uid, ok := UserID(c); ok {
			ev = ev.Uint("user_id", uid)
		}
		ev.
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}
