package chathub

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// OriginChecker builds a websocket.Upgrader CheckOrigin func. An empty list
// or a "*" entry allows every origin. Requests without an Origin header are
// not browsers and are always allowed; they still need a valid token.
func OriginChecker(allowed []string) func(*http.Request) bool {
	set, allowAll := normalizeOrigins(allowed)
	if len(allowed) == 0 {
		allowAll = true
	}
	return func(r *http.Request) bool {
		header := r.Header.Get("Origin")
		if header == "" || allowAll {
			return true
		}
		origin, ok := normalizeOrigin(header)
		if ok {
			if _, hit := set[origin]; hit {
				return true
			}
		}
		log.Warn().Str("origin", header).Msg("blocked websocket origin")
		return false
	}
}

func normalizeOrigins(origins []string) (map[string]struct{}, bool) {
	set := make(map[string]struct{}, len(origins))
	allowAll := false
	for _, o := range origins {
		o = strings.TrimSpace(o)
		switch {
		case o == "":
			continue
		case o == "*":
			allowAll = true
			continue
		}
		n, ok := normalizeOrigin(o)
		if !ok {
			log.Warn().Str("origin", o).Msg("ignoring invalid websocket origin")
			continue
		}
		set[n] = struct{}{}
	}
	return set, allowAll
}

// normalizeOrigin reduces an origin to lower(scheme)://lower(host).
func normalizeOrigin(origin string) (string, bool) {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), true
}
