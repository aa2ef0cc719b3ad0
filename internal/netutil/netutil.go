package netutil

import (
	"net/netip"
	"strings"
	"unicode/utf8"
)

// Session rows store the user agent verbatim up to this many runes.
const MaxUserAgentLength = 512

// NormalizeIP parses a bare IP or a host:port address (including bracketed
// IPv6) and returns the canonical IP portion without zone identifiers. The
// second return value reports whether the input parsed as an IP at all.
func NormalizeIP(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if addrPort, err := netip.ParseAddrPort(raw); err == nil {
		return addrPort.Addr().WithZone("").String(), true
	}
	if addr, err := netip.ParseAddr(raw); err == nil {
		return addr.WithZone("").String(), true
	}
	// "[::1]:notaport" and friends: strip the trailing colon section and retry.
	host := raw
	if strings.HasPrefix(raw, "[") {
		if end := strings.LastIndex(raw, "]"); end > 0 {
			host = raw[1:end]
		}
	} else if idx := strings.LastIndex(raw, ":"); idx > 0 && strings.Count(raw, ":") == 1 {
		host = raw[:idx]
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr.WithZone("").String(), true
	}
	return raw, false
}

// TruncateUserAgent caps a user agent at MaxUserAgentLength runes without
// splitting multi-byte characters.
func TruncateUserAgent(ua string) string {
	if utf8.RuneCountInString(ua) <= MaxUserAgentLength {
		return ua
	}
	runes := 0
	for i := range ua {
		if runes == MaxUserAgentLength {
			return ua[:i]
		}
		runes++
	}
	return ua
}
