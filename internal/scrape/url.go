package scrape

import (
	"net"
	"net/url"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
)

// ErrInvalidURL marks inputs that cannot be turned into a public https URL.
var ErrInvalidURL = eris.New("invalid URL format")

// CleanURL normalizes raw to "https://<host><path>", dropping any scheme and a
// leading "www.". Hosts without a dot, localhost, and loopback, private or
// unspecified IPs are rejected.
func CleanURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)
	for _, scheme := range []string{"https://", "http://"} {
		if strings.HasPrefix(lower, scheme) {
			s = s[len(scheme):]
			break
		}
	}
	if strings.HasPrefix(strings.ToLower(s), "www.") {
		s = s[len("www."):]
	}

	host, rest := s, ""
	if idx := strings.IndexAny(s, "/?#"); idx >= 0 {
		host, rest = s[:idx], s[idx:]
	}
	hostname := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		hostname = h
	}
	hostname = strings.ToLower(hostname)

	if !publicHost(hostname) {
		return "", eris.Wrapf(ErrInvalidURL, "%q", raw)
	}

	u, err := url.Parse("https://" + strings.ToLower(host) + rest)
	if err != nil || u.Hostname() == "" {
		return "", eris.Wrapf(ErrInvalidURL, "%q", raw)
	}
	return u.String(), nil
}

func publicHost(host string) bool {
	if host == "" || host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return false
	}
	if strings.IndexFunc(host, unicode.IsSpace) >= 0 {
		return false
	}
	if ip := net.ParseIP(host); ip != nil {
		return !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() && !ip.IsLinkLocalUnicast()
	}
	return strings.Contains(host, ".") && !strings.HasPrefix(host, ".") && !strings.HasSuffix(host, ".")
}
