package catalog

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// NoServiceHint is shown for rev challenges, which expose no network service.
const NoServiceHint = "No network service. Download files."

var schemeRe = regexp.MustCompile(`(?i)^[a-z]+://`)

// ConnectHint derives a copy-pasteable connection string from an instance URL.
// It never fails: malformed URLs degrade to a best-effort host:port split.
func ConnectHint(cat Category, instanceURL string) string {
	if instanceURL == "" {
		return "-"
	}
	host, port := parseHostPort(instanceURL)

	switch cat {
	case CatPwn, CatCrypto:
		if host != "" && port != "" {
			return fmt.Sprintf("nc %s %s", host, port)
		}
		return "nc " + instanceURL
	case CatRev:
		return NoServiceHint
	default:
		// web, misc, and anything unrecognized: tools consume the URL as-is.
		return instanceURL
	}
}

// parseHostPort attempts strict URL parsing first and falls back to stripping
// the scheme and splitting on "/" and ":". The port defaults by scheme only
// when strict parsing succeeded and the URL carries none.
func parseHostPort(raw string) (host, port string) {
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
		port = u.Port()
		if port == "" {
			if u.Scheme == "https" {
				port = "443"
			} else {
				port = "80"
			}
		}
		return u.Hostname(), port
	}

	trimmed := schemeRe.ReplaceAllString(raw, "")
	hostPort, _, _ := strings.Cut(trimmed, "/")
	host, port, _ = strings.Cut(hostPort, ":")
	return host, port
}

// FormatBytes renders a byte count for download labels. Non-positive sizes
// render as empty, matching byte counts the server never reported.
func FormatBytes(n int64) string {
	if n <= 0 {
		return ""
	}
	units := []string{"B", "KB", "MB", "GB"}
	size := float64(n)
	idx := 0
	for size >= 1024 && idx < len(units)-1 {
		size /= 1024
		idx++
	}
	if size >= 10 || idx == 0 {
		return fmt.Sprintf("%.0f %s", size, units[idx])
	}
	return fmt.Sprintf("%.1f %s", size, units[idx])
}
