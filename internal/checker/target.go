package checker

import (
	"net"
	"net/url"
	"strings"
)

// ExtractHost returns the bare hostname from a host or URL. It handles:
//   - example.com
//   - example.com:8080
//   - https://example.com:443/path
//   - [::1]:22
func ExtractHost(target string) string {
	target = strings.TrimSpace(target)
	if target == "" {
		return ""
	}

	// A scheme without dots is treated as a real URL scheme; "example.com:8080"
	// would otherwise parse with scheme "example.com".
	parsed, err := url.Parse(target)
	if err != nil || parsed.Scheme == "" || strings.Contains(parsed.Scheme, ".") || parsed.Host == "" {
		parsed, err = url.Parse("tcp://" + target)
		if err != nil {
			return manualHost(target)
		}
	}

	if host := parsed.Hostname(); host != "" {
		return host
	}
	return manualHost(target)
}

func manualHost(target string) string {
	host := strings.SplitN(target, "/", 2)[0]
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
