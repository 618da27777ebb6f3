package scan

import (
	"net/url"
	"strings"

	apperrors "github.com/khanhnv2901/vulnscan/internal/shared/errors"
)

// Target is a validated URL under scan. The zero value is not a valid target;
// use ParseTarget.
type Target struct {
	raw    string
	scheme string
	host   string
}

// ParseTarget validates raw and returns the target. Only non-empty http and
// https URLs with a host are accepted. The scheme check is a prefix check on
// the raw string so that the URL is probed exactly as the caller supplied it.
func ParseTarget(raw string) (Target, error) {
	if raw == "" {
		return Target{}, apperrors.Validation("parse target", apperrors.ErrEmptyURL)
	}

	var scheme string
	switch {
	case strings.HasPrefix(raw, "https://"):
		scheme = "https"
	case strings.HasPrefix(raw, "http://"):
		scheme = "http"
	default:
		return Target{}, apperrors.Validation("parse target", apperrors.ErrInvalidScheme)
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Hostname() == "" {
		return Target{}, apperrors.Validation("parse target", apperrors.ErrInvalidHost)
	}

	return Target{raw: raw, scheme: scheme, host: parsed.Hostname()}, nil
}

// String returns the URL exactly as supplied.
func (t Target) String() string { return t.raw }

// Scheme is "http" or "https".
func (t Target) Scheme() string { return t.scheme }

// Host is the hostname without port.
func (t Target) Host() string { return t.host }

// IsHTTPS reports whether the target uses TLS.
func (t Target) IsHTTPS() bool { return t.scheme == "https" }

// IsLocalhost reports whether the target points at a local development host.
func (t Target) IsLocalhost() bool {
	return strings.EqualFold(t.host, "localhost")
}

// Base returns the URL with any trailing slashes removed, suitable for
// appending absolute paths.
func (t Target) Base() string {
	return strings.TrimRight(t.raw, "/")
}
