package checker

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/khanhnv2901/vulnscan/internal/domain/scan"
	consts "github.com/khanhnv2901/vulnscan/internal/shared/constants"
	"go.uber.org/zap"
)

// HeaderRequirement describes a response header whose absence is a finding.
type HeaderRequirement struct {
	Header         string
	Kind           string
	Severity       scan.Severity
	Description    string
	Recommendation string
}

// RequiredSecurityHeaders lists the headers checked on every target, in
// evaluation order. Only presence is checked; header values are not graded.
var RequiredSecurityHeaders = []HeaderRequirement{
	{
		Header:         "Strict-Transport-Security",
		Kind:           "Missing HSTS Header",
		Severity:       scan.SeverityMedium,
		Description:    "HTTP Strict Transport Security (HSTS) header not found. This allows downgrade attacks.",
		Recommendation: "Add 'Strict-Transport-Security: max-age=31536000; includeSubDomains' header",
	},
	{
		Header:         "X-Frame-Options",
		Kind:           "Missing X-Frame-Options",
		Severity:       scan.SeverityMedium,
		Description:    "X-Frame-Options header not set. Site may be vulnerable to clickjacking attacks.",
		Recommendation: "Add 'X-Frame-Options: DENY' or 'X-Frame-Options: SAMEORIGIN' header",
	},
	{
		Header:         "X-Content-Type-Options",
		Kind:           "Missing X-Content-Type-Options",
		Severity:       scan.SeverityLow,
		Description:    "X-Content-Type-Options header not found. Browser may interpret files as different MIME type.",
		Recommendation: "Add 'X-Content-Type-Options: nosniff' header",
	},
	{
		Header:         "Content-Security-Policy",
		Kind:           "Missing Content-Security-Policy",
		Severity:       scan.SeverityHigh,
		Description:    "Content Security Policy (CSP) not implemented. Site may be vulnerable to XSS attacks.",
		Recommendation: "Implement a strong Content-Security-Policy header to prevent XSS attacks",
	},
}

// SecurityHeaderChecker fetches the target once and reports each required
// security header that is absent.
type SecurityHeaderChecker struct {
	Prober  Prober
	Timeout time.Duration
	// Headers overrides RequiredSecurityHeaders when non-nil.
	Headers []HeaderRequirement
	Logger  *zap.Logger
}

// Check fetches the target and inspects its response headers
func (c *SecurityHeaderChecker) Check(ctx context.Context, target scan.Target) []scan.Finding {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = consts.HeaderProbeTimeout
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.Prober.Fetch(probeCtx, target.String())
	if err != nil {
		loggerOrNop(c.Logger).Warn("could not fetch headers",
			zap.String("check", c.Name()),
			zap.String("url", target.String()),
			zap.Error(err),
		)
		return nil
	}

	return MissingSecurityHeaders(target, resp, c.requirements())
}

// Name returns the name of this checker
func (c *SecurityHeaderChecker) Name() string {
	return "security-headers"
}

func (c *SecurityHeaderChecker) requirements() []HeaderRequirement {
	if c.Headers != nil {
		return c.Headers
	}
	return RequiredSecurityHeaders
}

// MissingSecurityHeaders returns one finding per requirement whose header is
// absent from resp. Header lookup is case-insensitive.
func MissingSecurityHeaders(target scan.Target, resp *Response, requirements []HeaderRequirement) []scan.Finding {
	var findings []scan.Finding
	for _, req := range requirements {
		if resp != nil && hasHeader(resp, req.Header) {
			continue
		}
		findings = append(findings, scan.Finding{
			Kind:           req.Kind,
			Severity:       req.Severity,
			Description:    req.Description,
			Location:       target.String(),
			Recommendation: req.Recommendation,
		})
	}
	return findings
}

// hasHeader treats a header as present even when its value is empty.
func hasHeader(resp *Response, name string) bool {
	if resp.Header == nil {
		return false
	}
	if _, ok := resp.Header[http.CanonicalHeaderKey(name)]; ok {
		return true
	}
	// Header maps built by hand may not use canonical keys.
	for key := range resp.Header {
		if strings.EqualFold(key, name) {
			return true
		}
	}
	return false
}
