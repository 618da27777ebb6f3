package checker

import (
	"context"

	"github.com/khanhnv2901/vulnscan/internal/domain/scan"
)

// TransportSecurityChecker flags targets served over plaintext HTTP. It makes
// no network calls. localhost is exempt so local development targets do not
// produce noise.
type TransportSecurityChecker struct{}

// Check reports a Critical finding for non-localhost http:// targets
func (c *TransportSecurityChecker) Check(_ context.Context, target scan.Target) []scan.Finding {
	if target.IsHTTPS() || target.IsLocalhost() {
		return nil
	}
	return []scan.Finding{{
		Kind:           "Insecure Connection (HTTP)",
		Severity:       scan.SeverityCritical,
		Description:    "Website is using HTTP instead of HTTPS. All data is transmitted in plaintext.",
		Location:       target.String(),
		Recommendation: "Implement HTTPS with a valid SSL/TLS certificate. Use Let's Encrypt for free certificates.",
	}}
}

// Name returns the name of this checker
func (c *TransportSecurityChecker) Name() string {
	return "transport-security"
}
