package checker

import (
	"context"
	"net/http"
	"testing"

	"github.com/khanhnv2901/vulnscan/internal/domain/scan"
	"go.uber.org/zap/zaptest"
)

func mustTarget(t *testing.T, raw string) scan.Target {
	t.Helper()
	target, err := scan.ParseTarget(raw)
	if err != nil {
		t.Fatalf("ParseTarget(%q): %v", raw, err)
	}
	return target
}

func TestSecurityHeaderChecker_AllMissing(t *testing.T) {
	target := mustTarget(t, "https://example.com")
	prober := &stubProber{responses: map[string]*Response{
		"https://example.com": headerResponse(http.StatusOK, "Server", "nginx"),
	}}
	checker := &SecurityHeaderChecker{Prober: prober, Logger: zaptest.NewLogger(t)}

	findings := checker.Check(context.Background(), target)

	want := []struct {
		kind     string
		severity scan.Severity
	}{
		{"Missing HSTS Header", scan.SeverityMedium},
		{"Missing X-Frame-Options", scan.SeverityMedium},
		{"Missing X-Content-Type-Options", scan.SeverityLow},
		{"Missing Content-Security-Policy", scan.SeverityHigh},
	}
	if len(findings) != len(want) {
		t.Fatalf("expected %d findings, got %d", len(want), len(findings))
	}
	for i, w := range want {
		if findings[i].Kind != w.kind || findings[i].Severity != w.severity {
			t.Errorf("finding %d: expected %s/%s, got %s/%s", i, w.kind, w.severity, findings[i].Kind, findings[i].Severity)
		}
		if findings[i].Location != "https://example.com" {
			t.Errorf("finding %d: unexpected location %s", i, findings[i].Location)
		}
		if findings[i].Recommendation == "" {
			t.Errorf("finding %d: expected a recommendation", i)
		}
	}
	if prober.callCount() != 1 {
		t.Fatalf("expected exactly one probe, got %d", prober.callCount())
	}
}

func TestSecurityHeaderChecker_AllPresent(t *testing.T) {
	target := mustTarget(t, "https://example.com")
	prober := &stubProber{responses: map[string]*Response{
		"https://example.com": headerResponse(http.StatusOK,
			"Strict-Transport-Security", "max-age=0",
			"X-Frame-Options", "ALLOWALL",
			"X-Content-Type-Options", "sniff",
			"Content-Security-Policy", "default-src *",
		),
	}}
	checker := &SecurityHeaderChecker{Prober: prober}

	// Weak values are still "present"; value grading is out of scope.
	if findings := checker.Check(context.Background(), target); len(findings) != 0 {
		t.Fatalf("expected no findings, got %v", findings)
	}
}

func TestSecurityHeaderChecker_Independent(t *testing.T) {
	target := mustTarget(t, "https://example.com")
	prober := &stubProber{responses: map[string]*Response{
		"https://example.com": headerResponse(http.StatusOK,
			"X-Frame-Options", "DENY",
			"Content-Security-Policy", "default-src 'self'",
		),
	}}
	checker := &SecurityHeaderChecker{Prober: prober}

	findings := checker.Check(context.Background(), target)
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(findings))
	}
	if findings[0].Kind != "Missing HSTS Header" || findings[1].Kind != "Missing X-Content-Type-Options" {
		t.Fatalf("unexpected findings: %+v", findings)
	}
}

func TestSecurityHeaderChecker_TransportFailure(t *testing.T) {
	checker := &SecurityHeaderChecker{Prober: failingProber(), Logger: zaptest.NewLogger(t)}

	findings := checker.Check(context.Background(), mustTarget(t, "https://unreachable.invalid"))
	if len(findings) != 0 {
		t.Fatalf("expected no findings on transport failure, got %d", len(findings))
	}
}

func TestSecurityHeaderChecker_NonSuccessStatusStillInspected(t *testing.T) {
	target := mustTarget(t, "https://example.com")
	prober := &stubProber{responses: map[string]*Response{
		"https://example.com": headerResponse(http.StatusNotFound),
	}}
	checker := &SecurityHeaderChecker{Prober: prober}

	if findings := checker.Check(context.Background(), target); len(findings) != 4 {
		t.Fatalf("expected 4 findings for error page without headers, got %d", len(findings))
	}
}

func TestSecurityHeaderChecker_CustomRequirements(t *testing.T) {
	target := mustTarget(t, "https://example.com")
	prober := &stubProber{responses: map[string]*Response{
		"https://example.com": headerResponse(http.StatusOK),
	}}
	checker := &SecurityHeaderChecker{
		Prober: prober,
		Headers: []HeaderRequirement{
			{Header: "Referrer-Policy", Kind: "Missing Referrer-Policy", Severity: scan.SeverityLow},
		},
	}

	findings := checker.Check(context.Background(), target)
	if len(findings) != 1 || findings[0].Kind != "Missing Referrer-Policy" {
		t.Fatalf("unexpected findings: %+v", findings)
	}
}

func TestHasHeader_CaseInsensitive(t *testing.T) {
	resp := &Response{Header: http.Header{
		"strict-transport-security": {"max-age=31536000"},
		"X-Frame-Options":           {""},
	}}

	if !hasHeader(resp, "Strict-Transport-Security") {
		t.Error("expected lowercase key to match")
	}
	if !hasHeader(resp, "x-frame-options") {
		t.Error("expected empty-valued header to count as present")
	}
	if hasHeader(resp, "Content-Security-Policy") {
		t.Error("did not expect CSP to be present")
	}
	if hasHeader(&Response{}, "X-Frame-Options") {
		t.Error("nil header map has no headers")
	}
}
