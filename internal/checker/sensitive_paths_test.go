package checker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/khanhnv2901/vulnscan/internal/domain/scan"
	"go.uber.org/zap/zaptest"
)

func TestSensitivePathChecker_SingleExposure(t *testing.T) {
	base := "https://example.com"
	prober := &stubProber{responses: map[string]*Response{
		base + "/.env": headerResponse(http.StatusOK),
	}}
	checker := &SensitivePathChecker{Prober: prober, Logger: zaptest.NewLogger(t)}

	findings := checker.Check(context.Background(), mustTarget(t, base))

	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	f := findings[0]
	if f.Location != base+"/.env" {
		t.Errorf("unexpected location %s", f.Location)
	}
	if f.Severity != scan.SeverityHigh {
		t.Errorf("expected High, got %s", f.Severity)
	}
	if f.Kind != "Sensitive File Exposed" {
		t.Errorf("unexpected kind %s", f.Kind)
	}
	if f.Description != "Sensitive file or directory accessible: /.env" {
		t.Errorf("unexpected description %s", f.Description)
	}
	if prober.callCount() != len(DefaultSensitivePaths) {
		t.Errorf("expected %d probes, got %d", len(DefaultSensitivePaths), prober.callCount())
	}
}

func TestSensitivePathChecker_TrailingSlashStripped(t *testing.T) {
	prober := &stubProber{responses: map[string]*Response{
		"https://example.com/admin": headerResponse(http.StatusOK),
	}}
	checker := &SensitivePathChecker{Prober: prober}

	findings := checker.Check(context.Background(), mustTarget(t, "https://example.com/"))
	if len(findings) != 1 || findings[0].Location != "https://example.com/admin" {
		t.Fatalf("unexpected findings: %+v", findings)
	}
}

func TestSensitivePathChecker_OnlySuccessStatusReported(t *testing.T) {
	base := "https://example.com"
	prober := &stubProber{responses: map[string]*Response{
		base + "/.git/config":   headerResponse(http.StatusNoContent),
		base + "/.env":          headerResponse(http.StatusFound),
		base + "/config.php":    headerResponse(http.StatusForbidden),
		base + "/wp-config.php": headerResponse(http.StatusInternalServerError),
		base + "/admin":         headerResponse(http.StatusNotFound),
		base + "/phpmyadmin":    headerResponse(http.StatusOK),
	}}
	checker := &SensitivePathChecker{Prober: prober}

	findings := checker.Check(context.Background(), mustTarget(t, base))
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %d: %+v", len(findings), findings)
	}
	// Path list order, not completion order.
	if findings[0].Location != base+"/.git/config" || findings[1].Location != base+"/phpmyadmin" {
		t.Fatalf("unexpected order: %s, %s", findings[0].Location, findings[1].Location)
	}
}

func TestSensitivePathChecker_AllFail(t *testing.T) {
	checker := &SensitivePathChecker{Prober: failingProber(), Runner: &Runner{Concurrency: 3}}

	if findings := checker.Check(context.Background(), mustTarget(t, "https://example.com")); len(findings) != 0 {
		t.Fatalf("expected no findings, got %d", len(findings))
	}
}

func TestSensitivePathChecker_CustomPaths(t *testing.T) {
	base := "http://example.com"
	prober := &stubProber{responses: map[string]*Response{
		base + "/backup.zip": headerResponse(http.StatusOK),
	}}
	checker := &SensitivePathChecker{Prober: prober, Paths: []string{"/backup.zip", "/.env"}}

	findings := checker.Check(context.Background(), mustTarget(t, base))
	if len(findings) != 1 || findings[0].Location != base+"/backup.zip" {
		t.Fatalf("unexpected findings: %+v", findings)
	}
	if prober.callCount() != 2 {
		t.Fatalf("expected 2 probes, got %d", prober.callCount())
	}
}

func TestSensitivePathChecker_AgainstServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/.git/config", "/admin":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("[core]"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	checker := &SensitivePathChecker{Prober: NewHTTPProber(0)}
	findings := checker.Check(context.Background(), mustTarget(t, server.URL))

	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(findings))
	}
	if findings[0].Location != server.URL+"/.git/config" || findings[1].Location != server.URL+"/admin" {
		t.Fatalf("unexpected findings: %+v", findings)
	}
}
