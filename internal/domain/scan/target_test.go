package scan

import (
	"errors"
	"testing"

	apperrors "github.com/khanhnv2901/vulnscan/internal/shared/errors"
)

func TestParseTarget_Valid(t *testing.T) {
	tests := []struct {
		raw       string
		scheme    string
		host      string
		localhost bool
		base      string
	}{
		{raw: "https://example.com", scheme: "https", host: "example.com", base: "https://example.com"},
		{raw: "http://example.com/", scheme: "http", host: "example.com", base: "http://example.com"},
		{raw: "http://localhost:8080", scheme: "http", host: "localhost", localhost: true, base: "http://localhost:8080"},
		{raw: "https://example.com/app//", scheme: "https", host: "example.com", base: "https://example.com/app"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			target, err := ParseTarget(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if target.String() != tt.raw {
				t.Errorf("String() = %q, want %q", target.String(), tt.raw)
			}
			if target.Scheme() != tt.scheme {
				t.Errorf("Scheme() = %q, want %q", target.Scheme(), tt.scheme)
			}
			if target.Host() != tt.host {
				t.Errorf("Host() = %q, want %q", target.Host(), tt.host)
			}
			if target.IsLocalhost() != tt.localhost {
				t.Errorf("IsLocalhost() = %v, want %v", target.IsLocalhost(), tt.localhost)
			}
			if target.Base() != tt.base {
				t.Errorf("Base() = %q, want %q", target.Base(), tt.base)
			}
		})
	}
}

func TestParseTarget_Invalid(t *testing.T) {
	tests := []struct {
		raw  string
		want error
	}{
		{raw: "", want: apperrors.ErrEmptyURL},
		{raw: "example.com", want: apperrors.ErrInvalidScheme},
		{raw: "ftp://example.com", want: apperrors.ErrInvalidScheme},
		{raw: "HTTP://example.com", want: apperrors.ErrInvalidScheme},
		{raw: "javascript:alert(1)", want: apperrors.ErrInvalidScheme},
		{raw: "http://", want: apperrors.ErrInvalidHost},
		{raw: "https:///path", want: apperrors.ErrInvalidHost},
		{raw: "http://exa mple.com", want: apperrors.ErrInvalidHost},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			_, err := ParseTarget(tt.raw)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !apperrors.IsValidation(err) {
				t.Fatalf("expected validation error, got kind %v", apperrors.KindOf(err))
			}
		})
	}
}
