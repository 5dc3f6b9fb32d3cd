package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"regexp"
)

// credentialPattern matches credential query parameters in URLs embedded in error messages.
var credentialPattern = regexp.MustCompile(`(?i)((?:secret|access_token)=)[^&\s"]+`)

// Describe maps a Forward error to the HTTP status and public message the
// caller should see. Every failure is a 5xx: the caller never receives a
// success response without a valid upstream JSON body.
func Describe(err error) (int, string) {
	if errors.Is(err, ErrInvalidJSON) {
		return http.StatusBadGateway, "upstream returned invalid JSON"
	}

	if errors.Is(err, ErrResponseTooLarge) {
		return http.StatusBadGateway, "upstream response too large"
	}

	if errors.Is(err, context.Canceled) {
		return http.StatusBadGateway, "client disconnected"
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, "upstream request timed out"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return http.StatusGatewayTimeout, "upstream request timed out"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return http.StatusBadGateway, "upstream host unreachable"
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return http.StatusBadGateway, "upstream connection failed"
	}

	return http.StatusBadGateway, "upstream request failed"
}

// SanitizeError redacts app secrets and access tokens from error messages
// that may contain upstream URLs.
func SanitizeError(err error) string {
	return credentialPattern.ReplaceAllString(err.Error(), "${1}[REDACTED]")
}
