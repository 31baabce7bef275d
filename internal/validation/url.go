// Package validation checks user-supplied URLs and paths before they are
// written into packed output.
package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidatePrefix checks a public URL prefix. Empty, path-only and
// protocol-relative prefixes are accepted, as are absolute http(s) URLs.
// Queries and fragments are rejected since rewritten URLs are appended to
// the prefix.
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return nil
	}
	if strings.ContainsAny(prefix, " \t\r\n") {
		return fmt.Errorf("prefix contains whitespace")
	}

	parsed, err := url.Parse(prefix)
	if err != nil {
		return fmt.Errorf("invalid prefix: %w", err)
	}

	switch parsed.Scheme {
	case "":
	case "http", "https":
		if parsed.Host == "" {
			return fmt.Errorf("prefix URL must have a hostname")
		}
	default:
		return fmt.Errorf("invalid prefix scheme: %s (only http/https allowed)", parsed.Scheme)
	}

	if parsed.RawQuery != "" || parsed.ForceQuery {
		return fmt.Errorf("prefix cannot contain a query")
	}
	if parsed.Fragment != "" || strings.Contains(prefix, "#") {
		return fmt.Errorf("prefix cannot contain a fragment")
	}
	return nil
}

// ValidateURL checks an absolute http(s) URL, such as the address the dev
// server announces.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (only http/https allowed)", parsed.Scheme)
	}
	if strings.ContainsAny(rawURL, " \t\r\n") {
		return fmt.Errorf("URL contains whitespace")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}
	return nil
}
