package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateURL checks an absolute http(s) URL, such as the site URL or an
// external navbar link.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	// Only allow http/https schemes to prevent protocol handlers
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %q (only http/https allowed)", parsed.Scheme)
	}

	if strings.ContainsAny(rawURL, " \n\r\t") {
		return fmt.Errorf("URL contains whitespace")
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}

	return nil
}

// ValidateBrowserURL additionally rejects shell metacharacters. It guards the
// URL handed to the OS browser opener.
func ValidateBrowserURL(rawURL string) error {
	if err := ValidateURL(rawURL); err != nil {
		return err
	}

	dangerous := []string{";", "&", "|", "`", "$", "(", ")", "<", ">", "\"", "'", "\\"}
	for _, char := range dangerous {
		if strings.Contains(rawURL, char) {
			return fmt.Errorf("URL contains dangerous character: %s", char)
		}
	}

	return nil
}

// ValidateInternalPath checks a site-internal path such as "/blog".
func ValidateInternalPath(p string) error {
	if p == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if strings.Contains(p, "://") {
		return fmt.Errorf("internal path %q looks like an absolute URL", p)
	}
	if !strings.HasPrefix(p, "/") {
		return fmt.Errorf("internal path %q must start with /", p)
	}
	if strings.ContainsAny(p, " \n\r\t") {
		return fmt.Errorf("internal path %q contains whitespace", p)
	}
	return nil
}

// ValidateOrigin validates a WebSocket origin against the allowed hosts.
func ValidateOrigin(origin string, allowedOrigins []string) error {
	if origin == "" {
		return fmt.Errorf("origin header is required")
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("invalid origin format: %w", err)
	}

	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return fmt.Errorf("invalid origin scheme '%s': only http and https are allowed", originURL.Scheme)
	}

	for _, allowed := range allowedOrigins {
		if origin == allowed || originURL.Host == allowed {
			return nil
		}
	}

	return fmt.Errorf("origin '%s' is not in allowed origins list", origin)
}
