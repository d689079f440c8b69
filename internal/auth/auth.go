// Package auth validates the (API key, origin domain) trust relationship for
// widget callers. The trust table is loaded once at startup and never mutated,
// so validation is lock-free and safe for concurrent use.
package auth

import (
	"fmt"
	"net/url"
	"strings"
)

// Code classifies a validation failure.
type Code string

const (
	CodeMissingAPIKey             Code = "MISSING_API_KEY"
	CodeMalformedAPIKey           Code = "MALFORMED_API_KEY"
	CodeMissingDomain             Code = "MISSING_DOMAIN"
	CodeConfigurationMissing      Code = "CONFIGURATION_MISSING"
	CodeUntrustedDomain           Code = "UNTRUSTED_DOMAIN"
	CodeKeyNotAuthorizedForDomain Code = "KEY_NOT_AUTHORIZED_FOR_DOMAIN"
)

// Error is a typed authentication failure.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ServerFault reports whether the failure is a server misconfiguration
// rather than a caller error.
func (e *Error) ServerFault() bool {
	return e.Code == CodeConfigurationMissing
}

// API keys issued to widgets carry a fixed prefix and a minimum length.
const (
	keyPrefix    = "widget_"
	minKeyLength = 10
)

// TrustEntry is one row of the trust table: a domain and the API keys
// authorized to act on its behalf.
type TrustEntry struct {
	Domain  string
	APIKeys []string
}

// Table maps origin domains to their authorized API keys.
type Table struct {
	entries map[string]map[string]struct{}
}

// ParseTable parses the configured trust table string. The format is
// "domain1:key1,key2;domain2:key3". Entries without a domain or without any
// key are skipped rather than treated as fatal.
func ParseTable(raw string) *Table {
	t := &Table{entries: make(map[string]map[string]struct{})}
	for _, entry := range strings.Split(raw, ";") {
		domain, keysPart, ok := strings.Cut(entry, ":")
		if !ok {
			continue
		}
		domain = strings.TrimSpace(domain)
		if domain == "" {
			continue
		}
		keys := make(map[string]struct{})
		for _, key := range strings.Split(keysPart, ",") {
			key = strings.TrimSpace(key)
			if key != "" {
				keys[key] = struct{}{}
			}
		}
		if len(keys) > 0 {
			t.entries[domain] = keys
		}
	}
	return t
}

// Empty reports whether the table holds no entries at all.
func (t *Table) Empty() bool {
	return t == nil || len(t.entries) == 0
}

// Domains returns the configured domains, for diagnostics.
func (t *Table) Domains() []string {
	if t == nil {
		return nil
	}
	domains := make([]string, 0, len(t.entries))
	for d := range t.entries {
		domains = append(domains, d)
	}
	return domains
}

// DomainFromOrigin extracts the bare hostname from an Origin or Referer
// header value. The port is irrelevant to trust decisions and is dropped.
func DomainFromOrigin(origin string) string {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return ""
	}
	u, err := url.Parse(origin)
	if err != nil || u.Hostname() == "" {
		// Bare hostnames (no scheme) show up from proxies; take the
		// value up to any port separator.
		host, _, ok := strings.Cut(origin, ":")
		if ok {
			return host
		}
		return origin
	}
	return u.Hostname()
}

// Validate checks an (apiKey, domain) pair against the table. On success it
// returns the matched TrustEntry for downstream attribution.
func (t *Table) Validate(apiKey, domain string) (*TrustEntry, *Error) {
	if apiKey == "" {
		return nil, &Error{Code: CodeMissingAPIKey, Message: "API key is required"}
	}
	if !strings.HasPrefix(apiKey, keyPrefix) {
		return nil, &Error{Code: CodeMalformedAPIKey, Message: fmt.Sprintf("API key must start with %q", keyPrefix)}
	}
	if len(apiKey) < minKeyLength {
		return nil, &Error{Code: CodeMalformedAPIKey, Message: "API key is too short"}
	}
	if domain == "" {
		return nil, &Error{Code: CodeMissingDomain, Message: "domain is required for API key validation"}
	}
	if t.Empty() {
		return nil, &Error{Code: CodeConfigurationMissing, Message: "domain-API key trust table is not configured"}
	}
	keys, ok := t.entries[domain]
	if !ok {
		return nil, &Error{Code: CodeUntrustedDomain, Message: fmt.Sprintf("domain %q is not authorized", domain)}
	}
	if _, ok := keys[apiKey]; !ok {
		return nil, &Error{Code: CodeKeyNotAuthorizedForDomain,
			Message: fmt.Sprintf("API key is not authorized for domain %q", domain)}
	}
	entry := &TrustEntry{Domain: domain, APIKeys: make([]string, 0, len(keys))}
	for k := range keys {
		entry.APIKeys = append(entry.APIKeys, k)
	}
	return entry, nil
}
