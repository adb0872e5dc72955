package domain

import (
	"fmt"
	"strings"
)

// SearchMode selects how the provider query is built from a domain.
type SearchMode string

const (
	// ModeExact searches for the literal domain text outside the domain itself.
	// This is what a browser search finds (link hubs, profiles, mentions).
	ModeExact SearchMode = "exact"

	// ModeLink uses the strict link: operator.
	ModeLink SearchMode = "link"

	// ModeCustom sends caller-supplied query text unchanged.
	ModeCustom SearchMode = "custom"
)

// ParseSearchMode maps user input to a SearchMode. Empty input means ModeExact.
func ParseSearchMode(s string) (SearchMode, error) {
	switch SearchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeExact:
		return ModeExact, nil
	case ModeLink:
		return ModeLink, nil
	case ModeCustom:
		return ModeCustom, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// NormalizeDomain strips the scheme, a "www." prefix and surrounding slashes.
// Example: "https://www.example.com/" -> "example.com"
func NormalizeDomain(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "https://", "")
	s = strings.ReplaceAll(s, "http://", "")
	s = strings.ReplaceAll(s, "www.", "")
	return strings.Trim(s, "/")
}

// BuildQuery applies the mode's template to the normalized domain.
//
//	exact: "example.com" -site:example.com
//	link:  link:example.com -site:example.com
//
// ModeCustom has no template; use the caller's text directly.
func BuildQuery(mode SearchMode, domain string) (string, error) {
	site := NormalizeDomain(domain)
	if site == "" {
		return "", ErrEmptyQuery
	}

	switch mode {
	case ModeExact, "":
		return fmt.Sprintf(`"%s" -site:%s`, site, site), nil
	case ModeLink:
		return fmt.Sprintf("link:%s -site:%s", site, site), nil
	default:
		return "", fmt.Errorf("%w: %q has no query template", ErrUnknownMode, mode)
	}
}
