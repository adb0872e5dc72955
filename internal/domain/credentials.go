package domain

import "strings"

// Credentials identify the caller to the search provider.
// Both values are opaque; only presence is checked.
type Credentials struct {
	APIKey   string
	EngineID string
}

// Validate returns ErrMissingCredentials when either value is blank.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" || strings.TrimSpace(c.EngineID) == "" {
		return ErrMissingCredentials
	}
	return nil
}

// Redacted returns a copy safe to log.
func (c Credentials) Redacted() Credentials {
	r := c
	if r.APIKey != "" {
		r.APIKey = "***REDACTED***"
	}
	return r
}
