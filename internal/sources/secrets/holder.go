package secrets

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/linkaudit/internal/domain"
)

// Holder keeps the credentials currently in force.
//
// Values from the secrets file take precedence field by field over the
// environment fallback given at construction.
type Holder struct {
	mu         sync.RWMutex
	env        domain.Credentials
	file       domain.Credentials
	lastReload time.Time
}

// NewHolder creates a holder seeded with environment credentials.
func NewHolder(env domain.Credentials) *Holder {
	return &Holder{env: env}
}

// Credentials returns the effective credentials.
func (h *Holder) Credentials() domain.Credentials {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c := h.env
	if h.file.APIKey != "" {
		c.APIKey = h.file.APIKey
	}
	if h.file.EngineID != "" {
		c.EngineID = h.file.EngineID
	}
	return c
}

// SetFromFile replaces the file-sourced credentials.
func (h *Holder) SetFromFile(c domain.Credentials) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.file = c
	h.lastReload = time.Now()
}

// LastReload returns when the file was last applied (zero if never).
func (h *Holder) LastReload() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.lastReload
}
