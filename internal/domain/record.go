package domain

import "time"

// StatusPending is the status of a record that has not been probed yet.
const StatusPending = "Pending"

// ResultRecord is one search hit referencing the audited domain.
//
// Title, SourceURL and Snippet come from the search provider and are never
// rewritten. Status is owned by the prober, Selected by the operator.
type ResultRecord struct {
	// ─────────────────────────────
	// Provider data (immutable)
	// ─────────────────────────────

	// Title of the referencing page as reported by the provider.
	// May be empty.
	Title string `json:"title"`

	// SourceURL is the page containing the reference.
	// It is the probe target and the row key (not enforced unique).
	SourceURL string `json:"source_url"`

	// Snippet is the short excerpt returned by the provider.
	// May be empty.
	Snippet string `json:"snippet"`

	// ─────────────────────────────
	// Mutable state
	// ─────────────────────────────

	// Status starts at StatusPending and is replaced by a
	// Classification label once probed.
	Status string `json:"status"`

	// Selected opts the record into status probing.
	Selected bool `json:"selected"`
}

// NewResultRecord builds a pending, selected record.
func NewResultRecord(title, sourceURL, snippet string) ResultRecord {
	return ResultRecord{
		Title:     title,
		SourceURL: sourceURL,
		Snippet:   snippet,
		Status:    StatusPending,
		Selected:  true,
	}
}

// Session holds the records of one completed search.
//
// A new search always produces a new Session; sessions are never merged.
type Session struct {
	ID          string         `json:"id"`
	Domain      string         `json:"domain"`
	Mode        SearchMode     `json:"mode"`
	Query       string         `json:"query"`
	Target      int            `json:"target"`
	Termination string         `json:"termination"`
	Records     []ResultRecord `json:"records"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	ExpiresAt   time.Time      `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
// A zero ExpiresAt never expires.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// SelectedIndexes returns the positions of selected records, in order.
func (s *Session) SelectedIndexes() []int {
	idx := make([]int, 0, len(s.Records))
	for i, r := range s.Records {
		if r.Selected {
			idx = append(idx, i)
		}
	}
	return idx
}

// SetSelected toggles selection on the record at index.
func (s *Session) SetSelected(index int, selected bool) error {
	if index < 0 || index >= len(s.Records) {
		return ErrRecordOutOfRange
	}
	s.Records[index].Selected = selected
	return nil
}

// Clone returns a deep copy so callers can mutate records freely.
func (s *Session) Clone() *Session {
	c := *s
	c.Records = make([]ResultRecord, len(s.Records))
	copy(c.Records, s.Records)
	return &c
}
