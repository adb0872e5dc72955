package probe

import (
	"context"

	"github.com/MrSnakeDoc/linkaudit/internal/domain"
)

// Progress is called after every probed record.
// done counts finished probes out of total selected; index is the record's
// position in the session.
type Progress func(done, total, index int, rec domain.ResultRecord, c domain.Classification)

// ProbeSelected probes every selected record of s in order, one at a time,
// and writes each label into the record's Status before moving on.
//
// A failing URL is recorded as TransportError and never stops the batch.
// Cancelling ctx stops between URLs and returns ctx.Err(); statuses written
// so far stay in place.
func (p *Prober) ProbeSelected(ctx context.Context, s *domain.Session, progress Progress) error {
	selected := s.SelectedIndexes()
	total := len(selected)

	for done, idx := range selected {
		if err := ctx.Err(); err != nil {
			return err
		}

		c := p.Probe(ctx, s.Records[idx].SourceURL)
		s.Records[idx].Status = c.Label()

		if progress != nil {
			progress(done+1, total, idx, s.Records[idx], c)
		}
	}
	return nil
}
