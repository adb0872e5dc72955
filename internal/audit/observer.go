package audit

import (
	"github.com/MrSnakeDoc/linkaudit/internal/logger"
	"github.com/MrSnakeDoc/linkaudit/internal/search"
)

// multiObserver fans fetch events out to several observers.
type multiObserver []search.Observer

func (m multiObserver) OnBatchStart(start, end int) {
	for _, o := range m {
		o.OnBatchStart(start, end)
	}
}

func (m multiObserver) OnBatchComplete(count int) {
	for _, o := range m {
		o.OnBatchComplete(count)
	}
}

func (m multiObserver) OnFinished(total int, t search.Termination) {
	for _, o := range m {
		o.OnFinished(total, t)
	}
}

// pageCounter counts non-empty pages for metrics.
type pageCounter struct {
	pages int
}

func (p *pageCounter) OnBatchStart(int, int)              {}
func (p *pageCounter) OnBatchComplete(int)                { p.pages++ }
func (p *pageCounter) OnFinished(int, search.Termination) {}

// logObserver writes fetch progress to the structured log.
type logObserver struct {
	log logger.Logger
}

func (l *logObserver) OnBatchStart(start, end int) {
	l.log.Debug("fetching results", logger.Int("start", start), logger.Int("end", end))
}

func (l *logObserver) OnBatchComplete(count int) {
	l.log.Debug("page fetched", logger.Int("items", count))
}

func (l *logObserver) OnFinished(total int, t search.Termination) {
	if t.Kind == search.Failed {
		l.log.Warn("search stopped on provider error",
			logger.Int("records", total),
			logger.Error(t.Err))
		return
	}
	l.log.Info("search finished",
		logger.Int("records", total),
		logger.String("termination", t.String()))
}
