package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/linkaudit/internal/logger"
	"github.com/MrSnakeDoc/linkaudit/internal/metrics"
	"github.com/MrSnakeDoc/linkaudit/internal/sources/secrets"
)

// CredentialsReloader handles periodic reloading of the secrets file
type CredentialsReloader struct {
	loader        *secrets.Loader
	holder        *secrets.Holder
	metrics       *metrics.Metrics
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewCredentialsReloader creates a new credentials reloader
func NewCredentialsReloader(
	secretsFile string,
	holder *secrets.Holder,
	m *metrics.Metrics,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *CredentialsReloader {
	return &CredentialsReloader{
		loader:        secrets.NewLoader(secretsFile),
		holder:        holder,
		metrics:       m,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start loads the file once, then reloads it on every tick or manual trigger.
// A failed initial load is returned; later failures keep the previous values.
func (cr *CredentialsReloader) Start(ctx context.Context) error {
	if err := cr.Reload(ctx); err != nil {
		return fmt.Errorf("initial reload failed: %w", err)
	}

	ticker := time.NewTicker(cr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := cr.Reload(ctx); err != nil {
					cr.logger.Error("failed to reload credentials",
						logger.Error(err))
				}
			case <-cr.manualTrigger:
				cr.logger.Info("manual reload triggered")
				if err := cr.Reload(ctx); err != nil {
					cr.logger.Error("failed to reload credentials",
						logger.Error(err))
				}
			case <-cr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (cr *CredentialsReloader) Stop() {
	close(cr.stopCh)
}

// Reload reads the secrets file and swaps the held credentials
func (cr *CredentialsReloader) Reload(_ context.Context) error {
	cr.logger.Debug("reloading credentials",
		logger.String("file", cr.loader.Path()))

	creds, err := cr.loader.Load()
	if err != nil {
		cr.metrics.ObserveReload(false)
		return err
	}

	cr.holder.SetFromFile(creds)
	cr.metrics.ObserveReload(true)

	effective := cr.holder.Credentials().Redacted()
	cr.logger.Info("credentials reloaded",
		logger.String("file", cr.loader.Path()),
		logger.String("api_key", effective.APIKey),
		logger.String("engine_id", effective.EngineID))

	return nil
}
