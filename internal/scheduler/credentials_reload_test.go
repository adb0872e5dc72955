package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrSnakeDoc/linkaudit/internal/domain"
	"github.com/MrSnakeDoc/linkaudit/internal/logger"
	"github.com/MrSnakeDoc/linkaudit/internal/sources/secrets"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func TestCredentialsReloader_Reload(t *testing.T) {
	log := logger.New("error", false)
	path := filepath.Join(t.TempDir(), "secrets.yaml")
	writeFile(t, path, "google_api_key: first\nsearch_engine_id: cx\n")

	holder := secrets.NewHolder(domain.Credentials{APIKey: "env", EngineID: "env-cx"})
	cr := NewCredentialsReloader(path, holder, nil, log, time.Hour, make(chan struct{}))

	if err := cr.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if got := holder.Credentials().APIKey; got != "first" {
		t.Errorf("APIKey = %q, want first", got)
	}

	writeFile(t, path, "google_api_key: second\nsearch_engine_id: cx\n")
	if err := cr.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if got := holder.Credentials().APIKey; got != "second" {
		t.Errorf("APIKey = %q, want second", got)
	}
}

func TestCredentialsReloader_FailureKeepsPrevious(t *testing.T) {
	log := logger.New("error", false)
	path := filepath.Join(t.TempDir(), "secrets.yaml")
	writeFile(t, path, "google_api_key: good\nsearch_engine_id: cx\n")

	holder := secrets.NewHolder(domain.Credentials{})
	cr := NewCredentialsReloader(path, holder, nil, log, time.Hour, make(chan struct{}))
	if err := cr.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	writeFile(t, path, "google_api_key: [broken")
	if err := cr.Reload(context.Background()); err == nil {
		t.Fatal("Reload of invalid yaml should fail")
	}
	if got := holder.Credentials().APIKey; got != "good" {
		t.Errorf("APIKey = %q, previous credentials should be kept", got)
	}
}

func TestCredentialsReloader_StartFailsOnMissingFile(t *testing.T) {
	log := logger.New("error", false)
	holder := secrets.NewHolder(domain.Credentials{})
	cr := NewCredentialsReloader("/nonexistent/secrets.yaml", holder, nil, log, time.Hour, make(chan struct{}))

	if err := cr.Start(context.Background()); err == nil {
		t.Error("Start should fail when the initial load fails")
	}
}

func TestCredentialsReloader_ManualTrigger(t *testing.T) {
	log := logger.New("error", false)
	path := filepath.Join(t.TempDir(), "secrets.yaml")
	writeFile(t, path, "google_api_key: v1\nsearch_engine_id: cx\n")

	holder := secrets.NewHolder(domain.Credentials{})
	trigger := make(chan struct{})
	cr := NewCredentialsReloader(path, holder, nil, log, time.Hour, trigger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := cr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer cr.Stop()

	writeFile(t, path, "google_api_key: v2\nsearch_engine_id: cx\n")
	trigger <- struct{}{}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if holder.Credentials().APIKey == "v2" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("manual trigger did not reload credentials, APIKey = %q", holder.Credentials().APIKey)
}
