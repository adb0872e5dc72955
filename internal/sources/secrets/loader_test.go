package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MrSnakeDoc/linkaudit/internal/domain"
)

func writeSecrets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secrets.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}
	return path
}

func TestLoaderLoad(t *testing.T) {
	path := writeSecrets(t, `---
google_api_key: " AIza-test "
search_engine_id: cx-123
`)

	creds, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if creds.APIKey != "AIza-test" {
		t.Errorf("APIKey = %q, want AIza-test", creds.APIKey)
	}
	if creds.EngineID != "cx-123" {
		t.Errorf("EngineID = %q, want cx-123", creds.EngineID)
	}
}

func TestLoaderExpandsEnv(t *testing.T) {
	t.Setenv("TEST_SECRETS_KEY", "from-env")
	path := writeSecrets(t, `google_api_key: ${TEST_SECRETS_KEY}
search_engine_id: cx
`)

	creds, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if creds.APIKey != "from-env" {
		t.Errorf("APIKey = %q, want from-env", creds.APIKey)
	}
}

func TestLoaderLoadFileNotFound(t *testing.T) {
	_, err := NewLoader("/nonexistent/path/secrets.yaml").Load()
	if err == nil {
		t.Error("Load() with non-existent file should return error")
	}
}

func TestLoaderInvalidYAML(t *testing.T) {
	path := writeSecrets(t, "google_api_key: [unterminated")
	if _, err := NewLoader(path).Load(); err == nil {
		t.Error("Load() with invalid yaml should return error")
	}
}

func TestHolderPrecedence(t *testing.T) {
	h := NewHolder(domain.Credentials{APIKey: "env-key", EngineID: "env-cx"})

	if got := h.Credentials(); got.APIKey != "env-key" || got.EngineID != "env-cx" {
		t.Errorf("Credentials() before reload = %+v", got)
	}
	if !h.LastReload().IsZero() {
		t.Error("LastReload() should be zero before any file reload")
	}

	h.SetFromFile(domain.Credentials{APIKey: "file-key"})
	got := h.Credentials()
	if got.APIKey != "file-key" {
		t.Errorf("APIKey = %q, want file-key", got.APIKey)
	}
	if got.EngineID != "env-cx" {
		t.Errorf("EngineID = %q, want env-cx (file left it empty)", got.EngineID)
	}
	if h.LastReload().IsZero() {
		t.Error("LastReload() should be set after SetFromFile")
	}
}
