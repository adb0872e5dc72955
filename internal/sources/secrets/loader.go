package secrets

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/linkaudit/internal/domain"
)

// Loader reads search credentials from a YAML secrets file.
type Loader struct {
	filePath string
}

// NewLoader creates a loader for filePath.
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Path returns the file the loader reads.
func (l *Loader) Path() string { return l.filePath }

// Load reads and parses the secrets file.
// ${VAR} references are expanded from the environment before parsing.
func (l *Loader) Load() (domain.Credentials, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("failed to read secrets file: %w", err)
	}

	data = []byte(os.ExpandEnv(string(data)))

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return domain.Credentials{}, fmt.Errorf("failed to parse secrets yaml: %w", err)
	}

	return domain.Credentials{
		APIKey:   strings.TrimSpace(f.GoogleAPIKey),
		EngineID: strings.TrimSpace(f.SearchEngineID),
	}, nil
}
