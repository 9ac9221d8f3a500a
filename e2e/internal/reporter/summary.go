package reporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/saaga0h/jeeves-dns/e2e/internal/scenario"
)

// SaveTimeline writes a rendered timeline
func SaveTimeline(content, filename string) error {
	return writeFile(filename, []byte(content))
}

// SaveSummary writes the result as JSON
func SaveSummary(result *scenario.TestResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	return writeFile(filename, data)
}

func writeFile(filename string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
