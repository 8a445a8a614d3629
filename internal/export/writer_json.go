package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"IoMTSpectra/internal/model"
)

// JSONWriter archives evaluated runs as dated JSON files so past runs can be
// re-examined without a database. It implements the model.Writer interface.
type JSONWriter struct {
	rootPath string
}

// NewJSONWriter creates a JSON archive writer rooted at rootPath.
func NewJSONWriter(rootPath string) *JSONWriter {
	return &JSONWriter{rootPath: rootPath}
}

// Name identifies the writer in logs.
func (w *JSONWriter) Name() string {
	return "json"
}

// Write stores the run under <root>/runs/<yyyy>/<mm>/<dd>/<timestamp>.json.
func (w *JSONWriter) Write(run *model.RunResult) error {
	t := run.EvaluatedAt.UTC()
	dir := filepath.Join(
		w.rootPath,
		"runs",
		fmt.Sprintf("%04d", t.Year()),
		fmt.Sprintf("%02d", t.Month()),
		fmt.Sprintf("%02d", t.Day()),
	)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	path := filepath.Join(dir, t.Format("2006-01-02T15-04-05Z")+".json")
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive file '%s': %w", path, err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(run); err != nil {
		return fmt.Errorf("failed to encode run to json: %w", err)
	}
	return nil
}
