package reporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quickstrom/quickstrom-go/internal/trace"
)

// HTML writes a minimal static data file (results.json) into ReportDir for
// an external HTML/JS viewer to load; rendering the viewer itself is out
// of scope.
type HTML struct {
	ReportDir string
	AssetsDir string // QUICKSTROM_HTML_REPORT_DIRECTORY, copied alongside results.json
}

func NewHTML(reportDir, assetsDir string) *HTML {
	return &HTML{ReportDir: reportDir, AssetsDir: assetsDir}
}

func (h *HTML) Report(results []trace.Result) error {
	if err := os.MkdirAll(h.ReportDir, 0o755); err != nil {
		return fmt.Errorf("reporter: create %s: %w", h.ReportDir, err)
	}

	payload := make([]jsonResult, len(results))
	for i, r := range results {
		payload[i] = toJSONResult(r)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("reporter: marshal html data: %w", err)
	}

	path := filepath.Join(h.ReportDir, "results.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("reporter: write %s: %w", path, err)
	}

	if h.AssetsDir != "" {
		if err := copyAssets(h.AssetsDir, h.ReportDir); err != nil {
			return fmt.Errorf("reporter: copy html assets: %w", err)
		}
	}
	return nil
}

func copyAssets(srcDir, dstDir string) error {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(srcDir, entry.Name()))
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dstDir, entry.Name()), data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
