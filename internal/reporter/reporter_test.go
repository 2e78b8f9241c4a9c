package reporter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickstrom/quickstrom-go/internal/trace"
	"github.com/quickstrom/quickstrom-go/internal/wire"
)

func TestConsole_ReportsPassFailError(t *testing.T) {
	results := []trace.Result{
		trace.NewPassed(trace.Test{Validity: wire.Validity{Certainty: wire.CertaintyDefinitely, Value: true}}),
		trace.NewFailed(trace.Test{Validity: wire.Validity{Certainty: wire.CertaintyDefinitely, Value: false}}),
		trace.NewErrored(assertError("boom"), 2),
	}

	var buf bytes.Buffer
	c := NewConsole(&buf, "no")
	require.NoError(t, c.Report(results))

	out := buf.String()
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "1 passed, 1 failed, 1 errored")
}

func TestJSON_WritesReportFileAndPerResultFiles(t *testing.T) {
	dir := t.TempDir()
	reportFile := filepath.Join(dir, "report.json")
	filesDir := filepath.Join(dir, "results")

	results := []trace.Result{
		trace.NewPassed(trace.Test{Validity: wire.Validity{Certainty: wire.CertaintyDefinitely, Value: true}}),
	}

	j := NewJSON(reportFile, filesDir)
	require.NoError(t, j.Report(results))

	data, err := os.ReadFile(reportFile)
	require.NoError(t, err)
	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Contains(t, decoded[0], "valid")

	_, err = os.Stat(filepath.Join(filesDir, "result-0.json"))
	assert.NoError(t, err)
}

func TestHTML_WritesResultsJSON(t *testing.T) {
	dir := t.TempDir()
	h := NewHTML(dir, "")
	require.NoError(t, h.Report([]trace.Result{trace.NewErrored(assertError("x"), 0)}))

	_, err := os.Stat(filepath.Join(dir, "results.json"))
	assert.NoError(t, err)
}

type stringErr string

func (e stringErr) Error() string { return string(e) }

func assertError(s string) error { return stringErr(s) }
