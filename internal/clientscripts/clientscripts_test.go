package clientscripts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quickstrom/quickstrom-go/internal/wire"
)

func writeScripts(t *testing.T, dir string) {
	t.Helper()
	for _, f := range []string{queryStateFile, installEventListenerFile, awaitEventsFile} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("(x) => x"), 0o644))
	}
}

func TestLoad_ReadsAllThreeScripts(t *testing.T) {
	dir := t.TempDir()
	writeScripts(t, dir)

	s, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "(x) => x", s.queryState)
	require.Equal(t, "(x) => x", s.installEventListener)
	require.Equal(t, "(x) => x", s.awaitEvents)
}

func TestLoad_MissingScriptErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir)
	require.Error(t, err)
}

func TestDependenciesJSON_IncludesSelector(t *testing.T) {
	deps := wire.Dependencies{"button": wire.Schema{}}
	j, err := dependenciesJSON(deps)
	require.NoError(t, err)
	require.Contains(t, j, "button")
}
