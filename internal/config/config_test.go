package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, clientSideDir string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("check", pflag.ContinueOnError)
	flags.StringP("browser", "B", "firefox", "")
	flags.StringSliceP("include", "I", nil, "")
	flags.BoolP("capture-screenshots", "S", false, "")
	flags.StringSlice("reporter", nil, "")
	flags.String("json-report-file", "", "")
	flags.String("json-report-files-directory", "", "")
	flags.String("html-report-directory", "", "")
	flags.StringSlice("cookie", nil, "")
	flags.String("log-level", "info", "")
	flags.String("color", "auto", "")
	flags.String("client-side-directory", clientSideDir, "")
	flags.String("html-assets-directory", "", "")
	flags.String("interpreter", "quickstrom-interpreter", "")
	flags.String("interpreter-log", "", "")
	flags.String("metrics-addr", "", "")
	flags.String("screenshot-s3-bucket", "", "")
	flags.String("history-db", "", "")
	return flags
}

func writeClientSideScripts(t *testing.T, dir string) {
	t.Helper()
	for _, name := range []string{queryStateScript, installEventListenerScript, awaitEventsScript} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("(x) => x"), 0o644))
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	writeClientSideScripts(t, dir)

	flags := newFlags(t, dir)
	cfg, err := Load(flags, "todomvc.spec", "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "firefox", cfg.Browser)
	assert.Equal(t, []string{"console"}, cfg.Reporters)
}

func TestLoad_MissingClientSideDirectoryIsUsageError(t *testing.T) {
	flags := newFlags(t, "")
	_, err := Load(flags, "todomvc.spec", "https://example.com")
	require.Error(t, err)
}

func TestLoad_UnsupportedBrowserIsUsageError(t *testing.T) {
	dir := t.TempDir()
	writeClientSideScripts(t, dir)
	flags := newFlags(t, dir)
	require.NoError(t, flags.Set("browser", "safari"))

	_, err := Load(flags, "todomvc.spec", "https://example.com")
	require.Error(t, err)
}

func TestParseCookies_ValidAndInvalid(t *testing.T) {
	cookies, err := parseCookies([]string{"example.com session abc123"})
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, Cookie{Domain: "example.com", Name: "session", Value: "abc123"}, cookies[0])

	_, err = parseCookies([]string{"example.com session"})
	assert.Error(t, err)
}
