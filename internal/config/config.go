// Package config assembles CheckConfig, the fully-resolved input to
// SessionEngine.Execute, from defaults, environment variables, and CLI
// flags via spf13/viper (spec §4.8).
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	errs "github.com/quickstrom/quickstrom-go/internal/errors"
)

// Cookie is one --cookie DOMAIN NAME VALUE flag occurrence.
type Cookie struct {
	Domain string
	Name   string
	Value  string
}

// CheckConfig is the fully-resolved set of inputs to SessionEngine.Execute.
type CheckConfig struct {
	Module string
	Origin string

	Browser            string
	IncludePaths       []string
	CaptureScreenshots bool
	Cookies            []Cookie

	Reporters          []string
	JSONReportFile     string
	JSONReportFilesDir string
	HTMLReportDir      string

	ClientSideDirectory string
	HTMLAssetsDirectory string

	LogLevel string
	Color    string

	MetricsAddr        string
	ScreenshotS3Bucket string
	HistoryDB          string

	InterpreterPath string
	InterpreterLog  string
}

const (
	EnvClientSideDirectory = "QUICKSTROM_CLIENT_SIDE_DIRECTORY"
	EnvHTMLReportDirectory = "QUICKSTROM_HTML_REPORT_DIRECTORY"
)

var supportedBrowsers = map[string]bool{"chrome": true, "firefox": true}

const (
	queryStateScript          = "query_state.js"
	installEventListenerScript = "install_event_listener.js"
	awaitEventsScript         = "await_events.js"
)

// Load resolves a CheckConfig from flags (in increasing precedence:
// built-in defaults, the two environment variables, then CLI flags) and
// validates it. module and origin are the two positional arguments to
// `check MODULE ORIGIN`.
func Load(flags *pflag.FlagSet, module, origin string) (CheckConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("QUICKSTROM")

	v.SetDefault("browser", "firefox")
	v.SetDefault("log-level", "info")
	v.SetDefault("color", "auto")

	if err := v.BindPFlags(flags); err != nil {
		return CheckConfig{}, fmt.Errorf("config: bind flags: %w", err)
	}

	clientSideDir := firstNonEmpty(v.GetString("client-side-directory"), os.Getenv(EnvClientSideDirectory))
	htmlAssetsDir := firstNonEmpty(v.GetString("html-assets-directory"), os.Getenv(EnvHTMLReportDirectory))

	cookies, err := parseCookies(v.GetStringSlice("cookie"))
	if err != nil {
		return CheckConfig{}, err
	}

	cfg := CheckConfig{
		Module:              module,
		Origin:              origin,
		Browser:             v.GetString("browser"),
		IncludePaths:        v.GetStringSlice("include"),
		CaptureScreenshots:  v.GetBool("capture-screenshots"),
		Cookies:             cookies,
		Reporters:           v.GetStringSlice("reporter"),
		JSONReportFile:      v.GetString("json-report-file"),
		JSONReportFilesDir:  v.GetString("json-report-files-directory"),
		HTMLReportDir:       v.GetString("html-report-directory"),
		ClientSideDirectory: clientSideDir,
		HTMLAssetsDirectory: htmlAssetsDir,
		LogLevel:            v.GetString("log-level"),
		Color:               v.GetString("color"),
		MetricsAddr:         v.GetString("metrics-addr"),
		ScreenshotS3Bucket:  v.GetString("screenshot-s3-bucket"),
		HistoryDB:           v.GetString("history-db"),
		InterpreterPath:     v.GetString("interpreter"),
		InterpreterLog:      v.GetString("interpreter-log"),
	}

	if len(cfg.Reporters) == 0 {
		cfg.Reporters = []string{"console"}
	}

	if err := validate(cfg); err != nil {
		return CheckConfig{}, err
	}
	return cfg, nil
}

func validate(cfg CheckConfig) error {
	if cfg.Module == "" {
		return &errs.UsageError{Detail: "MODULE is required"}
	}
	if cfg.Origin == "" {
		return &errs.UsageError{Detail: "ORIGIN is required"}
	}
	if !supportedBrowsers[cfg.Browser] {
		return &errs.UsageError{Detail: fmt.Sprintf("unsupported --browser %q (want chrome or firefox)", cfg.Browser)}
	}
	for _, name := range cfg.Reporters {
		if name != "console" && name != "json" && name != "html" {
			return &errs.UsageError{Detail: fmt.Sprintf("unknown reporter %q", name)}
		}
	}
	if cfg.ClientSideDirectory == "" {
		return &errs.UsageError{Detail: fmt.Sprintf("client-side script directory is required (set %s or --client-side-directory)", EnvClientSideDirectory)}
	}
	for _, name := range []string{queryStateScript, installEventListenerScript, awaitEventsScript} {
		path := cfg.ClientSideDirectory + string(os.PathSeparator) + name
		if _, err := os.Stat(path); err != nil {
			return &errs.UsageError{Detail: fmt.Sprintf("client-side script directory %q is missing %s", cfg.ClientSideDirectory, name)}
		}
	}
	return nil
}

func parseCookies(raw []string) ([]Cookie, error) {
	cookies := make([]Cookie, 0, len(raw))
	for _, r := range raw {
		var c Cookie
		n, err := fmt.Sscanf(r, "%s %s %s", &c.Domain, &c.Name, &c.Value)
		if err != nil || n != 3 {
			return nil, &errs.UsageError{Detail: fmt.Sprintf("invalid --cookie %q (want \"DOMAIN NAME VALUE\")", r)}
		}
		cookies = append(cookies, c)
	}
	return cookies, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
