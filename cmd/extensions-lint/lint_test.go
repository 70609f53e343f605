package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/extensions/pkg/extensions"
	"github.com/platinummonkey/extensions/pkg/httputil"
	"github.com/platinummonkey/extensions/pkg/linter"
	"github.com/platinummonkey/extensions/pkg/observability"
	"github.com/platinummonkey/extensions/pkg/plugins"
)

func acme() *plugins.Manifest {
	return &plugins.Manifest{
		ID:      "acme-app",
		Name:    "Acme",
		Version: "1.0.0",
		Type:    plugins.PluginTypeApp,
		Extensions: plugins.Extensions{
			AddedLinks: []plugins.ExtensionDecl{{
				Title:       "Open in Acme",
				Description: "Opens the panel in Acme",
				Targets:     []string{"grafana/dashboard/panel/menu/v1"},
			}},
			ExposedComponents: []plugins.ExposedComponentDecl{{
				ID:          "acme-app/status/v1",
				Title:       "Status",
				Description: "Acme status badge",
			}},
		},
	}
}

func fieldsOf(results []linter.LintResult) []string {
	out := make([]string, 0)
	for _, r := range results {
		for _, v := range r.Violations {
			out = append(out, r.PluginID+" "+string(v.Severity)+" "+v.Field)
		}
	}
	return out
}

func TestBuildReport_Clean(t *testing.T) {
	report := buildReport(newLintEngine(nil), []*plugins.Manifest{acme()}, nil)
	assert.Empty(t, report.Results)
	assert.Equal(t, 1, report.Summary.TotalPlugins)
	assert.Zero(t, report.Summary.Errors)
}

func TestBuildReport_MergesLoadProblems(t *testing.T) {
	m := acme()
	m.Extensions.AddedLinks[0].Targets = []string{"other-app/menu/v1"}

	consumer := &plugins.Manifest{ID: "beta-app", Version: "1.0.0"}
	consumer.Dependencies.Extensions.ExposedComponents = []string{"gamma-app/chart/v1"}

	loadProblems := []linter.LintResult{loadProblem("broken", plugins.ManifestFileName, "yaml: bad")}

	report := buildReport(newLintEngine(nil), []*plugins.Manifest{consumer, m}, loadProblems)
	assert.Equal(t, []string{
		"acme-app error extensions.addedLinks[0].targets[0]",
		"beta-app warning dependencies.extensions.exposedComponents[0]",
		"broken error " + plugins.ManifestFileName,
	}, fieldsOf(report.Results))
	assert.Equal(t, 2, report.Summary.Errors)
	assert.Equal(t, 1, report.Summary.Warnings)
	assert.Equal(t, 2, report.Summary.TotalPlugins)
}

func TestBuildReport_ConfigOverrides(t *testing.T) {
	m := acme()
	m.Extensions.AddedLinks[0].Targets = []string{"grafana/explore/toolbar", "other-app/menu/v1"}

	config := linter.DefaultConfig()
	config.Lint.Rules["extension-point-version"] = false
	config.Lint.Severities["extension-point-naming"] = linter.SeverityWarning

	report := buildReport(newLintEngine(config), []*plugins.Manifest{m}, nil)
	assert.Equal(t, []string{"acme-app warning extensions.addedLinks[0].targets[1]"}, fieldsOf(report.Results))
	assert.Zero(t, report.Summary.Errors)
}

func TestLoadLintConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lint.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lint:\n  ignore: [legacy-app]\n"), 0o644))

	config, err := loadLintConfig(path)
	require.NoError(t, err)
	assert.True(t, config.Ignored("legacy-app"))

	_, err = loadLintConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func writeManifest(t *testing.T, dir, name, content string) {
	t.Helper()
	pluginDir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(pluginDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pluginDir, plugins.ManifestFileName), []byte(content), 0o644))
}

func TestCollectManifests(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()

	writeManifest(t, first, "acme-app", "id: acme-app\nversion: 1.0.0\n")
	writeManifest(t, first, "broken", "id: [\n")
	require.NoError(t, os.MkdirAll(filepath.Join(first, "empty"), 0o755))
	writeManifest(t, second, "acme-copy", "id: acme-app\nversion: 2.0.0\n")

	manifests, problems := collectManifests(context.Background(), []string{first, second, "/does/not/exist"}, observability.NewNopLogger())

	require.Len(t, manifests, 1)
	assert.Equal(t, "1.0.0", manifests[0].Version)

	assert.Equal(t, []string{
		"broken error " + plugins.ManifestFileName,
		"acme-app error id",
	}, fieldsOf(problems))
}

func TestDirsFetcher(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeManifest(t, second, "acme-app", "id: acme-app\n")

	fetch := dirsFetcher([]string{first, second})

	m, err := fetch("acme-app")
	require.NoError(t, err)
	assert.Equal(t, "acme-app", m.ID)

	_, err = fetch("beta-app")
	assert.True(t, errors.Is(err, plugins.ErrManifestNotFound))
}

func TestPrintReport(t *testing.T) {
	report := Report{
		Results: []linter.LintResult{{
			PluginID: "acme-app",
			Violations: []linter.Violation{{
				Rule:     "manifest-structure",
				Severity: linter.SeverityWarning,
				Field:    "version",
				Message:  "version should follow semver",
			}},
		}},
		Summary: linter.Summary{TotalPlugins: 1, TotalViolations: 1, Warnings: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, printReport(&buf, report, false))
	assert.Equal(t, "acme-app: warning version: version should follow semver (manifest-structure)\n"+
		"0 errors, 1 warnings, 0 infos in 1 plugins\n", buf.String())

	buf.Reset()
	require.NoError(t, printReport(&buf, Report{}, false))
	assert.Equal(t, "No problems found\n", buf.String())

	buf.Reset()
	require.NoError(t, printReport(&buf, report, true))
	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, report, decoded)

	buf.Reset()
	require.NoError(t, printReport(&buf, Report{}, true))
	assert.JSONEq(t, `{"results":[],"summary":{"totalPlugins":0,"totalViolations":0,"errors":0,"warnings":0,"infos":0}}`, buf.String())
}

func newTestRegistries(t *testing.T, devMode bool, manifests ...*plugins.Manifest) (*extensions.Registries, *test.Hook, *errorCounter) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	counter := &errorCounter{}
	logger.AddHook(counter)

	regs := extensions.NewRegistries(extensions.Options{
		Logger:    observability.NewLogrusLogger(logger),
		DevMode:   devMode,
		Manifests: plugins.NewStaticSource(manifests...),
	})
	return regs, hook, counter
}

func TestDryRun_RegistersDeclaredExtensions(t *testing.T) {
	m := acme()
	regs, _, counter := newTestRegistries(t, true, m)

	require.NoError(t, dryRun(context.Background(), regs, []*plugins.Manifest{m}))
	assert.Zero(t, counter.count)

	links, ok := regs.AddedLinks.State().Get("grafana/dashboard/panel/menu/v1")
	require.True(t, ok)
	require.Len(t, links, 1)
	assert.Equal(t, "Open in Acme", links[0].Title)

	assert.True(t, regs.ExposedComponents.State().Has("acme-app/status/v1"))
}

func TestDryRun_ReportsRejections(t *testing.T) {
	m := acme()
	m.Extensions.AddedLinks[0].Description = ""
	regs, hook, counter := newTestRegistries(t, false, m)

	require.NoError(t, dryRun(context.Background(), regs, []*plugins.Manifest{m}))
	assert.Equal(t, 1, counter.count)

	var rejected bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel && e.Message == "Could not register extension" {
			rejected = true
		}
	}
	assert.True(t, rejected)
	assert.Zero(t, regs.AddedLinks.State().Len())
}

func TestDryRun_Cancelled(t *testing.T) {
	regs, _, _ := newTestRegistries(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := dryRun(ctx, regs, []*plugins.Manifest{acme()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHealthChecker(t *testing.T) {
	dir := t.TempDir()
	src := plugins.NewStaticSource()

	status := newHealthChecker([]string{dir}, src).Check(context.Background())
	assert.Equal(t, observability.StatusDegraded, status.Status)

	src.Set(acme())
	status = newHealthChecker([]string{dir}, src).Check(context.Background())
	assert.Equal(t, observability.StatusHealthy, status.Status)

	status = newHealthChecker([]string{filepath.Join(dir, "missing")}, src).Check(context.Background())
	assert.Equal(t, observability.StatusUnhealthy, status.Status)
}

func TestServerHandler(t *testing.T) {
	src := plugins.NewStaticSource(acme())
	handler := newServerHandler(prometheus.NewRegistry(), newHealthChecker([]string{t.TempDir()}, src), observability.NewNopLogger())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(httputil.RequestIDHeader))

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
