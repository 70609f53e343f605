package main

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/extensions/pkg/dependencies"
	"github.com/platinummonkey/extensions/pkg/extensions"
	"github.com/platinummonkey/extensions/pkg/immutable"
	"github.com/platinummonkey/extensions/pkg/linter"
	"github.com/platinummonkey/extensions/pkg/linter/rules"
	"github.com/platinummonkey/extensions/pkg/plugins"
	"github.com/platinummonkey/extensions/pkg/registry"
)

// loadRule names the violations reported for manifests that could not be
// read at all, before any lint rule runs
const loadRule = "manifest-load"

// newLintEngine returns an engine with every built-in rule registered
func newLintEngine(config *linter.Config) *linter.LintEngine {
	engine := linter.NewLintEngine(config)
	rules.RegisterDefaultRules(engine.Registry())
	return engine
}

// loadLintConfig reads the rule configuration from path, or from the working
// directory when path is empty
func loadLintConfig(path string) (*linter.Config, error) {
	if path != "" {
		return linter.LoadConfig(path)
	}
	return linter.LoadConfigFromDir(".")
}

// Report is everything one lint run found
type Report struct {
	Results []linter.LintResult `json:"results"`
	Summary linter.Summary      `json:"summary"`
}

// buildReport lints manifests and merges the results with problems found
// while loading them. Plugins without violations are left out.
func buildReport(engine *linter.LintEngine, manifests []*plugins.Manifest, loadProblems []linter.LintResult) Report {
	byPlugin := make(map[string]*linter.LintResult)
	var order []string

	add := func(r linter.LintResult) {
		if len(r.Violations) == 0 {
			return
		}
		existing, ok := byPlugin[r.PluginID]
		if !ok {
			existing = &linter.LintResult{PluginID: r.PluginID}
			byPlugin[r.PluginID] = existing
			order = append(order, r.PluginID)
		}
		existing.Violations = append(existing.Violations, r.Violations...)
	}

	for _, r := range loadProblems {
		add(r)
	}
	for _, r := range engine.LintManifests(manifests) {
		add(r)
	}

	sort.Strings(order)
	results := make([]linter.LintResult, 0, len(order))
	for _, id := range order {
		results = append(results, *byPlugin[id])
	}

	summary := engine.GenerateSummary(results)
	summary.TotalPlugins = len(manifests)
	return Report{Results: results, Summary: summary}
}

func loadProblem(pluginID, field, message string) linter.LintResult {
	return linter.LintResult{
		PluginID: pluginID,
		Violations: []linter.Violation{{
			Rule:     loadRule,
			Severity: linter.SeverityError,
			Category: linter.CategoryStructure,
			Field:    field,
			Message:  message,
		}},
	}
}

// errorCounter is a logrus hook counting error entries, used to tell whether
// the registration dry run rejected anything
type errorCounter struct {
	count int
}

func (h *errorCounter) Levels() []logrus.Level {
	return []logrus.Level{logrus.ErrorLevel}
}

func (h *errorCounter) Fire(*logrus.Entry) error {
	h.count++
	return nil
}

// dryRun registers a placeholder for every declared extension so the
// registries run the same checks a live host would. Plugins are registered in
// dependency order. Rejections are logged by the registries themselves.
func dryRun(ctx context.Context, regs *extensions.Registries, manifests []*plugins.Manifest) error {
	noopComponent := func(context.Context, *immutable.View) (any, error) { return nil, nil }
	noopFunction := func(context.Context, ...any) (any, error) { return nil, nil }

	// Cycles keep the original order and are reported by the dependency-cycle rule
	ordered, _ := dependencies.LoadOrder(manifests)

	for _, m := range ordered {
		if err := ctx.Err(); err != nil {
			return err
		}

		links := make([]extensions.LinkConfig, 0, len(m.Extensions.AddedLinks))
		for _, d := range m.Extensions.AddedLinks {
			links = append(links, extensions.LinkConfig{
				Title:       d.Title,
				Description: d.Description,
				Targets:     d.Targets,
				Path:        "/a/" + m.ID + "/",
			})
		}

		components := make([]extensions.ComponentConfig, 0, len(m.Extensions.AddedComponents))
		for _, d := range m.Extensions.AddedComponents {
			components = append(components, extensions.ComponentConfig{
				Title:       d.Title,
				Description: d.Description,
				Targets:     d.Targets,
				Component:   noopComponent,
			})
		}

		functions := make([]extensions.FunctionConfig, 0, len(m.Extensions.AddedFunctions))
		for _, d := range m.Extensions.AddedFunctions {
			functions = append(functions, extensions.FunctionConfig{
				Title:       d.Title,
				Description: d.Description,
				Targets:     d.Targets,
				Fn:          noopFunction,
			})
		}

		exposed := make([]extensions.ExposedComponentConfig, 0, len(m.Extensions.ExposedComponents))
		for _, d := range m.Extensions.ExposedComponents {
			exposed = append(exposed, extensions.ExposedComponentConfig{
				ID:          d.ID,
				Title:       d.Title,
				Description: d.Description,
				Component:   noopComponent,
			})
		}

		errs := []error{
			regs.AddedLinks.Register(registry.Contribution[extensions.LinkConfig]{PluginID: m.ID, Configs: links}),
			regs.AddedComponents.Register(registry.Contribution[extensions.ComponentConfig]{PluginID: m.ID, Configs: components}),
			regs.AddedFunctions.Register(registry.Contribution[extensions.FunctionConfig]{PluginID: m.ID, Configs: functions}),
			regs.ExposedComponents.Register(registry.Contribution[extensions.ExposedComponentConfig]{PluginID: m.ID, Configs: exposed}),
		}
		if err := errors.Join(errs...); err != nil {
			return fmt.Errorf("failed to register extensions of %s: %w", m.ID, err)
		}
	}
	return nil
}
