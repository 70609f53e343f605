package plugins

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// ManifestFileName is the file a plugin directory must contain
const ManifestFileName = "plugin.yaml"

var (
	semverRegex   = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)(-[a-zA-Z0-9.-]+)?(\+[a-zA-Z0-9.-]+)?$`)
	pluginIDRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// LoadManifest loads and parses a plugin manifest from a file
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	return ParseManifest(data)
}

// ParseManifest parses YAML manifest bytes
func ParseManifest(data []byte) (*Manifest, error) {
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	return &manifest, nil
}

// LoadManifestFromDir loads a plugin manifest from a directory (looks for plugin.yaml)
func LoadManifestFromDir(dir string) (*Manifest, error) {
	return LoadManifest(filepath.Join(dir, ManifestFileName))
}

// SaveManifest saves a plugin manifest to a file
func SaveManifest(manifest *Manifest, path string) error {
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// ValidateManifest performs structural validation on a plugin manifest.
// Extension id naming rules are checked by the extensions package.
func ValidateManifest(manifest *Manifest) []ValidationError {
	var errors []ValidationError

	if manifest.ID == "" {
		errors = append(errors, ValidationError{
			Field:    "id",
			Message:  "Plugin ID is required",
			Severity: SeverityError,
		})
	} else if !pluginIDRegex.MatchString(manifest.ID) {
		errors = append(errors, ValidationError{
			Field:    "id",
			Message:  fmt.Sprintf("Plugin ID must be lowercase alphanumeric with hyphens: %s", manifest.ID),
			Severity: SeverityError,
		})
	}

	if manifest.Version != "" && !isValidSemver(manifest.Version) {
		errors = append(errors, ValidationError{
			Field:    "version",
			Message:  fmt.Sprintf("Invalid semver format: %s", manifest.Version),
			Severity: SeverityWarning,
		})
	}

	kinds := []struct {
		field string
		decls []ExtensionDecl
	}{
		{"extensions.addedLinks", manifest.Extensions.AddedLinks},
		{"extensions.addedComponents", manifest.Extensions.AddedComponents},
		{"extensions.addedFunctions", manifest.Extensions.AddedFunctions},
	}
	for _, kind := range kinds {
		for i, decl := range kind.decls {
			field := fmt.Sprintf("%s[%d]", kind.field, i)
			if decl.Title == "" {
				errors = append(errors, ValidationError{Field: field + ".title", Message: "Title is required", Severity: SeverityError})
			}
			if len(decl.Targets) == 0 {
				errors = append(errors, ValidationError{Field: field + ".targets", Message: "At least one target is required", Severity: SeverityError})
			}
		}
	}

	seen := make(map[string]bool)
	for i, decl := range manifest.Extensions.ExposedComponents {
		field := fmt.Sprintf("extensions.exposedComponents[%d]", i)
		if decl.ID == "" {
			errors = append(errors, ValidationError{Field: field + ".id", Message: "Exposed component ID is required", Severity: SeverityError})
			continue
		}
		if seen[decl.ID] {
			errors = append(errors, ValidationError{Field: field + ".id", Message: fmt.Sprintf("Duplicate exposed component ID: %s", decl.ID), Severity: SeverityError})
		}
		seen[decl.ID] = true
	}

	for i, decl := range manifest.Extensions.ExtensionPoints {
		if decl.ID == "" {
			errors = append(errors, ValidationError{
				Field:    fmt.Sprintf("extensions.extensionPoints[%d].id", i),
				Message:  "Extension point ID is required",
				Severity: SeverityError,
			})
		}
	}

	return errors
}

// HasErrors reports whether any validation error has error severity
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// isValidSemver checks if a version string follows semantic versioning
func isValidSemver(version string) bool {
	return semverRegex.MatchString(version)
}
