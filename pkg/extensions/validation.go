package extensions

import (
	"fmt"
	"regexp"
	"strings"
)

// ReservedPluginID is the first-party host id. Its contributions skip the
// extension point naming rules and the developer-mode manifest check.
const ReservedPluginID = "grafana"

var versionSuffixRegex = regexp.MustCompile(`/v\d+$`)

// ValidationError describes why a contribution was rejected
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsReservedPluginID reports whether pluginID is the first-party host
func IsReservedPluginID(pluginID string) bool {
	return pluginID == ReservedPluginID
}

// ValidateTitle rejects empty titles
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return invalid("title", "title is missing")
	}
	return nil
}

// ValidateDescription rejects empty descriptions
func ValidateDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return invalid("description", "description is missing")
	}
	return nil
}

// ValidateExtensionPointID checks that id lives under "grafana/",
// "<pluginId>/" or "plugins/<pluginId>/"
func ValidateExtensionPointID(pluginID, id string) error {
	for _, prefix := range extensionPointPrefixes(pluginID) {
		if strings.HasPrefix(id, prefix) && len(id) > len(prefix) {
			return nil
		}
	}
	return invalid("targets", "extension point id %q must start with %q, %q or %q",
		id, ReservedPluginID+"/", pluginID+"/", "plugins/"+pluginID+"/")
}

func extensionPointPrefixes(pluginID string) []string {
	return []string{
		ReservedPluginID + "/",
		pluginID + "/",
		"plugins/" + pluginID + "/",
	}
}

// HasVersionSuffix reports whether id ends in a version segment such as "/v1"
func HasVersionSuffix(id string) bool {
	return versionSuffixRegex.MatchString(id)
}

// ValidateLinkTarget checks that a link has somewhere to go and that its path
// stays inside the plugin's own namespace
func ValidateLinkTarget(pluginID, path string, hasOnClick bool) error {
	if path == "" && !hasOnClick {
		return invalid("path", "either path or onClick is required")
	}
	if path != "" && !IsLinkPathValid(pluginID, path) {
		return invalid("path", "path %q must start with %q", path, linkPathPrefix(pluginID))
	}
	return nil
}

// IsLinkPathValid reports whether path starts with /a/<pluginId>/
func IsLinkPathValid(pluginID, path string) bool {
	return strings.HasPrefix(path, linkPathPrefix(pluginID))
}

func linkPathPrefix(pluginID string) string {
	return "/a/" + pluginID + "/"
}

// ValidateExposedComponentID checks that id is prefixed with the owning plugin id
func ValidateExposedComponentID(pluginID, id string) error {
	if id == "" {
		return invalid("id", "id is missing")
	}
	if !strings.HasPrefix(id, pluginID+"/") || len(id) == len(pluginID)+1 {
		return invalid("id", "exposed component id %q must be prefixed with %q", id, pluginID+"/")
	}
	return nil
}

// normalizeTargets drops duplicate targets, keeping first occurrence order
func normalizeTargets(targets []string) ([]string, error) {
	if len(targets) == 0 {
		return nil, invalid("targets", "at least one target is required")
	}

	seen := make(map[string]bool, len(targets))
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		if t == "" {
			return nil, invalid("targets", "target must not be empty")
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}
