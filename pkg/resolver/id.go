package resolver

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Tracking query parameters appended to every resolved link path
const (
	ParamPluginID         = "plugin-id"
	ParamExtensionPointID = "extension-point-id"
)

// extensionIDNamespace scopes the name-based ids; changing it changes every id
var extensionIDNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:extensions:resolved"))

// ExtensionID derives the id of a resolved extension. Identical triples give
// identical ids across runs and processes.
func ExtensionID(pluginID, extensionPointID, title string) string {
	name := pluginID + "\x00" + extensionPointID + "\x00" + title
	return uuid.NewSHA1(extensionIDNamespace, []byte(name)).String()
}

// appendTrackingParams adds plugin-id and extension-point-id to path, before
// any fragment, keeping existing query parameters
func appendTrackingParams(path, pluginID, extensionPointID string) string {
	if path == "" {
		return path
	}

	fragment := ""
	if i := strings.IndexByte(path, '#'); i >= 0 {
		path, fragment = path[:i], path[i:]
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
		if strings.HasSuffix(path, "?") || strings.HasSuffix(path, "&") {
			sep = ""
		}
	}

	return path + sep +
		ParamPluginID + "=" + url.QueryEscape(pluginID) + "&" +
		ParamExtensionPointID + "=" + url.QueryEscape(extensionPointID) +
		fragment
}
