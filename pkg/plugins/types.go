package plugins

// Manifest is the static metadata a plugin ships in plugin.yaml. The
// extensions section declares every extension the plugin's runtime code is
// allowed to register; in developer mode the registries reject anything that
// is not declared here.
type Manifest struct {
	ID           string       `yaml:"id"`      // Unique ID (e.g., "acme-app")
	Name         string       `yaml:"name"`    // Display name
	Version      string       `yaml:"version"` // Semver
	Type         PluginType   `yaml:"type"`    // app, panel, datasource
	Description  string       `yaml:"description,omitempty"`
	Extensions   Extensions   `yaml:"extensions"`
	Dependencies Dependencies `yaml:"dependencies"`
}

// PluginType defines the category of plugin
type PluginType string

const (
	PluginTypeApp        PluginType = "app"
	PluginTypePanel      PluginType = "panel"
	PluginTypeDatasource PluginType = "datasource"
)

// Extensions lists the extensions a plugin declares
type Extensions struct {
	AddedLinks        []ExtensionDecl        `yaml:"addedLinks"`
	AddedComponents   []ExtensionDecl        `yaml:"addedComponents"`
	AddedFunctions    []ExtensionDecl        `yaml:"addedFunctions"`
	ExposedComponents []ExposedComponentDecl `yaml:"exposedComponents"`
	ExtensionPoints   []ExtensionPointDecl   `yaml:"extensionPoints"`
}

// ExtensionDecl declares an added link, component or function
type ExtensionDecl struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description,omitempty"`
	Targets     []string `yaml:"targets"`
}

// ExposedComponentDecl declares a component other plugins may render by id
type ExposedComponentDecl struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
}

// ExtensionPointDecl declares an extension point owned by the plugin
type ExtensionPointDecl struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// Dependencies records what a plugin consumes from other plugins
type Dependencies struct {
	GrafanaDependency string                `yaml:"grafanaDependency,omitempty"`
	Extensions        ExtensionDependencies `yaml:"extensions"`
}

// ExtensionDependencies lists exposed component ids the plugin renders
type ExtensionDependencies struct {
	ExposedComponents []string `yaml:"exposedComponents"`
}

// ValidationError represents a manifest or contribution validation error
type ValidationError struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // error, warning
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Severity levels used in ValidationError
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// HasTarget reports whether d lists target
func (d ExtensionDecl) HasTarget(target string) bool {
	for _, t := range d.Targets {
		if t == target {
			return true
		}
	}
	return false
}

// FindByTitle returns the declaration with the given title
func FindByTitle(decls []ExtensionDecl, title string) (ExtensionDecl, bool) {
	for _, d := range decls {
		if d.Title == title {
			return d, true
		}
	}
	return ExtensionDecl{}, false
}

// FindExposedComponent returns the exposed component declaration with the given id
func (e Extensions) FindExposedComponent(id string) (ExposedComponentDecl, bool) {
	for _, d := range e.ExposedComponents {
		if d.ID == id {
			return d, true
		}
	}
	return ExposedComponentDecl{}, false
}

// DependsOnExposedComponent reports whether the plugin declared it renders id
func (m *Manifest) DependsOnExposedComponent(id string) bool {
	for _, c := range m.Dependencies.Extensions.ExposedComponents {
		if c == id {
			return true
		}
	}
	return false
}
