package validator

import (
	"encoding/json"
	"regexp"

	"github.com/pkg/errors"
)

var (
	pluginNamePattern = regexp.MustCompile(`^[a-z0-9-]+$`)
	versionPattern    = regexp.MustCompile(`^\d+\.\d+\.\d+`)
)

// checkManifest validates .claude-plugin/plugin.json
func checkManifest(content []byte) ([]string, error) {
	var doc any
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, errors.Wrap(err, "invalid JSON")
	}
	manifest, ok := doc.(map[string]any)
	if !ok {
		return nil, errors.New("plugin.json must contain a JSON object")
	}

	var f findings

	for _, field := range []string{"name", "version", "description", "license"} {
		value, ok := manifest[field]
		if !ok {
			f.errorf("missing required field: %s", field)
			continue
		}
		if s, isString := value.(string); !isString || s == "" {
			f.errorf("'%s' must be a non-empty string", field)
		}
	}

	if name, ok := manifest["name"].(string); ok && name != "" && !pluginNamePattern.MatchString(name) {
		f.errorf("name %q must be kebab-case (lowercase letters, digits and hyphens)", name)
	}
	if version, ok := manifest["version"].(string); ok && version != "" && !versionPattern.MatchString(version) {
		f.warnf("version %q does not follow semantic versioning (X.Y.Z)", version)
	}

	switch author, ok := manifest["author"]; {
	case !ok:
		f.errorf("missing required field: author")
	default:
		obj, isObject := author.(map[string]any)
		if !isObject {
			f.errorf("'author' must be an object")
			break
		}
		if name, _ := obj["name"].(string); name == "" {
			f.errorf("'author.name' must be a non-empty string")
		}
	}

	return f.result()
}
