package validator

import (
	"strings"

	"github.com/jingkaihe/pluginkit/pkg/skills"
	"github.com/pkg/errors"
)

const (
	minAgentDescriptionLength   = 10
	minCommandDescriptionLength = 5
)

var (
	agentFields = map[string]bool{
		"name":        true,
		"description": true,
		"tools":       true,
		"model":       true,
	}

	commandFields = map[string]bool{
		"description":              true,
		"allowed-tools":            true,
		"argument-hint":            true,
		"model":                    true,
		"disable-model-invocation": true,
	}

	agentModels = map[string]bool{
		"sonnet": true,
		"opus":   true,
		"haiku":  true,
	}
)

// checkAgent validates an agents/*.md file: frontmatter with a name and a
// description is required, followed by a non-empty body.
func checkAgent(content []byte) ([]string, error) {
	doc, err := skills.Parse(content)
	if err != nil {
		if errors.Is(err, skills.ErrNoFrontmatter) {
			return nil, errors.New("agent file must start with YAML frontmatter (---)")
		}
		return nil, err
	}

	var f findings

	for _, field := range []string{"name", "description"} {
		value, ok := doc.Metadata[field]
		if !ok {
			f.errorf("missing required frontmatter field: %s", field)
			continue
		}
		if s, isString := value.(string); !isString || strings.TrimSpace(s) == "" {
			f.errorf("frontmatter field '%s' must be a non-empty string, got %v", field, value)
		}
	}
	if d := strings.TrimSpace(doc.Description); d != "" && len(d) < minAgentDescriptionLength {
		f.warnf("description is very short (%d characters)", len(d))
	}

	if tools, ok := doc.Metadata["tools"]; ok {
		f.tools("tools", tools)
	}

	if model, ok := doc.Metadata["model"]; ok {
		switch m, isString := model.(string); {
		case !isString:
			f.errorf("frontmatter field 'model' must be a string, got %v", model)
		case !agentModels[m]:
			f.warnf("model '%s' is not one of sonnet, opus or haiku", m)
		}
	}

	f.unknownFields(doc.Metadata, agentFields)

	if strings.TrimSpace(doc.Content) == "" {
		f.errorf("agent file has no content after the frontmatter")
	} else if !hasHeading(doc.Content) {
		f.warnf("agent file has no top-level heading (# Title)")
	}
	return f.result()
}

// checkCommand validates a commands/*.md file. Frontmatter is optional but
// the prompt body is not.
func checkCommand(content []byte) ([]string, error) {
	doc, err := skills.Parse(content)
	switch {
	case errors.Is(err, skills.ErrNoFrontmatter):
		doc = &skills.Skill{Content: string(content)}
	case err != nil:
		return nil, err
	}

	var f findings

	if description, ok := doc.Metadata["description"]; ok {
		switch d, isString := description.(string); {
		case !isString:
			f.errorf("frontmatter field 'description' must be a string, got %v", description)
		case len(strings.TrimSpace(d)) < minCommandDescriptionLength:
			f.warnf("description is very short (%d characters)", len(strings.TrimSpace(d)))
		}
	}

	if tools, ok := doc.Metadata["allowed-tools"]; ok {
		f.tools("allowed-tools", tools)
	}

	if hint, ok := doc.Metadata["argument-hint"]; ok {
		if _, isString := hint.(string); !isString {
			f.errorf("frontmatter field 'argument-hint' must be a string, got %v", hint)
		}
	}

	if model, ok := doc.Metadata["model"]; ok {
		if _, isString := model.(string); !isString {
			f.errorf("frontmatter field 'model' must be a string, got %v", model)
		}
	}

	if disable, ok := doc.Metadata["disable-model-invocation"]; ok {
		if _, isBool := disable.(bool); !isBool {
			f.errorf("frontmatter field 'disable-model-invocation' must be a boolean, got %v", disable)
		}
	}

	f.unknownFields(doc.Metadata, commandFields)

	if strings.TrimSpace(doc.Content) == "" {
		f.errorf("command file cannot be empty")
	}
	return f.result()
}
