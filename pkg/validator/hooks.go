package validator

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
)

var (
	hookEvents = map[string]bool{
		"PreToolUse":       true,
		"PostToolUse":      true,
		"Notification":     true,
		"UserPromptSubmit": true,
		"Stop":             true,
		"SubagentStop":     true,
		"PreCompact":       true,
		"SessionStart":     true,
		"SessionEnd":       true,
	}

	// events whose matcher is a fixed vocabulary rather than a tool pattern
	hookMatchers = map[string]map[string]bool{
		"SessionStart": {"startup": true, "resume": true, "clear": true, "compact": true},
		"PreCompact":   {"manual": true, "auto": true},
	}
)

// checkHooks validates a hooks/*.json file: a "hooks" object keyed by event
// name, each event holding matcher configs with a list of command hooks.
func checkHooks(content []byte) ([]string, error) {
	var doc any
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, errors.Wrap(err, "invalid JSON")
	}
	root, ok := doc.(map[string]any)
	if !ok {
		return nil, errors.New("hooks file must contain a JSON object")
	}

	var f findings

	if description, ok := root["description"]; ok {
		if _, isString := description.(string); !isString {
			f.errorf("'description' must be a string")
		}
	}

	rawHooks, ok := root["hooks"]
	if !ok {
		f.errorf("missing required field: hooks")
		return f.result()
	}
	events, ok := rawHooks.(map[string]any)
	if !ok {
		f.errorf("'hooks' must be an object")
		return f.result()
	}

	names := make([]string, 0, len(events))
	for name := range events {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, event := range names {
		if !hookEvents[event] {
			f.errorf("unknown hook event '%s'", event)
			continue
		}
		configs, ok := events[event].([]any)
		if !ok {
			f.errorf("%s: must be a list of hook configurations", event)
			continue
		}
		for i, raw := range configs {
			f.hookConfig(event, i, raw)
		}
	}

	return f.result()
}

func (f *findings) hookConfig(event string, i int, raw any) {
	config, ok := raw.(map[string]any)
	if !ok {
		f.errorf("%s[%d]: must be an object", event, i)
		return
	}

	if rawMatcher, ok := config["matcher"]; ok {
		matcher, isString := rawMatcher.(string)
		switch {
		case !isString:
			f.errorf("%s[%d]: 'matcher' must be a string", event, i)
		case hookMatchers[event] != nil && !hookMatchers[event][matcher]:
			f.warnf("%s[%d]: unexpected matcher '%s'", event, i, matcher)
		}
	}

	rawHooks, ok := config["hooks"]
	if !ok {
		f.errorf("%s[%d]: missing required field: hooks", event, i)
		return
	}
	hooks, ok := rawHooks.([]any)
	if !ok {
		f.errorf("%s[%d]: 'hooks' must be a list", event, i)
		return
	}

	for j, rawHook := range hooks {
		hook, ok := rawHook.(map[string]any)
		if !ok {
			f.errorf("%s[%d].hooks[%d]: must be an object", event, i, j)
			continue
		}
		if hookType, _ := hook["type"].(string); hookType != "command" {
			f.errorf("%s[%d].hooks[%d]: 'type' must be \"command\", got %v", event, i, j, hook["type"])
		}
		if command, _ := hook["command"].(string); command == "" {
			f.errorf("%s[%d].hooks[%d]: 'command' must be a non-empty string", event, i, j)
		}
		if rawTimeout, ok := hook["timeout"]; ok {
			if timeout, isNumber := rawTimeout.(float64); !isNumber || timeout <= 0 {
				f.errorf("%s[%d].hooks[%d]: 'timeout' must be a positive number", event, i, j)
			}
		}
	}
}
