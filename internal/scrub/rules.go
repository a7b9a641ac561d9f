package scrub

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule is one redaction rule as configured: a detect-pattern template and a
// replace-pattern template, both of which may reference placeholders. Rule
// order is significant; rules are applied in the order they were registered.
type Rule struct {
	Key            string `yaml:"key" mapstructure:"key"`
	DetectPattern  string `yaml:"detect_pattern" mapstructure:"detect_pattern"`
	ReplacePattern string `yaml:"replace_pattern" mapstructure:"replace_pattern"`
}

// CompiledRule is a Rule whose detect pattern has been expanded and compiled.
// The replace pattern stays a template: it is expanded again at every match,
// and the expansion is itself interpreted as a regular expression over the
// line, not as literal text.
type CompiledRule struct {
	Key             string
	Detect          *regexp.Regexp
	ReplaceTemplate string
}

var placeholderPattern = regexp.MustCompile(`\$\{([^${}]*)\}`)

// ExpandTemplate substitutes every ${name} reference in template with its
// value from mapping. A name missing from the mapping is a configuration
// error, never left in place as literal text.
func ExpandTemplate(template string, mapping map[string]string) (string, error) {
	var unresolved string
	expanded := placeholderPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := token[2 : len(token)-1]
		value, ok := mapping[name]
		if !ok {
			if unresolved == "" {
				unresolved = name
			}
			return token
		}
		return value
	})
	if unresolved != "" {
		return "", fmt.Errorf("%w: ${%s}", ErrUnresolvedPlaceholder, unresolved)
	}
	return expanded, nil
}

// Compile expands and compiles every rule against the placeholder mapping,
// preserving order. Any bad rule fails the whole invocation: a silently
// disabled rule would leave later files inconsistently redacted.
func Compile(rules []Rule, mapping map[string]string) ([]CompiledRule, error) {
	compiled := make([]CompiledRule, 0, len(rules))
	for _, rule := range rules {
		detect, err := ExpandTemplate(rule.DetectPattern, mapping)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", rule.Key, err)
		}
		detect = strings.TrimSpace(detect)
		if detect == "" {
			return nil, fmt.Errorf("rule %q: %w: detect pattern is empty", rule.Key, ErrInvalidPattern)
		}

		re, err := regexp.Compile(detect)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w: %v", rule.Key, ErrInvalidPattern, err)
		}

		// The replace template is expanded per match, but its placeholder
		// references are checked now so a bad rule fails before any file
		// is opened.
		if _, err := ExpandTemplate(rule.ReplacePattern, mapping); err != nil {
			return nil, fmt.Errorf("rule %q: %w", rule.Key, err)
		}

		compiled = append(compiled, CompiledRule{
			Key:             rule.Key,
			Detect:          re,
			ReplaceTemplate: rule.ReplacePattern,
		})
	}
	return compiled, nil
}
