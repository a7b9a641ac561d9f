package scrub

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/raaihank/logscrub/internal/logger"
	"github.com/raaihank/logscrub/internal/report"
)

// Rewriter applies a compiled rule list to single lines. It holds no mutable
// state and is safe to share once constructed.
type Rewriter struct {
	rules     []CompiledRule
	mapping   map[string]string
	pseudonym string
	logger    *logger.Logger
}

// NewRewriter creates a rewriter over precompiled rules.
func NewRewriter(rules []CompiledRule, mapping map[string]string, pseudonym string, log *logger.Logger) *Rewriter {
	return &Rewriter{
		rules:     rules,
		mapping:   mapping,
		pseudonym: pseudonym,
		logger:    log,
	}
}

// RewriteLine folds the rule list over one line. Rules run in registration
// order and each sees the output of the ones before it, so rule order is
// observable in the result. Returns the rewritten line, whether any rule
// matched, and one audit entry per rule hit.
func (r *Rewriter) RewriteLine(file string, lineNumber int, line string) (string, bool, []report.Entry, error) {
	current := line
	matched := false
	var entries []report.Entry

	for _, rule := range r.rules {
		if !rule.Detect.MatchString(current) {
			continue
		}
		matched = true

		expanded, err := ExpandTemplate(rule.ReplaceTemplate, r.mapping)
		if err != nil {
			return "", false, nil, fmt.Errorf("rule %q: %w", rule.Key, err)
		}

		// A blank replace pattern means the rule only flags the line.
		if strings.TrimSpace(expanded) == "" {
			entries = append(entries, report.Entry{
				File:        file,
				Line:        lineNumber,
				Substituted: false,
				Rule:        rule.Key,
			})
			r.logger.Debug("Match flagged without substitution",
				zap.String("rule", rule.Key),
				zap.Int("line", lineNumber),
			)
			continue
		}

		// The expanded replace pattern is a regex identifying the exact
		// substrings to pseudonymize within the line.
		replaceRe, err := regexp.Compile(expanded)
		if err != nil {
			return "", false, nil, fmt.Errorf("rule %q: %w: replace pattern: %v", rule.Key, ErrInvalidPattern, err)
		}
		current = replaceRe.ReplaceAllLiteralString(current, r.pseudonym)

		entries = append(entries, report.Entry{
			File:        file,
			Line:        lineNumber,
			Substituted: true,
			Rule:        rule.Key,
		})
		r.logger.Debug("Match replaced",
			zap.String("rule", rule.Key),
			zap.Int("line", lineNumber),
		)
	}

	return current, matched, entries, nil
}
