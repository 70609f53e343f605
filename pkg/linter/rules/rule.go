package rules

import (
	"errors"

	"github.com/platinummonkey/extensions/pkg/extensions"
	"github.com/platinummonkey/extensions/pkg/linter"
)

// BaseRule provides common functionality for rules
type BaseRule struct {
	RuleName        string
	RuleCategory    linter.Category
	RuleSeverity    linter.Severity
	RuleDescription string
}

func (r *BaseRule) Name() string              { return r.RuleName }
func (r *BaseRule) Category() linter.Category { return r.RuleCategory }
func (r *BaseRule) Severity() linter.Severity { return r.RuleSeverity }
func (r *BaseRule) Description() string       { return r.RuleDescription }

func (r *BaseRule) violation(field, message string) linter.Violation {
	return linter.Violation{
		Rule:     r.RuleName,
		Severity: r.RuleSeverity,
		Category: r.RuleCategory,
		Field:    field,
		Message:  message,
	}
}

// messageOf unwraps an *extensions.ValidationError so reports carry the bare
// message instead of the formatted error
func messageOf(err error) string {
	var verr *extensions.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return err.Error()
}
