// Package validation provides the snapshot validator/corrector: seven
// consistency rule families evaluated over a completed snapshot, with
// deterministic repairs for the correctable ones.
package validation

import (
	"time"

	"cpstock/internal/core/types"
	"cpstock/internal/domain/key"
)

// Severity of a validation issue. Any Error-severity issue blocks downstream
// report generation; Warning issues are informational.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Rule identifies a rule family.
type Rule string

const (
	RulePriceEquality   Rule = "price_equality"
	RuleAmountMismatch  Rule = "amount_quantity_mismatch"
	RuleZeroConsistency Rule = "zero_consistency"
	RuleOrphanRow       Rule = "orphan_aggregation_row"
	RuleNegativeStock   Rule = "negative_stock"
	RuleMarginRate      Rule = "margin_rate"
	RuleContinuity      Rule = "day_to_day_continuity"
)

// Issue is one detected violation. Issues are ephemeral: they are consumed by
// the corrector or surfaced to the caller, never persisted.
type Issue struct {
	Rule        Rule        `json:"rule"`
	Severity    Severity    `json:"severity"`
	Key         key.Key     `json:"-"`
	KeyString   string      `json:"key"`
	Expected    *types.Money `json:"expected,omitempty"`
	Actual      *types.Money `json:"actual,omitempty"`
	Difference  *types.Money `json:"difference,omitempty"`
	Description string      `json:"description"`
}

// Result summarizes one validation run.
type Result struct {
	JobDate      time.Time `json:"jobDate"`
	TotalRecords int       `json:"totalRecords"`
	ErrorCount   int       `json:"errorCount"`
	WarningCount int       `json:"warningCount"`
	Issues       []Issue   `json:"issues"`
}

// Blocked reports whether the snapshot must be withheld from reporting.
func (r Result) Blocked() bool {
	return r.ErrorCount > 0
}

// ErrorsByRule breaks the Error-severity issues down per rule family for the
// refusal message of the zero-error-required gate.
func (r Result) ErrorsByRule() map[string]int {
	out := make(map[string]int)
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			out[string(issue.Rule)]++
		}
	}
	return out
}

func (r *Result) add(issue Issue) {
	issue.KeyString = issue.Key.String()
	r.Issues = append(r.Issues, issue)
	switch issue.Severity {
	case SeverityError:
		r.ErrorCount++
	case SeverityWarning:
		r.WarningCount++
	}
}

func money(m types.Money) *types.Money { return &m }
