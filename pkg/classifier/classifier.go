// Package classifier tags expense descriptions with a category and a
// deductibility verdict using an ordered keyword rule table.
//
// Rules are scanned top to bottom and the first rule with a keyword contained
// in the normalized description wins. A description no rule matches is
// classified as "Khác" and not deductible.
package classifier

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iwvelando/household-tax/pkg/constants"
	"github.com/iwvelando/household-tax/pkg/expense"
	"go.uber.org/multierr"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalidRules is returned when a rule table fails validation.
var ErrInvalidRules = errors.New("invalid classifier rules")

// Rule maps any of its keywords to a category and deductibility.
type Rule struct {
	Name       string
	Keywords   []string
	Category   string
	Deductible bool
}

// Classification is the outcome for one description. Rule is empty when no
// rule matched.
type Classification struct {
	Category   string `json:"category"`
	Deductible bool   `json:"is_deductible"`
	Rule       string `json:"rule,omitempty"`
}

// Fallback is the classification for descriptions no rule matches.
var Fallback = Classification{Category: constants.OtherCategory, Deductible: false}

type compiledRule struct {
	Rule
	normalized []string
}

// Classifier is safe for concurrent use; it is never modified after New.
type Classifier struct {
	rules []compiledRule
}

// New validates rules and builds a classifier. The slice is copied.
func New(rules []Rule) (*Classifier, error) {
	var err error
	names := make(map[string]bool, len(rules))
	compiled := make([]compiledRule, 0, len(rules))

	for i, r := range rules {
		if strings.TrimSpace(r.Name) == "" {
			err = multierr.Append(err, fmt.Errorf("rule %d has no name", i))
		} else if names[r.Name] {
			err = multierr.Append(err, fmt.Errorf("rule %q is defined more than once", r.Name))
		}
		names[r.Name] = true

		if strings.TrimSpace(r.Category) == "" {
			err = multierr.Append(err, fmt.Errorf("rule %q has no category", r.Name))
		}

		cr := compiledRule{Rule: r}
		cr.Keywords = append([]string(nil), r.Keywords...)
		for _, kw := range r.Keywords {
			if n := Normalize(kw); n != "" {
				cr.normalized = append(cr.normalized, n)
			}
		}
		if len(cr.normalized) == 0 {
			err = multierr.Append(err, fmt.Errorf("rule %q has no keywords", r.Name))
		}
		compiled = append(compiled, cr)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	return &Classifier{rules: compiled}, nil
}

// Classify returns the category and deductibility of a description.
func (c *Classifier) Classify(description string) Classification {
	normalized := Normalize(description)
	if normalized == "" {
		return Fallback
	}
	for _, r := range c.rules {
		for _, kw := range r.normalized {
			if strings.Contains(normalized, kw) {
				return Classification{Category: r.Category, Deductible: r.Deductible, Rule: r.Name}
			}
		}
	}
	return Fallback
}

// ClassifyRecord tags an unclassified record from its description. Records
// that are already classified are returned unchanged.
func (c *Classifier) ClassifyRecord(r expense.Record) expense.Record {
	if r.Classified {
		return r
	}
	cl := c.Classify(r.Description)
	return r.Tag(cl.Category, cl.Deductible)
}

// Rules returns a copy of the rule table in evaluation order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, 0, len(c.rules))
	for _, r := range c.rules {
		rule := r.Rule
		rule.Keywords = append([]string(nil), r.Keywords...)
		out = append(out, rule)
	}
	return out
}

// Normalize prepares text for matching: Vietnamese lower-casing, Unicode NFC
// composition and collapsed whitespace. Decomposed input such as OCR output
// therefore matches precomposed keywords.
func Normalize(s string) string {
	// A Caser is stateful, so each call gets its own.
	s = cases.Lower(language.Vietnamese).String(s)
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}
