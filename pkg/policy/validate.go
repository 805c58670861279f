package policy

import (
	"fmt"
	"strings"

	"github.com/iwvelando/household-tax/pkg/mathutil"
	"go.uber.org/multierr"
)

func validate(version string, entries []Entry) error {
	var err error

	if strings.TrimSpace(version) == "" {
		err = multierr.Append(err, fmt.Errorf("version is required"))
	}
	if len(entries) == 0 {
		err = multierr.Append(err, fmt.Errorf("at least one category entry is required"))
	}

	seen := make(map[Category]bool, len(entries))
	for _, e := range entries {
		if !e.Category.Valid() {
			err = multierr.Append(err, fmt.Errorf("category %q is not registered", string(e.Category)))
			continue
		}
		if seen[e.Category] {
			err = multierr.Append(err, fmt.Errorf("category %s is defined more than once", e.Category))
			continue
		}
		seen[e.Category] = true
		err = multierr.Append(err, validateEntry(e))
	}

	return err
}

func validateEntry(e Entry) error {
	var err error
	name := e.Category.Name()

	if !mathutil.InUnitInterval(e.VATRate) {
		err = multierr.Append(err, fmt.Errorf("%s: vatRate %s outside [0, 1]", name, e.VATRate))
	}
	if !mathutil.InUnitInterval(e.PITRate) {
		err = multierr.Append(err, fmt.Errorf("%s: pitRate %s outside [0, 1]", name, e.PITRate))
	}
	if e.ExemptionThreshold.IsNegative() {
		err = multierr.Append(err, fmt.Errorf("%s: exemptionThreshold %s is negative", name, e.ExemptionThreshold))
	}

	err = multierr.Append(err, validateSchedule(name, e.LicenseFees))
	err = multierr.Append(err, validateDeductible(name, e.Deductible))
	return err
}

// validateSchedule requires tiers that start at zero, ascend strictly and
// never lower the fee, so the schedule covers [0, ∞) as a non-decreasing
// step function.
func validateSchedule(name string, tiers []Tier) error {
	if len(tiers) == 0 {
		return fmt.Errorf("%s: licenseFees schedule is empty", name)
	}

	var err error
	if !tiers[0].LowerBound.IsZero() {
		err = multierr.Append(err, fmt.Errorf("%s: first license tier starts at %s, not 0", name, tiers[0].LowerBound))
	}
	for i, tier := range tiers {
		if tier.Fee.IsNegative() {
			err = multierr.Append(err, fmt.Errorf("%s: license tier %d fee %s is negative", name, i, tier.Fee))
		} else if !mathutil.IsWhole(tier.Fee) {
			err = multierr.Append(err, fmt.Errorf("%s: license tier %d fee %s is not a whole amount", name, i, tier.Fee))
		}
		if i == 0 {
			continue
		}
		prev := tiers[i-1]
		if !tier.LowerBound.GreaterThan(prev.LowerBound) {
			err = multierr.Append(err, fmt.Errorf("%s: license tier %d lower bound %s does not ascend from %s", name, i, tier.LowerBound, prev.LowerBound))
		}
		if tier.Fee.LessThan(prev.Fee) {
			err = multierr.Append(err, fmt.Errorf("%s: license tier %d fee %s is lower than the previous tier's %s", name, i, tier.Fee, prev.Fee))
		}
	}
	return err
}

func validateDeductible(name string, list []DeductibleCategory) error {
	var err error
	seen := make(map[string]bool, len(list))
	for i, dc := range list {
		if strings.TrimSpace(dc.Label) == "" {
			err = multierr.Append(err, fmt.Errorf("%s: deductible category %d has no label", name, i))
			continue
		}
		if seen[dc.Label] {
			err = multierr.Append(err, fmt.Errorf("%s: deductible category %q listed more than once", name, dc.Label))
		}
		seen[dc.Label] = true
		// A zero cap means uncapped.
		if !mathutil.InUnitInterval(dc.Cap) {
			err = multierr.Append(err, fmt.Errorf("%s: deductible category %q cap %s outside [0, 1]", name, dc.Label, dc.Cap))
		}
	}
	return err
}
