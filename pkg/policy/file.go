package policy

import (
	"os"
	"sort"
	"time"

	"github.com/iwvelando/household-tax/pkg/constants"
	"github.com/iwvelando/household-tax/pkg/mathutil"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// File is the YAML layout of a policy document.
type File struct {
	Version       string                  `yaml:"version"`
	EffectiveFrom string                  `yaml:"effectiveFrom"`
	Categories    map[string]CategoryFile `yaml:"categories"`
}

// CategoryFile is the YAML layout of one category's policy.
type CategoryFile struct {
	VATRate            float64          `yaml:"vatRate"`
	PITRate            float64          `yaml:"pitRate"`
	ExemptionThreshold float64          `yaml:"exemptionThreshold"`
	LicenseFees        []TierFile       `yaml:"licenseFees"`
	Deductible         []DeductibleFile `yaml:"deductible"`
}

// TierFile is the YAML layout of a license fee tier.
type TierFile struct {
	LowerBound float64 `yaml:"lowerBound"`
	Fee        float64 `yaml:"fee"`
}

// DeductibleFile is the YAML layout of a deductible category.
type DeductibleFile struct {
	Label string  `yaml:"label"`
	Cap   float64 `yaml:"cap,omitempty"`
}

// LoadFile reads and validates a YAML policy document.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read policy file %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML policy document.
func Parse(data []byte) (*Table, error) {
	var doc File
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse policy document")
	}
	return doc.Table()
}

// Table converts the document into a validated table.
func (f File) Table() (*Table, error) {
	var effectiveFrom time.Time
	if f.EffectiveFrom != "" {
		t, err := time.Parse(constants.DateLayout, f.EffectiveFrom)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid effectiveFrom in policy %s", f.Version)
		}
		effectiveFrom = t
	}

	// Map iteration order is random; sort so validation messages are stable.
	keys := make([]string, 0, len(f.Categories))
	for k := range f.Categories {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		cf := f.Categories[k]
		entry := Entry{
			Category:           Category(k),
			VATRate:            mathutil.FromFloat(cf.VATRate),
			PITRate:            mathutil.FromFloat(cf.PITRate),
			ExemptionThreshold: mathutil.FromFloat(cf.ExemptionThreshold),
		}
		if c, err := ParseCategory(k); err == nil {
			entry.Category = c
		}
		for _, tf := range cf.LicenseFees {
			entry.LicenseFees = append(entry.LicenseFees, Tier{
				LowerBound: mathutil.FromFloat(tf.LowerBound),
				Fee:        mathutil.FromFloat(tf.Fee),
			})
		}
		for _, df := range cf.Deductible {
			entry.Deductible = append(entry.Deductible, DeductibleCategory{
				Label: df.Label,
				Cap:   mathutil.FromFloat(df.Cap),
			})
		}
		entries = append(entries, entry)
	}

	return NewTable(f.Version, effectiveFrom, entries...)
}
