package classifier

import (
	"os"

	"github.com/iwvelando/household-tax/pkg/constants"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultRules returns the built-in rule table. Order matters: food comes
// before utilities so "nước mắm" is an ingredient, not a water bill.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:       "food",
			Category:   constants.LabelFoodMaterials,
			Deductible: true,
			Keywords:   []string{"thực phẩm", "nguyên liệu", "rau", "thịt", "gạo", "gia vị", "nước mắm", "đồ uống"},
		},
		{
			Name:       "goods",
			Category:   constants.LabelGoods,
			Deductible: true,
			Keywords:   []string{"hàng hóa", "hàng hoá", "vật liệu", "nhập hàng"},
		},
		{
			Name:       "rent",
			Category:   constants.LabelRent,
			Deductible: true,
			Keywords:   []string{"thuê", "mặt bằng"},
		},
		{
			Name:       "utilities",
			Category:   constants.LabelUtilities,
			Deductible: true,
			Keywords:   []string{"tiền điện", "tiền nước", "điện", "nước", "internet", "viễn thông"},
		},
		{
			Name:       "labor",
			Category:   constants.LabelLabor,
			Deductible: true,
			Keywords:   []string{"lương", "nhân công", "nhân viên", "tiền công"},
		},
		{
			Name:       "depreciation",
			Category:   constants.LabelDepreciation,
			Deductible: true,
			Keywords:   []string{"máy móc", "thiết bị", "khấu hao"},
		},
	}
}

// Default returns a classifier over DefaultRules.
func Default() *Classifier {
	c, err := New(DefaultRules())
	if err != nil {
		panic(err)
	}
	return c
}

// RulesFile is the YAML layout of a rule table.
type RulesFile struct {
	Rules []RuleFile `yaml:"rules"`
}

// RuleFile is the YAML layout of one rule.
type RuleFile struct {
	Name       string   `yaml:"name"`
	Category   string   `yaml:"category"`
	Deductible bool     `yaml:"deductible"`
	Keywords   []string `yaml:"keywords"`
}

// LoadRules reads a YAML rule table and builds a classifier from it.
func LoadRules(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read classifier rules %s", path)
	}

	var doc RulesFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "failed to parse classifier rules %s", path)
	}
	if len(doc.Rules) == 0 {
		return nil, errors.Wrapf(ErrInvalidRules, "no rules in %s", path)
	}

	rules := make([]Rule, 0, len(doc.Rules))
	for _, rf := range doc.Rules {
		rules = append(rules, Rule{
			Name:       rf.Name,
			Category:   rf.Category,
			Deductible: rf.Deductible,
			Keywords:   rf.Keywords,
		})
	}
	return New(rules)
}
