package parser

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"

	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRules []byte

// Named capture groups recognised in rule patterns.
const (
	groupWidth  = "w"
	groupHeight = "h"
	groupColor  = "color"
	groupFinish = "finish"
)

// RuleSet is the on-disk description of how labels are classified.
type RuleSet struct {
	ExcludeKeywords []string `yaml:"exclude_keywords"`
	PairKeywords    []string `yaml:"pair_keywords"`
	Rules           []Rule   `yaml:"rules"`
}

// Rule claims labels by a contains or prefix trigger and extracts a spec with
// the first matching pattern. A claimed label that matches no pattern is
// rejected; it is never handed to a later rule.
type Rule struct {
	Name      string               `yaml:"name"`
	Type      domain.ComponentType `yaml:"type"`
	Contains  string               `yaml:"contains"`
	Prefix    string               `yaml:"prefix"`
	FixedSize string               `yaml:"fixed_size"`
	Patterns  []string             `yaml:"patterns"`
}

type compiledRule struct {
	Rule
	patterns []*regexp.Regexp
}

// ParseRuleSet decodes a YAML rule set.
func ParseRuleSet(data []byte) (RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("decode rule set: %w", err)
	}
	return rs, nil
}

// LoadRuleSet reads a YAML rule set from path.
func LoadRuleSet(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("read rule set %s: %w", path, err)
	}
	return ParseRuleSet(data)
}

// DefaultRuleSet returns the built-in rule set.
func DefaultRuleSet() RuleSet {
	rs, err := ParseRuleSet(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("parser: invalid embedded rule set: %v", err))
	}
	return rs
}

func compileRule(r Rule) (compiledRule, error) {
	if r.Name == "" {
		r.Name = string(r.Type)
	}
	if !r.Type.Valid() {
		return compiledRule{}, fmt.Errorf("rule %s: unknown component type %q", r.Name, r.Type)
	}
	if (r.Contains == "") == (r.Prefix == "") {
		return compiledRule{}, fmt.Errorf("rule %s: exactly one of contains or prefix must be set", r.Name)
	}
	if len(r.Patterns) == 0 {
		return compiledRule{}, fmt.Errorf("rule %s: at least one pattern is required", r.Name)
	}

	cr := compiledRule{Rule: r}
	for _, expr := range r.Patterns {
		re, err := regexp.Compile(expr)
		if err != nil {
			return compiledRule{}, fmt.Errorf("rule %s: compile %q: %w", r.Name, expr, err)
		}
		if re.SubexpIndex(groupColor) < 0 {
			return compiledRule{}, fmt.Errorf("rule %s: pattern %q has no (?P<color>) group", r.Name, expr)
		}
		if r.FixedSize == "" && (re.SubexpIndex(groupWidth) < 0 || re.SubexpIndex(groupHeight) < 0) {
			return compiledRule{}, fmt.Errorf("rule %s: pattern %q needs (?P<w>) and (?P<h>) groups or a fixed_size", r.Name, expr)
		}
		cr.patterns = append(cr.patterns, re)
	}
	return cr, nil
}
