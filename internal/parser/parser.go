// Package parser classifies free-text inventory labels into component specs.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/domain"
)

// Parser applies an ordered rule list to inventory labels. It is safe for
// concurrent use.
type Parser struct {
	excludes     []string
	pairKeywords []string
	rules        []compiledRule
}

// New compiles a rule set.
func New(rs RuleSet) (*Parser, error) {
	p := &Parser{
		excludes:     rs.ExcludeKeywords,
		pairKeywords: rs.PairKeywords,
	}
	for _, r := range rs.Rules {
		cr, err := compileRule(r)
		if err != nil {
			return nil, err
		}
		p.rules = append(p.rules, cr)
	}
	return p, nil
}

// Default returns a parser for the built-in rule set.
func Default() *Parser {
	p, err := New(DefaultRuleSet())
	if err != nil {
		panic(fmt.Sprintf("parser: invalid embedded rule set: %v", err))
	}
	return p
}

// FromFile builds a parser from a YAML rule file, or the built-in rules when
// path is empty.
func FromFile(path string) (*Parser, error) {
	if path == "" {
		return Default(), nil
	}
	rs, err := LoadRuleSet(path)
	if err != nil {
		return nil, err
	}
	return New(rs)
}

// Parse classifies label. The boolean is false when the label is not a
// recognised component.
func (p *Parser) Parse(label string) (domain.ComponentSpec, bool) {
	name := strings.TrimSpace(label)
	if name == "" {
		return domain.ComponentSpec{}, false
	}
	for _, kw := range p.excludes {
		if kw != "" && strings.Contains(name, kw) {
			return domain.ComponentSpec{}, false
		}
	}

	for _, r := range p.rules {
		if !r.claims(name) {
			continue
		}
		for _, re := range r.patterns {
			if spec, ok := r.extract(re.FindStringSubmatch(name), re.SubexpNames()); ok {
				return spec, true
			}
		}
		return domain.ComponentSpec{}, false
	}
	return domain.ComponentSpec{}, false
}

// IsPair reports whether a pillowcase label is sold as a pair.
func (p *Parser) IsPair(label string) bool {
	for _, kw := range p.pairKeywords {
		if kw != "" && strings.Contains(label, kw) {
			return true
		}
	}
	return false
}

func (r compiledRule) claims(name string) bool {
	if r.Prefix != "" {
		return strings.HasPrefix(name, r.Prefix)
	}
	return strings.Contains(name, r.Contains)
}

func (r compiledRule) extract(match, names []string) (domain.ComponentSpec, bool) {
	if match == nil {
		return domain.ComponentSpec{}, false
	}
	groups := make(map[string]string, len(names))
	for i, n := range names {
		if n != "" {
			groups[n] = match[i]
		}
	}

	color := groups[groupColor] + groups[groupFinish]
	if color == "" {
		return domain.ComponentSpec{}, false
	}

	size := r.FixedSize
	if size == "" {
		w, errW := strconv.Atoi(groups[groupWidth])
		h, errH := strconv.Atoi(groups[groupHeight])
		if errW != nil || errH != nil {
			return domain.ComponentSpec{}, false
		}
		size = FormatSize(w, h)
	}

	return domain.ComponentSpec{Type: r.Type, Size: size, Color: color}, true
}

// FormatSize renders a canonical W*H size key.
func FormatSize(w, h int) string {
	return strconv.Itoa(w) + "*" + strconv.Itoa(h)
}
