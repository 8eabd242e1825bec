// --------------------------------------------------------------------------------
// Author: Thomas F McGeehan V
//
// This file is part of a software project developed by Thomas F McGeehan V.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// For more information about the MIT License, please visit:
// https://opensource.org/licenses/MIT
//
// Acknowledgment appreciated but not required.
// --------------------------------------------------------------------------------

package standardizer

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v2"
)

// Kind identifies the transformation a Rule performs.
type Kind int

const (
	KindPatternRemoval Kind = iota + 1
	KindSuffixRemoval
	KindWhitespaceNormalize
	KindSpecialCharRemoval
	KindRegionPrefixRemoval
	KindNumeralNormalize
)

var kindNames = map[Kind]string{
	KindPatternRemoval:      "pattern-removal",
	KindSuffixRemoval:       "suffix-removal",
	KindWhitespaceNormalize: "whitespace-normalize",
	KindSpecialCharRemoval:  "special-char-removal",
	KindRegionPrefixRemoval: "region-prefix-removal",
	KindNumeralNormalize:    "numeral-normalize",
}

// ErrUnknownKind is returned when a rule names a kind the normalizer cannot apply.
var ErrUnknownKind = errors.New("unknown normalization rule kind")

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind maps the wire name of a rule kind to its Kind.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownKind, "%q", s)
}

// MarshalYAML writes the kind as its wire name.
func (k Kind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

// UnmarshalYAML reads the kind from its wire name.
func (k *Kind) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalText lets JSON encoders and pgx text columns use the wire name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the wire name.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Rule is one operator-administered normalization step.
//
// Pattern and Replacement are used by pattern-removal. Literals holds the
// suffixes, region prefixes or extra allowed characters for the kinds that need
// them. Replacements holds literal numeral spellings for numeral-normalize.
type Rule struct {
	Name         string            `yaml:"name" json:"name"`
	Kind         Kind              `yaml:"kind" json:"kind"`
	Priority     int               `yaml:"priority" json:"priority"`
	Active       bool              `yaml:"active" json:"active"`
	Pattern      string            `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Replacement  string            `yaml:"replacement,omitempty" json:"replacement,omitempty"`
	Literals     []string          `yaml:"literals,omitempty" json:"literals,omitempty"`
	Replacements map[string]string `yaml:"replacements,omitempty" json:"replacements,omitempty"`
}

// step is the compiled form of a Rule. One implementation exists per Kind.
type step interface {
	apply(s string) string
}

type patternStep struct {
	re          *regexp.Regexp
	replacement string
}

func (p patternStep) apply(s string) string {
	return p.re.ReplaceAllString(s, p.replacement)
}

// suffixStep holds suffixes sorted longest first.
type suffixStep struct {
	suffixes []string
}

func (p suffixStep) apply(s string) string {
	trimmed := strings.TrimRightFunc(s, unicode.IsSpace)
	for {
		stripped := false
		for _, suffix := range p.suffixes {
			if len(trimmed) > len(suffix) && strings.HasSuffix(trimmed, suffix) {
				trimmed = strings.TrimRightFunc(strings.TrimSuffix(trimmed, suffix), unicode.IsSpace)
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}
	if trimmed == strings.TrimRightFunc(s, unicode.IsSpace) {
		return s
	}
	return trimmed
}

type whitespaceStep struct{}

func (whitespaceStep) apply(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// specialCharStep keeps letters, digits, whitespace and the allow-list.
type specialCharStep struct {
	allowed map[rune]bool
}

func (p specialCharStep) apply(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || p.allowed[r] {
			return r
		}
		return -1
	}, s)
}

type regionPrefixStep struct {
	prefixes map[string]bool
}

// apply strips every leading region token but always keeps the last token.
func (p regionPrefixStep) apply(s string) string {
	fields := strings.Fields(s)
	i := 0
	for i < len(fields)-1 && p.prefixes[fields[i]] {
		i++
	}
	if i == 0 {
		return s
	}
	return strings.Join(fields[i:], " ")
}

type numeralStep struct {
	replacer *strings.Replacer
}

func (p numeralStep) apply(s string) string {
	folded := strings.Map(func(r rune) rune {
		if r < 0x80 || !unicode.IsDigit(r) && !unicode.Is(unicode.Nl, r) && !unicode.Is(unicode.No, r) {
			return r
		}
		if d, ok := digitValue(norm.NFKC.String(string(r))); ok {
			return d
		}
		return r
	}, s)
	if p.replacer != nil {
		folded = p.replacer.Replace(folded)
	}
	return folded
}

// digitValue returns the ASCII digit for a single NFKC-folded numeral, or the
// ASCII digit of a non-ASCII decimal digit.
func digitValue(folded string) (rune, bool) {
	runes := []rune(folded)
	if len(runes) != 1 {
		return 0, false
	}
	r := runes[0]
	if r >= '0' && r <= '9' {
		return r, true
	}
	if !unicode.IsDigit(r) {
		return 0, false
	}
	// Decimal digits are encoded in contiguous runs starting at zero.
	zero := r
	for zero > 0 && r-zero < 9 && unicode.IsDigit(zero-1) {
		zero--
	}
	return '0' + (r - zero), true
}

var defaultAllowedChars = []rune{'-', '_', '/', '.'}

func compileRule(r Rule) (step, error) {
	switch r.Kind {
	case KindPatternRemoval:
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "rule %s: invalid pattern", r.Name)
		}
		return patternStep{re: re, replacement: r.Replacement}, nil
	case KindSuffixRemoval:
		suffixes := nonEmpty(r.Literals)
		sort.SliceStable(suffixes, func(i, j int) bool { return len(suffixes[i]) > len(suffixes[j]) })
		return suffixStep{suffixes: suffixes}, nil
	case KindWhitespaceNormalize:
		return whitespaceStep{}, nil
	case KindSpecialCharRemoval:
		allowed := make(map[rune]bool, len(defaultAllowedChars)+len(r.Literals))
		for _, c := range defaultAllowedChars {
			allowed[c] = true
		}
		for _, lit := range r.Literals {
			for _, c := range lit {
				allowed[c] = true
			}
		}
		return specialCharStep{allowed: allowed}, nil
	case KindRegionPrefixRemoval:
		prefixes := make(map[string]bool, len(r.Literals))
		for _, p := range nonEmpty(r.Literals) {
			prefixes[p] = true
		}
		return regionPrefixStep{prefixes: prefixes}, nil
	case KindNumeralNormalize:
		var replacer *strings.Replacer
		if len(r.Replacements) > 0 {
			keys := make([]string, 0, len(r.Replacements))
			for k := range r.Replacements {
				if k != "" {
					keys = append(keys, k)
				}
			}
			sort.Slice(keys, func(i, j int) bool {
				if len(keys[i]) == len(keys[j]) {
					return keys[i] < keys[j]
				}
				return len(keys[i]) > len(keys[j])
			})
			pairs := make([]string, 0, 2*len(keys))
			for _, k := range keys {
				pairs = append(pairs, k, r.Replacements[k])
			}
			replacer = strings.NewReplacer(pairs...)
		}
		return numeralStep{replacer: replacer}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownKind, "rule %s: %s", r.Name, r.Kind)
	}
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

type compiledRule struct {
	name string
	step step
}

// RuleSet is an immutable, priority-ordered list of active rules.
type RuleSet struct {
	rules       []compiledRule
	fingerprint string
}

// NewRuleSet validates and compiles the active rules, ordered by descending
// priority. Rules with equal priority are ordered by name.
func NewRuleSet(rules []Rule) (*RuleSet, error) {
	seen := make(map[string]bool, len(rules))
	active := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if strings.TrimSpace(r.Name) == "" {
			return nil, errors.New("normalization rule without a name")
		}
		if seen[r.Name] {
			return nil, errors.Errorf("duplicate normalization rule %q", r.Name)
		}
		seen[r.Name] = true
		if r.Active {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Priority == active[j].Priority {
			return active[i].Name < active[j].Name
		}
		return active[i].Priority > active[j].Priority
	})

	set := &RuleSet{rules: make([]compiledRule, 0, len(active))}
	digest := xxhash.New()
	for _, r := range active {
		st, err := compileRule(r)
		if err != nil {
			return nil, err
		}
		set.rules = append(set.rules, compiledRule{name: r.Name, step: st})
		fmt.Fprintf(digest, "%s|%s|%d|%s|%s|%q|%v\n", r.Name, r.Kind, r.Priority, r.Pattern, r.Replacement, r.Literals, sortedPairs(r.Replacements))
	}
	set.fingerprint = strconv.FormatUint(digest.Sum64(), 16)
	return set, nil
}

// MustRuleSet is NewRuleSet for rule lists known to be valid at compile time.
func MustRuleSet(rules []Rule) *RuleSet {
	set, err := NewRuleSet(rules)
	if err != nil {
		panic(err)
	}
	return set
}

func sortedPairs(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// Names returns the active rule names in application order.
func (rs *RuleSet) Names() []string {
	names := make([]string, len(rs.rules))
	for i, r := range rs.rules {
		names[i] = r.name
	}
	return names
}

// Fingerprint identifies the rule set contents. Two sets with the same
// fingerprint normalize every input identically.
func (rs *RuleSet) Fingerprint() string {
	return rs.fingerprint
}

// Province and metropolitan city names, long and short forms.
var regionNames = []string{
	"서울특별시", "서울", "부산광역시", "부산", "대구광역시", "대구", "인천광역시", "인천",
	"광주광역시", "광주", "대전광역시", "대전", "울산광역시", "울산", "세종특별자치시", "세종",
	"경기도", "경기", "강원특별자치도", "강원도", "강원", "충청북도", "충북", "충청남도", "충남",
	"전북특별자치도", "전라북도", "전북", "전라남도", "전남", "경상북도", "경북", "경상남도", "경남",
	"제주특별자치도", "제주",
}

// DefaultRules returns the built-in rule list for institution names.
// Region prefix stripping ships inactive.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "collapse-whitespace", Kind: KindWhitespaceNormalize, Priority: 100, Active: true},
		{
			Name:     "strip-corporate-form",
			Kind:     KindPatternRemoval,
			Priority: 95,
			Active:   true,
			Pattern:  `주식회사|유한회사|㈜|\((주|재|사|의)\)|(재단|사단|의료|학교|사회복지)법인`,
		},
		{Name: "strip-parenthetical", Kind: KindPatternRemoval, Priority: 90, Active: true, Pattern: `\([^()]*\)|\[[^\[\]]*\]`},
		{Name: "fold-numerals", Kind: KindNumeralNormalize, Priority: 80, Active: true},
		{Name: "strip-special-chars", Kind: KindSpecialCharRemoval, Priority: 70, Active: true},
		{Name: "strip-region-prefix", Kind: KindRegionPrefixRemoval, Priority: 60, Active: false, Literals: regionNames},
		{
			Name:     "strip-facility-suffix",
			Kind:     KindSuffixRemoval,
			Priority: 50,
			Active:   true,
			Literals: []string{"보건진료소", "보건지소", "보건소", "행정복지센터", "주민센터"},
		},
	}
}

// DefaultAddressRules returns the built-in rule list for addresses.
func DefaultAddressRules() []Rule {
	return []Rule{
		{Name: "collapse-whitespace", Kind: KindWhitespaceNormalize, Priority: 100, Active: true},
		{Name: "strip-parenthetical", Kind: KindPatternRemoval, Priority: 90, Active: true, Pattern: `\([^()]*\)|\[[^\[\]]*\]`},
		{Name: "fold-numerals", Kind: KindNumeralNormalize, Priority: 80, Active: true},
		{Name: "strip-unit-detail", Kind: KindPatternRemoval, Priority: 75, Active: true, Pattern: `(지하\s*)?\d+\s*(층|호)`},
		{Name: "strip-special-chars", Kind: KindSpecialCharRemoval, Priority: 70, Active: true},
	}
}

// RuleFile is the on-disk rule layout.
type RuleFile struct {
	Names     []Rule `yaml:"names"`
	Addresses []Rule `yaml:"addresses"`
}

// LoadRules reads a YAML rule file. A section that is missing falls back to the
// built-in defaults.
func LoadRules(path string) (*RuleFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read rules file")
	}
	var file RuleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "unable to unmarshal rules file")
	}
	if len(file.Names) == 0 {
		file.Names = DefaultRules()
	}
	if len(file.Addresses) == 0 {
		file.Addresses = DefaultAddressRules()
	}
	return &file, nil
}
