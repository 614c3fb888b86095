package cleaner

import (
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Rule identifies which suppression rule matched a row or column.
type Rule int

const (
	RuleNone Rule = iota
	RuleLabel
	RulePhone
	RulePostal
	RuleAddress
)

func (r Rule) String() string {
	switch r {
	case RuleLabel:
		return "label"
	case RulePhone:
		return "phone"
	case RulePostal:
		return "postal"
	case RuleAddress:
		return "address"
	default:
		return "none"
	}
}

// Rules is the classifier configuration. Labels and AddressTokens are
// literal substrings; Phone and Postal are regular expressions searched
// anywhere in the joined text.
type Rules struct {
	Labels        []string
	Phone         string
	Postal        string
	AddressTokens []string
}

// DefaultRules flags contact and registration-number labels, Japanese
// phone and postal formats, and address administrative-unit tokens.
// \p{Nd} accepts full-width digits as well as ASCII ones.
func DefaultRules() Rules {
	return Rules{
		Labels: []string{"連絡先", "登録番号"},
		Phone:  `\p{Nd}{2,4}-\p{Nd}{2,4}-\p{Nd}{4}`,
		Postal: `〒?\p{Nd}{3}-\p{Nd}{4}`,
		AddressTokens: []string{
			"都", "道", "府", "県", "市", "区", "町", "丁目", "番地",
		},
	}
}

// Classifier decides whether a sequence of cell values carries sensitive
// content. It is immutable and safe for concurrent use.
type Classifier struct {
	labels  *ahocorasick.Matcher
	phone   *regexp.Regexp
	postal  *regexp.Regexp
	address *ahocorasick.Matcher
}

// NewClassifier compiles rules. Invalid patterns are reported as errors.
func NewClassifier(rules Rules) (*Classifier, error) {
	c := &Classifier{
		labels:  newMatcher(rules.Labels),
		address: newMatcher(rules.AddressTokens),
	}
	var err error
	if rules.Phone != "" {
		if c.phone, err = regexp.Compile(rules.Phone); err != nil {
			return nil, err
		}
	}
	if rules.Postal != "" {
		if c.postal, err = regexp.Compile(rules.Postal); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustClassifier is NewClassifier for rule sets known to be valid.
func MustClassifier(rules Rules) *Classifier {
	c, err := NewClassifier(rules)
	if err != nil {
		panic(err)
	}
	return c
}

func newMatcher(words []string) *ahocorasick.Matcher {
	var dict []string
	for _, w := range words {
		if w != "" {
			dict = append(dict, w)
		}
	}
	if len(dict) == 0 {
		return nil
	}
	return ahocorasick.NewStringMatcher(dict)
}

// Match joins values with single spaces and tests the rules in order:
// label, phone, postal, address. It returns the first rule that hits.
func (c *Classifier) Match(values []string) (Rule, bool) {
	text := strings.Join(values, " ")
	b := []byte(text)
	switch {
	case c.labels != nil && len(c.labels.MatchThreadSafe(b)) > 0:
		return RuleLabel, true
	case c.phone != nil && c.phone.MatchString(text):
		return RulePhone, true
	case c.postal != nil && c.postal.MatchString(text):
		return RulePostal, true
	case c.address != nil && len(c.address.MatchThreadSafe(b)) > 0:
		return RuleAddress, true
	}
	return RuleNone, false
}

// Suppress reports whether values should be removed from the output.
func (c *Classifier) Suppress(values []string) bool {
	_, hit := c.Match(values)
	return hit
}
