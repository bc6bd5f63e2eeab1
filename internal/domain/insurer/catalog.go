package insurer

import (
	"fmt"
	"regexp"
	"strings"
)

// Template describes what a genuine certificate from a known insurer looks
// like: the shape of its policy numbers and the elements the document is
// expected to carry.
type Template struct {
	Name             string         `json:"name" koanf:"name"`
	PolicyPattern    string         `json:"policy_pattern" koanf:"policy_pattern"`
	ExpectedElements []string       `json:"expected_elements" koanf:"expected_elements"`
	pattern          *regexp.Regexp `json:"-" koanf:"-"`
}

// MatchesPolicyNumber reports whether the policy number fits the insurer's
// known format
func (t *Template) MatchesPolicyNumber(policyNumber string) bool {
	if t.pattern == nil {
		return true
	}
	return t.pattern.MatchString(strings.TrimSpace(policyNumber))
}

// Catalog is an immutable lookup table of insurer templates. It is built once
// and injected into the fraud analyzer; it must never be mutated afterwards.
type Catalog struct {
	templates []Template
}

// NewCatalog builds a catalog, compiling each template's policy pattern
func NewCatalog(templates []Template) (*Catalog, error) {
	compiled := make([]Template, len(templates))
	for i, t := range templates {
		if strings.TrimSpace(t.Name) == "" {
			return nil, fmt.Errorf("template %d: insurer name cannot be empty", i)
		}
		if t.PolicyPattern != "" {
			re, err := regexp.Compile(t.PolicyPattern)
			if err != nil {
				return nil, fmt.Errorf("template %q: invalid policy pattern: %w", t.Name, err)
			}
			t.pattern = re
		}
		compiled[i] = t
	}
	return &Catalog{templates: compiled}, nil
}

// MustNewCatalog builds a catalog and panics on error (for defaults/tests)
func MustNewCatalog(templates []Template) *Catalog {
	c, err := NewCatalog(templates)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup finds the template for a declared insurer name. Matching is
// case-insensitive and bidirectional on substrings, so "QBE Insurance
// (Australia) Limited" matches the "QBE" template and vice versa.
func (c *Catalog) Lookup(insurerName string) (*Template, bool) {
	name := strings.ToLower(strings.TrimSpace(insurerName))
	if name == "" {
		return nil, false
	}

	for i := range c.templates {
		known := strings.ToLower(c.templates[i].Name)
		if strings.Contains(name, known) || strings.Contains(known, name) {
			return &c.templates[i], true
		}
	}
	return nil, false
}

// Size returns the number of templates in the catalog
func (c *Catalog) Size() int {
	return len(c.templates)
}

// Standard certificate elements the known insurers print on a Certificate of
// Currency. Keys line up with fields of the extraction payload.
const (
	ElementPolicyNumber      = "policy_number"
	ElementPeriodOfInsurance = "period_of_insurance"
	ElementInsuredName       = "insured_name"
	ElementInsuredABN        = "insured_abn"
	ElementCoverageTable     = "coverage_table"
	ElementBrokerDetails     = "broker_details"
)

var standardElements = []string{
	ElementPolicyNumber,
	ElementPeriodOfInsurance,
	ElementInsuredName,
	ElementInsuredABN,
	ElementCoverageTable,
}

// DefaultCatalog returns the built-in table of known Australian insurers
func DefaultCatalog() *Catalog {
	return MustNewCatalog([]Template{
		{
			Name:             "QBE",
			PolicyPattern:    `^(?i)[A-Z]{2,3}\d{7,9}$`,
			ExpectedElements: standardElements,
		},
		{
			Name:             "Allianz",
			PolicyPattern:    `^(?i)[A-Z]{3}\d{7}[A-Z]{3}$`,
			ExpectedElements: standardElements,
		},
		{
			Name:             "CGU",
			PolicyPattern:    `^\d{2}[A-Z]{3}\d{7}$`,
			ExpectedElements: standardElements,
		},
		{
			Name:             "Zurich",
			PolicyPattern:    `^(?i)ZU\d{8}$`,
			ExpectedElements: standardElements,
		},
		{
			Name:             "Vero",
			PolicyPattern:    `^(?i)[A-Z]{3}\d{9}$`,
			ExpectedElements: standardElements,
		},
		{
			Name:             "icare",
			PolicyPattern:    `^\d{9}$`,
			ExpectedElements: append(append([]string{}, standardElements...), ElementBrokerDetails),
		},
		{
			Name:             "Lloyd's",
			PolicyPattern:    `^(?i)B\d{4}[A-Z0-9]{6,10}$`,
			ExpectedElements: standardElements,
		},
	})
}
