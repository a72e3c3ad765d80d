package metrics

import "strings"

// Classifier flags a line item from its free-text description. Keyword sets
// are data-dependent, so every metric that scans text takes its classifier
// from the rule set instead of hardcoding substrings.
type Classifier func(text string) bool

func KeywordClassifier(keywords ...string) Classifier {
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			lowered = append(lowered, kw)
		}
	}
	return func(text string) bool {
		text = strings.ToLower(text)
		for _, kw := range lowered {
			if strings.Contains(text, kw) {
				return true
			}
		}
		return false
	}
}

// Rules carries the configurable thresholds and classifiers the calculators
// consume. Department scopes the unique-job denominator; empty means all.
type Rules struct {
	Department string

	InstallRevenueFloor float64
	DiagnosticFeeCap    float64

	IsJetting    Classifier
	IsDescaling  Classifier
	IsCallback   Classifier
	IsComplaint  Classifier
	IsMembership Classifier
	IsRenewal    Classifier
}

func DefaultRules() Rules {
	return Rules{
		Department:          "Drain Cleaning",
		InstallRevenueFloor: 10000,
		DiagnosticFeeCap:    150,
		IsJetting:           KeywordClassifier("jet"),
		IsDescaling:         KeywordClassifier("desc"),
		IsCallback:          KeywordClassifier("callback", "return", "yes"),
		IsComplaint:         KeywordClassifier("complaint", "issue", "yes"),
		IsMembership:        KeywordClassifier("member", "membership", "plan"),
		IsRenewal:           KeywordClassifier("renew"),
	}
}

func (r Rules) matchDepartment(value string) bool {
	if strings.TrimSpace(r.Department) == "" {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(value), strings.TrimSpace(r.Department))
}
