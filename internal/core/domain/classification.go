package domain

import "strings"

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ClassificationRule maps a keyword found in extracted text to a category label.
// Rules live in an ordered table; the first match wins.
type ClassificationRule struct {
	Keyword       string `json:"keyword" yaml:"keyword"`
	CategoryLabel string `json:"category" yaml:"category"`
}

// ClassificationOutcome carries the resolved category id, if any.
// CategoryID is nil both when no rule matched and when the matched label has no
// stored category; Unresolved tells the two apart for diagnostics only.
type ClassificationOutcome struct {
	CategoryID  *int64              `json:"category_id,omitempty"`
	MatchedRule *ClassificationRule `json:"matched_rule,omitempty"`
	Unresolved  bool                `json:"unresolved,omitempty"`
}

func DefaultRules() []ClassificationRule {
	return NormalizeRules([]ClassificationRule{
		{Keyword: "invoice", CategoryLabel: "Invoice"},
		{Keyword: "amount due", CategoryLabel: "Invoice"},
		{Keyword: "total", CategoryLabel: "Invoice"},
		{Keyword: "receipt", CategoryLabel: "Receipt"},
		{Keyword: "paid", CategoryLabel: "Receipt"},
		{Keyword: "purchase", CategoryLabel: "Receipt"},
		{Keyword: "passport", CategoryLabel: "ID"},
		{Keyword: "driver", CategoryLabel: "ID"},
		{Keyword: "license", CategoryLabel: "ID"},
		{Keyword: "application", CategoryLabel: "Form"},
		{Keyword: "form", CategoryLabel: "Form"},
		{Keyword: "registration", CategoryLabel: "Form"},
		{Keyword: "dear", CategoryLabel: "Letter"},
		{Keyword: "sincerely", CategoryLabel: "Letter"},
		{Keyword: "regards", CategoryLabel: "Letter"},
		{Keyword: "Transcript", CategoryLabel: "Results"},
	})
}

// DefaultCategories is the seed set for a fresh category store.
func DefaultCategories() []Category {
	return []Category{
		{ID: 1, Name: "Invoice"},
		{ID: 2, Name: "Receipt"},
		{ID: 3, Name: "ID"},
		{ID: 4, Name: "Letter"},
		{ID: 5, Name: "Form"},
	}
}

// NormalizeRules lowercases keywords and drops rules whose keyword or label is
// blank. Surrounding spaces in a keyword are kept: " form " must not match
// "informal". Order is preserved and duplicates are kept.
func NormalizeRules(rules []ClassificationRule) []ClassificationRule {
	out := make([]ClassificationRule, 0, len(rules))
	for _, r := range rules {
		label := strings.TrimSpace(r.CategoryLabel)
		if strings.TrimSpace(r.Keyword) == "" || label == "" {
			continue
		}
		out = append(out, ClassificationRule{Keyword: strings.ToLower(r.Keyword), CategoryLabel: label})
	}
	return out
}
