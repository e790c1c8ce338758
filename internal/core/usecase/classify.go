package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kirillkom/docsort/internal/core/domain"
	"github.com/kirillkom/docsort/internal/core/ports"
)

// ClassifyUseCase scans an ordered keyword table and resolves the first
// matching label against the category store. The scan is linear in the number
// of rules times the text length.
type ClassifyUseCase struct {
	rules      []domain.ClassificationRule
	categories ports.CategoryStore
	observer   ports.ExtractionObserver
}

func NewClassifyUseCase(
	rules []domain.ClassificationRule,
	categories ports.CategoryStore,
	observer ports.ExtractionObserver,
) *ClassifyUseCase {
	if rules == nil {
		rules = domain.DefaultRules()
	}
	return &ClassifyUseCase{
		rules:      domain.NormalizeRules(rules),
		categories: categories,
		observer:   observer,
	}
}

func (uc *ClassifyUseCase) Classify(ctx context.Context, text string) (domain.ClassificationOutcome, error) {
	if strings.TrimSpace(text) == "" {
		return domain.ClassificationOutcome{}, nil
	}

	rule, ok := uc.firstMatch(strings.ToLower(text))
	if !ok {
		uc.observe(domain.ClassificationOutcome{})
		return domain.ClassificationOutcome{}, nil
	}

	category, err := uc.categories.FindByName(ctx, rule.CategoryLabel)
	if err != nil {
		if domain.IsKind(err, domain.ErrCategoryNotFound) {
			slog.Warn("classification_unresolved", "keyword", rule.Keyword, "label", rule.CategoryLabel)
			outcome := domain.ClassificationOutcome{MatchedRule: &rule, Unresolved: true}
			uc.observe(outcome)
			return outcome, nil
		}
		if domain.IsKind(err, domain.ErrTemporary) {
			return domain.ClassificationOutcome{}, err
		}
		return domain.ClassificationOutcome{}, domain.WrapError(domain.ErrTemporary, "resolve category", err)
	}

	id := category.ID
	outcome := domain.ClassificationOutcome{CategoryID: &id, MatchedRule: &rule}
	uc.observe(outcome)
	return outcome, nil
}

// Rules returns a copy of the rule table in evaluation order.
func (uc *ClassifyUseCase) Rules() []domain.ClassificationRule {
	out := make([]domain.ClassificationRule, len(uc.rules))
	copy(out, uc.rules)
	return out
}

func (uc *ClassifyUseCase) firstMatch(lowered string) (domain.ClassificationRule, bool) {
	for _, rule := range uc.rules {
		if strings.Contains(lowered, rule.Keyword) {
			return rule, true
		}
	}
	return domain.ClassificationRule{}, false
}

func (uc *ClassifyUseCase) observe(outcome domain.ClassificationOutcome) {
	if uc.observer != nil {
		uc.observer.ObserveClassification(outcome)
	}
}
