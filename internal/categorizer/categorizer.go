// Package categorizer assigns a category, sub-category and counterparty to a
// bank transaction description using an ordered keyword rule table.
package categorizer

import (
	"context"

	"fjacquet/sci-ledger/internal/logging"
	"fjacquet/sci-ledger/internal/models"
)

// Categorizer runs its strategies in order and returns the first match.
type Categorizer struct {
	strategies []CategorizationStrategy
	logger     logging.Logger
}

// NewCategorizer creates a Categorizer whose rule table comes from store.
func NewCategorizer(store RuleStore, logger logging.Logger) *Categorizer {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return NewCategorizerWithStrategies(logger, NewKeywordStrategy(store, logger))
}

// NewCategorizerWithStrategies creates a Categorizer from explicit strategies.
func NewCategorizerWithStrategies(logger logging.Logger, strategies ...CategorizationStrategy) *Categorizer {
	return &Categorizer{
		strategies: strategies,
		logger:     logger,
	}
}

// Classify returns the classification of description, or the zero
// Classification when no strategy matches. A failing strategy is logged and
// skipped.
func (c *Categorizer) Classify(ctx context.Context, description string) models.Classification {
	for _, strategy := range c.strategies {
		result, found, err := strategy.Categorize(ctx, description)
		if err != nil {
			c.logger.WithError(err).WithField("strategy", strategy.Name()).
				Warn("Classification strategy failed")
			continue
		}
		if found {
			return result
		}
	}
	return models.Classification{}
}

// Classify applies the built-in rule table to description.
func Classify(description string) models.Classification {
	c, _, _ := NewKeywordStrategyWithRules(DefaultRules(), nil).match(description)
	return c
}
