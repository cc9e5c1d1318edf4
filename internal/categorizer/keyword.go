package categorizer

import (
	"context"
	"strings"
	"sync"

	"fjacquet/sci-ledger/internal/logging"
	"fjacquet/sci-ledger/internal/models"
)

// KeywordStrategy classifies by case-insensitive substring match of rule
// keywords against the description. Rules are walked in order; within a rule
// any keyword matches.
type KeywordStrategy struct {
	rules  []models.RuleConfig
	store  RuleStore
	logger logging.Logger
	mu     sync.RWMutex
}

// NewKeywordStrategy creates a KeywordStrategy backed by store. When the store
// is nil, fails, or holds no rules, the built-in table is used.
func NewKeywordStrategy(store RuleStore, logger logging.Logger) *KeywordStrategy {
	strategy := &KeywordStrategy{
		store:  store,
		logger: logger,
	}
	strategy.loadRules()
	return strategy
}

// NewKeywordStrategyWithRules creates a KeywordStrategy over a fixed table.
func NewKeywordStrategyWithRules(rules []models.RuleConfig, logger logging.Logger) *KeywordStrategy {
	return &KeywordStrategy{
		rules:  lowerRules(rules),
		logger: logger,
	}
}

// Name returns the name of this strategy for logging and debugging.
func (s *KeywordStrategy) Name() string {
	return "Keyword"
}

// Categorize implements CategorizationStrategy.
func (s *KeywordStrategy) Categorize(_ context.Context, description string) (models.Classification, bool, error) {
	c, keyword, ok := s.match(description)
	if !ok {
		return models.Classification{}, false, nil
	}

	s.logger.WithFields(
		logging.Field{Key: "strategy", Value: s.Name()},
		logging.Field{Key: logging.FieldKeyword, Value: keyword},
		logging.Field{Key: logging.FieldCategory, Value: c.Category},
	).Debug("Description classified by keyword")
	return c, true, nil
}

func (s *KeywordStrategy) match(description string) (models.Classification, string, bool) {
	text := strings.ToLower(description)
	if strings.TrimSpace(text) == "" {
		return models.Classification{}, "", false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rule := range s.rules {
		for _, keyword := range rule.Keywords {
			if keyword != "" && strings.Contains(text, keyword) {
				return rule.Classification, keyword, true
			}
		}
	}
	return models.Classification{}, "", false
}

// loadRules loads the rule table from the store.
func (s *KeywordStrategy) loadRules() {
	rules := DefaultRules()
	if s.store != nil {
		loaded, err := s.store.LoadRules()
		switch {
		case err != nil:
			s.logger.WithError(err).Warn("Failed to load classification rules, using built-in table")
		case len(loaded) > 0:
			rules = loaded
		}
	}

	s.mu.Lock()
	s.rules = lowerRules(rules)
	s.mu.Unlock()
	s.logger.WithField(logging.FieldCount, len(rules)).Debug("Loaded rules for KeywordStrategy")
}

// ReloadRules reloads the rules from the store.
// This can be called when the underlying YAML file has been updated.
func (s *KeywordStrategy) ReloadRules() {
	s.loadRules()
}

func lowerRules(rules []models.RuleConfig) []models.RuleConfig {
	out := make([]models.RuleConfig, len(rules))
	for i, rule := range rules {
		out[i] = rule
		out[i].Keywords = make([]string, 0, len(rule.Keywords))
		for _, keyword := range rule.Keywords {
			out[i].Keywords = append(out[i].Keywords, strings.ToLower(strings.TrimSpace(keyword)))
		}
	}
	return out
}
