package categorizer

import (
	"context"

	"fjacquet/sci-ledger/internal/models"
)

// CategorizationStrategy defines a method for classifying transaction
// descriptions. Strategies are consulted in order and the first one that
// reports a match wins.
type CategorizationStrategy interface {
	// Categorize returns the classification and whether the strategy matched.
	Categorize(ctx context.Context, description string) (models.Classification, bool, error)

	// Name returns the name of this strategy for logging and debugging purposes.
	Name() string
}
