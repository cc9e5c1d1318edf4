// Package resolver maps a bank transaction description to a tenant using an
// operator-maintained keyword roster.
package resolver

import (
	"strings"

	"fjacquet/sci-ledger/internal/logging"
	"fjacquet/sci-ledger/internal/models"
)

// KeywordSource supplies the ordered tenant keyword roster.
type KeywordSource interface {
	LoadTenantKeywords() ([]models.TenantKeyword, error)
}

// Resolver matches surname keywords against descriptions. Matching is a
// case-insensitive substring test; the first roster entry that matches wins.
type Resolver struct {
	mappings []models.TenantKeyword
	logger   logging.Logger
}

// New creates a Resolver over a fixed roster.
func New(mappings []models.TenantKeyword, logger logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	r := &Resolver{logger: logger}
	for _, m := range mappings {
		keyword := strings.ToLower(strings.TrimSpace(m.Keyword))
		if keyword == "" || m.TenantID == "" {
			continue
		}
		r.mappings = append(r.mappings, models.TenantKeyword{Keyword: keyword, TenantID: m.TenantID})
	}
	return r
}

// Load creates a Resolver from source.
func Load(source KeywordSource, logger logging.Logger) (*Resolver, error) {
	mappings, err := source.LoadTenantKeywords()
	if err != nil {
		return nil, err
	}
	return New(mappings, logger), nil
}

// Resolve returns the tenant id matched by description.
func (r *Resolver) Resolve(description string) (string, bool) {
	text := strings.ToLower(description)
	for _, m := range r.mappings {
		if strings.Contains(text, m.Keyword) {
			r.logger.WithFields(
				logging.Field{Key: logging.FieldKeyword, Value: m.Keyword},
				logging.Field{Key: logging.FieldTenant, Value: m.TenantID},
			).Debug("Tenant resolved from description")
			return m.TenantID, true
		}
	}
	return "", false
}

// ResolveDrafts sets TenantID on every draft that resolves and returns how
// many stayed unresolved.
func (r *Resolver) ResolveDrafts(drafts []models.Draft) (unresolved int) {
	for i := range drafts {
		if tenantID, ok := r.Resolve(drafts[i].Label); ok {
			drafts[i].TenantID = tenantID
			continue
		}
		unresolved++
	}
	return unresolved
}

// Len returns the number of active mappings.
func (r *Resolver) Len() int {
	return len(r.mappings)
}
