// Package ventilation splits one bank credit, typically a housing subsidy
// paid for several tenants at once, across tenant ledgers.
//
// A Session holds the operator's scratch edits per movement. Nothing is
// written until Validate succeeds, and then everything is written in one
// transaction.
package ventilation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"fjacquet/sci-ledger/internal/apperrors"
	"fjacquet/sci-ledger/internal/logging"
	"fjacquet/sci-ledger/internal/models"
	"fjacquet/sci-ledger/internal/repository"

	"github.com/shopspring/decimal"
)

// State of a movement with respect to ventilation.
type State string

// Ventilation states
const (
	StateUnventilated State = "unventilated"
	StateEditing      State = "editing"
	StateVentilated   State = "ventilated"
)

// Defaults applied by NewSession when Config leaves them empty.
const (
	DefaultMarker      = "caf"
	DefaultDescription = "Part CAF ventilée"
)

// ErrNotEditing is returned by draft operations on a movement that was not
// opened in this session.
var ErrNotEditing = errors.New("movement is not being ventilated")

// ErrRowIndex is returned for an out of range row index.
var ErrRowIndex = errors.New("no such ventilation row")

// Row is one candidate share. An absent amount is a row the operator has not
// filled in yet.
type Row struct {
	TenantID string
	Amount   decimal.NullDecimal
}

// Draft is the editable split of one movement.
type Draft struct {
	MovementID string
	Date       string
	Label      string
	Credit     decimal.NullDecimal
	Rows       []Row
}

// Total sums the rows that carry an amount.
func (d Draft) Total() decimal.Decimal {
	total := decimal.Zero
	for _, r := range d.Rows {
		if r.Amount.Valid {
			total = total.Add(r.Amount.Decimal)
		}
	}
	return total
}

func (d Draft) clone() Draft {
	d.Rows = append([]Row(nil), d.Rows...)
	return d
}

// Config tunes subsidy detection and the description of posted shares.
type Config struct {
	Markers     []string
	Description string
}

// Session is the per-operator ventilation editor.
type Session struct {
	repo        *repository.Repository
	markers     []string
	description string
	logger      logging.Logger

	mu     sync.Mutex
	drafts map[string]*Draft
}

// NewSession creates an editor bound to repo.
func NewSession(repo *repository.Repository, cfg Config, logger logging.Logger) *Session {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	s := &Session{
		repo:        repo,
		description: cfg.Description,
		logger:      logger,
		drafts:      map[string]*Draft{},
	}
	for _, m := range cfg.Markers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			s.markers = append(s.markers, m)
		}
	}
	if len(s.markers) == 0 {
		s.markers = []string{DefaultMarker}
	}
	if s.description == "" {
		s.description = DefaultDescription
	}
	return s
}

// IsSubsidy reports whether label names a known subsidy payer. It is a hint
// for the operator; any credited movement can be ventilated.
func (s *Session) IsSubsidy(label string) bool {
	text := strings.ToLower(label)
	for _, m := range s.markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// Open starts editing a movement, pre-filled with the shares already
// persisted for it. Reopening discards unsaved edits.
func (s *Session) Open(ctx context.Context, movementID string) (Draft, error) {
	m, err := s.repo.GetMovement(ctx, movementID)
	if err != nil {
		return Draft{}, err
	}
	entries, err := s.repo.ListEntries(ctx, repository.EntryFilter{MovementID: movementID, Type: models.EntryPayment})
	if err != nil {
		return Draft{}, err
	}

	d := &Draft{MovementID: m.ID, Date: m.Date, Label: m.Label, Credit: m.Credit}
	for _, e := range entries {
		d.Rows = append(d.Rows, Row{TenantID: e.TenantID, Amount: decimal.NewNullDecimal(e.Credit)})
	}

	s.mu.Lock()
	s.drafts[movementID] = d
	s.mu.Unlock()

	s.logger.Debug("Ventilation opened",
		logging.F(logging.FieldMovement, movementID),
		logging.F(logging.FieldCount, len(d.Rows)))
	return d.clone(), nil
}

// Draft returns a copy of the current draft.
func (s *Session) Draft(movementID string) (Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[movementID]
	if !ok {
		return Draft{}, false
	}
	return d.clone(), true
}

func (s *Session) edit(movementID string, fn func(d *Draft) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[movementID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotEditing, movementID)
	}
	return fn(d)
}

// AddRow appends a share to the draft.
func (s *Session) AddRow(movementID, tenantID string, amount decimal.NullDecimal) error {
	return s.edit(movementID, func(d *Draft) error {
		d.Rows = append(d.Rows, Row{TenantID: strings.TrimSpace(tenantID), Amount: amount})
		return nil
	})
}

// SetRow replaces the share at index.
func (s *Session) SetRow(movementID string, index int, tenantID string, amount decimal.NullDecimal) error {
	return s.edit(movementID, func(d *Draft) error {
		if index < 0 || index >= len(d.Rows) {
			return fmt.Errorf("%w: %d", ErrRowIndex, index)
		}
		d.Rows[index] = Row{TenantID: strings.TrimSpace(tenantID), Amount: amount}
		return nil
	})
}

// RemoveRow drops the share at index.
func (s *Session) RemoveRow(movementID string, index int) error {
	return s.edit(movementID, func(d *Draft) error {
		if index < 0 || index >= len(d.Rows) {
			return fmt.Errorf("%w: %d", ErrRowIndex, index)
		}
		d.Rows = append(d.Rows[:index], d.Rows[index+1:]...)
		return nil
	})
}

// Cancel discards the draft.
func (s *Session) Cancel(movementID string) {
	s.mu.Lock()
	delete(s.drafts, movementID)
	s.mu.Unlock()
}

// State reports where a movement stands.
func (s *Session) State(ctx context.Context, movementID string) (State, error) {
	s.mu.Lock()
	_, editing := s.drafts[movementID]
	s.mu.Unlock()
	if editing {
		return StateEditing, nil
	}

	m, err := s.repo.GetMovement(ctx, movementID)
	if err != nil {
		return "", err
	}
	if m.Reconciled {
		return StateVentilated, nil
	}
	entries, err := s.repo.ListEntries(ctx, repository.EntryFilter{MovementID: movementID, Type: models.EntryPayment})
	if err != nil {
		return "", err
	}
	if len(entries) > 0 {
		return StateVentilated, nil
	}
	return StateUnventilated, nil
}

// Check evaluates the open draft without writing anything. It returns nil
// when Validate would accept it, or the *apperrors.ValidationError it would
// reject it with.
func (s *Session) Check(ctx context.Context, movementID string) error {
	d, ok := s.Draft(movementID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotEditing, movementID)
	}
	m, err := s.repo.GetMovement(ctx, movementID)
	if err != nil {
		return err
	}
	_, _, verr, err := s.check(ctx, s.repo, m, d)
	if err != nil {
		return err
	}
	if verr != nil {
		return verr
	}
	return nil
}

// Validate checks the draft and, when every precondition holds, persists the
// shares, drops shares of tenants no longer in the draft and marks the
// movement reconciled, all in one transaction. A rejected draft is returned
// as *apperrors.ValidationError and stays open for correction.
func (s *Session) Validate(ctx context.Context, movementID string) error {
	d, ok := s.Draft(movementID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotEditing, movementID)
	}

	var written int
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		m, err := tx.GetMovement(ctx, movementID)
		if err != nil {
			return err
		}

		shares, properties, verr, err := s.check(ctx, tx, m, d)
		if err != nil {
			return err
		}
		if verr != nil {
			return verr
		}

		tenants := make([]string, 0, len(shares))
		for tenantID := range shares {
			tenants = append(tenants, tenantID)
		}
		sort.Strings(tenants)

		for _, tenantID := range tenants {
			entry := &models.LedgerEntry{
				TenantID:    tenantID,
				PropertyID:  properties[tenantID],
				EntryDate:   m.Date,
				Type:        models.EntryPayment,
				Debit:       decimal.Zero,
				Credit:      shares[tenantID],
				MovementID:  models.StringPtr(m.ID),
				Description: s.description,
			}
			if err := tx.UpsertEntry(ctx, entry); err != nil {
				return err
			}
			written++
		}
		if _, err := tx.DeleteMovementEntries(ctx, m.ID, tenants); err != nil {
			return err
		}
		return tx.MarkReconciled(ctx, m.ID)
	})
	if err != nil {
		var verr *apperrors.ValidationError
		if errors.As(err, &verr) {
			s.logger.Warn("Ventilation rejected",
				logging.F(logging.FieldMovement, movementID),
				logging.F(logging.FieldReason, strings.Join(verr.Problems(), "; ")))
		}
		return err
	}

	s.Cancel(movementID)
	s.logger.Info("Movement ventilated",
		logging.F(logging.FieldMovement, movementID),
		logging.F(logging.FieldCount, written))
	return nil
}

// check evaluates the preconditions against the current movement. It returns
// the shares aggregated per tenant and each tenant's property, or the
// collected violations.
func (s *Session) check(ctx context.Context, tx *repository.Repository, m *models.BankTransaction, d Draft) (map[string]decimal.Decimal, map[string]string, *apperrors.ValidationError, error) {
	verr := &apperrors.ValidationError{MovementID: m.ID}
	if !m.Credit.Valid {
		verr.MissingCredit = true
	}
	if len(d.Rows) == 0 {
		verr.NoRows = true
	}

	shares := map[string]decimal.Decimal{}
	properties := map[string]string{}
	total := decimal.Zero
	for i, row := range d.Rows {
		if row.Amount.Valid {
			total = total.Add(row.Amount.Decimal)
		}
		if row.TenantID == "" || !row.Amount.Valid {
			verr.IncompleteRows = append(verr.IncompleteRows, i)
			continue
		}
		shares[row.TenantID] = shares[row.TenantID].Add(row.Amount.Decimal)
	}

	if m.Credit.Valid && !total.Equal(m.Credit.Decimal) {
		verr.Mismatch = &apperrors.TotalMismatch{Ventilated: total, Credit: m.Credit.Decimal}
	}

	for _, row := range d.Rows {
		if row.TenantID == "" {
			continue
		}
		if _, seen := properties[row.TenantID]; seen {
			continue
		}
		propertyID, err := tx.TenantProperty(ctx, row.TenantID)
		if err != nil {
			var miss *apperrors.LookupMiss
			if !errors.As(err, &miss) {
				return nil, nil, nil, err
			}
			properties[row.TenantID] = ""
			if miss.Kind == repository.KindTenant {
				verr.UnknownTenants = append(verr.UnknownTenants, row.TenantID)
			} else {
				verr.MissingProperty = append(verr.MissingProperty, row.TenantID)
			}
			continue
		}
		properties[row.TenantID] = propertyID
	}

	if verr.HasProblems() {
		return nil, nil, verr, nil
	}
	return shares, properties, nil, nil
}
