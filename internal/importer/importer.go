// Package importer runs a bank statement through parsing, tenant resolution,
// deduplicated persistence and ledger posting.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"fjacquet/sci-ledger/internal/auth"
	"fjacquet/sci-ledger/internal/dateutils"
	"fjacquet/sci-ledger/internal/fingerprint"
	"fjacquet/sci-ledger/internal/ledger"
	"fjacquet/sci-ledger/internal/logging"
	"fjacquet/sci-ledger/internal/models"
	"fjacquet/sci-ledger/internal/repository"
	"fjacquet/sci-ledger/internal/resolver"
	"fjacquet/sci-ledger/internal/statement"

	"github.com/shopspring/decimal"
)

// Report summarizes one import.
type Report struct {
	Parsed     int
	Inserted   int
	Duplicates int
	Posted     int
	Unresolved int
	Warnings   []error
}

// ManualMovement is a bank movement typed in by the user rather than read
// from a statement.
type ManualMovement struct {
	Date           string
	Label          string
	Debit          decimal.NullDecimal
	Credit         decimal.NullDecimal
	Classification models.Classification
	TenantID       string
}

// Importer wires the import pipeline.
type Importer struct {
	repo       *repository.Repository
	parser     *statement.Parser
	resolver   *resolver.Resolver
	classifier statement.Classifier
	poster     *ledger.Poster
	logger     logging.Logger
}

// New creates an Importer. The classifier is used for manual movements that
// come without a category.
func New(repo *repository.Repository, parser *statement.Parser, res *resolver.Resolver,
	classifier statement.Classifier, logger logging.Logger) *Importer {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if res == nil {
		res = resolver.New(nil, logger)
	}
	return &Importer{
		repo:       repo,
		parser:     parser,
		resolver:   res,
		classifier: classifier,
		poster:     ledger.NewPoster(logger),
		logger:     logger,
	}
}

// Import parses r and stores its movements for the signed-in user. Movements
// already known by fingerprint are counted as duplicates and not posted
// again. All writes happen in one transaction.
func (imp *Importer) Import(ctx context.Context, session *auth.Session, r io.Reader) (*Report, error) {
	if err := auth.RequireUser(session); err != nil {
		return nil, err
	}
	start := time.Now()

	result, err := imp.parser.Parse(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse statement: %w", err)
	}

	report := &Report{Parsed: len(result.Drafts), Warnings: result.Warnings}
	drafts, dupes := fingerprint.Apply(result.Drafts)
	report.Duplicates = dupes
	report.Unresolved = imp.resolver.ResolveDrafts(drafts)

	err = imp.repo.WithTx(ctx, func(tx *repository.Repository) error {
		inserted, err := imp.insert(ctx, tx, session.UserID, drafts, report)
		if err != nil {
			return err
		}
		posted, err := imp.poster.PostMovements(ctx, tx, inserted)
		if err != nil {
			return err
		}
		report.Posted = posted.Posted
		report.Warnings = append(report.Warnings, posted.Warnings...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store statement: %w", err)
	}

	imp.logger.WithFields(
		logging.Field{Key: logging.FieldUser, Value: session.UserID},
		logging.Field{Key: logging.FieldCount, Value: report.Inserted},
		logging.Field{Key: logging.FieldDuration, Value: time.Since(start).Milliseconds()},
	).Info("Statement imported",
		logging.F("duplicates", report.Duplicates),
		logging.F("posted", report.Posted),
		logging.F("unresolved", report.Unresolved))
	return report, nil
}

func (imp *Importer) insert(ctx context.Context, tx *repository.Repository, userID string,
	drafts []models.Draft, report *Report) ([]models.BankTransaction, error) {
	inserted := make([]models.BankTransaction, 0, len(drafts))
	for _, d := range drafts {
		m := d.ToTransaction(userID)
		ok, err := tx.InsertMovement(ctx, &m)
		if err != nil {
			return nil, err
		}
		if !ok {
			report.Duplicates++
			imp.logger.Debug("Movement already imported",
				logging.F(logging.FieldFingerprint, d.Fingerprint),
				logging.F(logging.FieldLine, d.Line))
			continue
		}
		report.Inserted++
		inserted = append(inserted, m)
	}
	return inserted, nil
}

// AddManual stores one manually entered movement and posts it when its
// tenant is known. It returns the stored movement, or nil when an identical
// movement already exists.
func (imp *Importer) AddManual(ctx context.Context, session *auth.Session, in ManualMovement) (*models.BankTransaction, error) {
	if err := auth.RequireUser(session); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	d := models.Draft{
		Date:           in.Date,
		Label:          strings.TrimSpace(in.Label),
		Debit:          in.Debit,
		Credit:         in.Credit,
		Classification: in.Classification,
		Source:         models.SourceManual,
		TenantID:       strings.TrimSpace(in.TenantID),
	}
	d.SignAmounts()
	if d.Classification.IsZero() && imp.classifier != nil {
		d.Classification = imp.classifier.Classify(ctx, d.Label)
	}
	if d.TenantID == "" {
		d.TenantID, _ = imp.resolver.Resolve(d.Label)
	}
	d.Fingerprint = fingerprint.Of(d)

	var stored *models.BankTransaction
	err := imp.repo.WithTx(ctx, func(tx *repository.Repository) error {
		m := d.ToTransaction(session.UserID)
		ok, err := tx.InsertMovement(ctx, &m)
		if err != nil || !ok {
			return err
		}
		stored = &m
		_, err = imp.poster.PostMovements(ctx, tx, []models.BankTransaction{m})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store manual movement: %w", err)
	}
	if stored == nil {
		imp.logger.Warn("Manual movement already exists",
			logging.F(logging.FieldFingerprint, d.Fingerprint))
		return nil, nil
	}

	imp.logger.Info("Manual movement added",
		logging.F(logging.FieldMovement, stored.ID),
		logging.F(logging.FieldUser, session.UserID))
	return stored, nil
}

func (in ManualMovement) validate() error {
	var problems []string
	if _, err := dateutils.ParseISODate(in.Date); err != nil {
		problems = append(problems, fmt.Sprintf("date %q is not YYYY-MM-DD", in.Date))
	}
	if strings.TrimSpace(in.Label) == "" {
		problems = append(problems, "label is required")
	}
	if !in.Debit.Valid && !in.Credit.Valid {
		problems = append(problems, "a debit or a credit amount is required")
	}
	if len(problems) > 0 {
		return errors.New("invalid manual movement: " + strings.Join(problems, "; "))
	}
	return nil
}
