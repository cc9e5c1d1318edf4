// Package invoices records supplier invoices together with their scanned
// documents and links them to the bank movements that paid them.
package invoices

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"fjacquet/sci-ledger/internal/blob"
	"fjacquet/sci-ledger/internal/dateutils"
	"fjacquet/sci-ledger/internal/logging"
	"fjacquet/sci-ledger/internal/models"
	"fjacquet/sci-ledger/internal/repository"

	"github.com/shopspring/decimal"
)

// Attachment describes an invoice to record.
type Attachment struct {
	Number     string
	Supplier   string
	DueDate    string
	Amount     decimal.Decimal
	PropertyID string
	MovementID string
	FileName   string
	Content    io.Reader
}

// Service ties the invoice tables to the blob store.
type Service struct {
	repo   *repository.Repository
	blobs  *blob.Store
	logger logging.Logger
}

// NewService creates a Service.
func NewService(repo *repository.Repository, blobs *blob.Store, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Service{repo: repo, blobs: blobs, logger: logger}
}

// Attach stores the invoice, its document and the optional movement link in
// one transaction. The stored file is removed again if the transaction fails.
func (s *Service) Attach(ctx context.Context, a Attachment) (*models.Invoice, *models.Document, error) {
	if strings.TrimSpace(a.Number) == "" {
		return nil, nil, errors.New("invoice number is required")
	}
	if a.DueDate != "" {
		if _, err := dateutils.ParseISODate(a.DueDate); err != nil {
			return nil, nil, err
		}
	}

	inv := &models.Invoice{
		Number:     strings.TrimSpace(a.Number),
		Supplier:   a.Supplier,
		DueDate:    a.DueDate,
		Amount:     a.Amount,
		PropertyID: models.StringPtr(a.PropertyID),
	}
	var doc *models.Document
	var stored string

	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if err := tx.CreateInvoice(ctx, inv); err != nil {
			return err
		}
		if a.Content != nil {
			name := filepath.Base(a.FileName)
			if name == "." || name == string(filepath.Separator) || name == "" {
				name = inv.Number
			}
			key := path.Join("invoices", inv.ID, name)
			size, err := s.blobs.Put(key, a.Content)
			if err != nil {
				return err
			}
			stored = key

			doc = &models.Document{
				Name:        name,
				Path:        key,
				ContentType: mime.TypeByExtension(path.Ext(name)),
				Size:        size,
				InvoiceID:   models.StringPtr(inv.ID),
			}
			if err := tx.CreateDocument(ctx, doc); err != nil {
				return err
			}
		}
		if a.MovementID != "" {
			return tx.AttachInvoice(ctx, a.MovementID, inv.ID)
		}
		return nil
	})
	if err != nil {
		if stored != "" {
			if rmErr := s.blobs.Remove(stored); rmErr != nil {
				s.logger.WithError(rmErr).Warn("Failed to remove orphan document", logging.F(logging.FieldFile, stored))
			}
		}
		return nil, nil, fmt.Errorf("failed to attach invoice: %w", err)
	}

	s.logger.Info("Invoice attached",
		logging.F("invoice_id", inv.ID),
		logging.F(logging.FieldMovement, a.MovementID))
	return inv, doc, nil
}

// PreviewURL returns a signed link to a stored document.
func (s *Service) PreviewURL(ctx context.Context, documentID string, ttl time.Duration) (string, error) {
	doc, err := s.repo.GetDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	return s.blobs.SignURL(doc.Path, ttl)
}
