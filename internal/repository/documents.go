package repository

import (
	"context"

	"fjacquet/sci-ledger/internal/models"
)

// CreateInvoice inserts an invoice.
func (r *Repository) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	inv.ID = newID(inv.ID)
	if err := r.with(ctx).Create(inv).Error; err != nil {
		return storageError("insert", models.TableInvoices, err)
	}
	r.changed(models.TableInvoices)
	return nil
}

// GetInvoice loads one invoice.
func (r *Repository) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	var inv models.Invoice
	if err := r.with(ctx).Where("id = ?", id).First(&inv).Error; err != nil {
		return nil, lookupError("invoice", id, models.TableInvoices, err)
	}
	return &inv, nil
}

// ListInvoices returns invoices by due date.
func (r *Repository) ListInvoices(ctx context.Context) ([]models.Invoice, error) {
	var out []models.Invoice
	if err := r.with(ctx).Order("due_date").Find(&out).Error; err != nil {
		return nil, storageError("read", models.TableInvoices, err)
	}
	return out, nil
}

// CreateDocument records an uploaded file.
func (r *Repository) CreateDocument(ctx context.Context, doc *models.Document) error {
	doc.ID = newID(doc.ID)
	if err := r.with(ctx).Create(doc).Error; err != nil {
		return storageError("insert", models.TableDocuments, err)
	}
	r.changed(models.TableDocuments)
	return nil
}

// GetDocument loads one document.
func (r *Repository) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	if err := r.with(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		return nil, lookupError("document", id, models.TableDocuments, err)
	}
	return &doc, nil
}

// ListDocuments returns the documents of an invoice, or all documents when
// invoiceID is empty.
func (r *Repository) ListDocuments(ctx context.Context, invoiceID string) ([]models.Document, error) {
	q := r.with(ctx).Model(&models.Document{})
	if invoiceID != "" {
		q = q.Where("invoice_id = ?", invoiceID)
	}
	var out []models.Document
	if err := q.Order("created_at").Find(&out).Error; err != nil {
		return nil, storageError("read", models.TableDocuments, err)
	}
	return out, nil
}
