package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/citadia/citadia/internal/mandate/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, invoice domain.Invoice, lines []domain.Line) error {
	err := r.db.WithContext(ctx).Exec(
		`INSERT INTO mandate_invoices (
			id, tenant_id, number, status, engagement_ref,
			subtotal_cents, vat_cents, total_cents, currency,
			issued_at, due_at, settled_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		invoice.ID,
		invoice.TenantID,
		invoice.Number,
		invoice.Status,
		invoice.EngagementRef,
		invoice.SubtotalCents,
		invoice.VATCents,
		invoice.TotalCents,
		invoice.Currency,
		invoice.IssuedAt,
		invoice.DueAt,
		invoice.SettledAt,
		invoice.CreatedAt,
		invoice.UpdatedAt,
	).Error
	if err != nil {
		return err
	}

	for _, line := range lines {
		if err := r.db.WithContext(ctx).Exec(
			`INSERT INTO mandate_lines (id, invoice_id, description, quantity, unit_amount_cents, amount_cents, position, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			line.ID,
			line.InvoiceID,
			line.Description,
			line.Quantity,
			line.UnitAmountCents,
			line.AmountCents,
			line.Position,
			line.CreatedAt,
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) Update(ctx context.Context, invoice domain.Invoice) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE mandate_invoices SET
			number = ?, status = ?, engagement_ref = ?,
			subtotal_cents = ?, vat_cents = ?, total_cents = ?,
			issued_at = ?, due_at = ?, settled_at = ?, updated_at = ?
		 WHERE id = ?`,
		invoice.Number,
		invoice.Status,
		invoice.EngagementRef,
		invoice.SubtotalCents,
		invoice.VATCents,
		invoice.TotalCents,
		invoice.IssuedAt,
		invoice.DueAt,
		invoice.SettledAt,
		invoice.UpdatedAt,
		invoice.ID,
	).Error
}

func (r *repository) GetByID(ctx context.Context, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	if err := r.db.WithContext(ctx).First(&invoice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) ListLines(ctx context.Context, invoiceID snowflake.ID) ([]domain.Line, error) {
	var lines []domain.Line
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("position asc").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	stmt := r.db.WithContext(ctx).Model(&domain.Invoice{})
	if filter.TenantID != nil && *filter.TenantID != 0 {
		stmt = stmt.Where("tenant_id = ?", *filter.TenantID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if err := stmt.Order("created_at desc, id desc").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repository) NextSequence(ctx context.Context, year int) (int64, error) {
	if err := r.db.WithContext(ctx).Exec(
		`INSERT INTO mandate_sequences (year, last_value) VALUES (?, 0)
		 ON CONFLICT (year) DO NOTHING`,
		year,
	).Error; err != nil {
		return 0, err
	}

	if err := r.db.WithContext(ctx).Exec(
		`UPDATE mandate_sequences SET last_value = last_value + 1 WHERE year = ?`,
		year,
	).Error; err != nil {
		return 0, err
	}

	var seq domain.Sequence
	if err := r.db.WithContext(ctx).First(&seq, "year = ?", year).Error; err != nil {
		return 0, err
	}
	return seq.LastValue, nil
}
