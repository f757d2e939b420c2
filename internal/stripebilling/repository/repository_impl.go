package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/citadia/citadia/internal/stripebilling/domain"
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

func (r *repository) Upsert(ctx context.Context, invoice domain.Invoice) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO stripe_invoices (id, tenant_id, stripe_invoice_id, status, amount_due_cents, currency, hosted_invoice_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (stripe_invoice_id) DO UPDATE SET
			status = excluded.status,
			amount_due_cents = excluded.amount_due_cents,
			hosted_invoice_url = excluded.hosted_invoice_url,
			updated_at = excluded.updated_at`,
		invoice.ID,
		invoice.TenantID,
		invoice.StripeInvoiceID,
		invoice.Status,
		invoice.AmountDueCents,
		invoice.Currency,
		invoice.HostedInvoiceURL,
		invoice.CreatedAt,
		invoice.UpdatedAt,
	).Error
}

func (r *repository) ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at desc, id desc").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}
