package repository

import (
	"context"

	"github.com/citadia/citadia/internal/dashboard/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) CountTenantsByBillingStatus(ctx context.Context) ([]domain.StatusCount, error) {
	var counts []domain.StatusCount
	err := r.db.WithContext(ctx).Raw(
		`SELECT billing_status, COUNT(*) AS count
		 FROM tenants
		 WHERE lifecycle_status <> 'ARCHIVED'
		 GROUP BY billing_status`,
	).Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *repository) SumMandateRevenueCents(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(total_cents), 0)
		 FROM mandate_invoices
		 WHERE status IN ('ISSUED', 'SETTLED')`,
	).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repository) SumStripeRevenueCents(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount_due_cents), 0) FROM stripe_invoices`,
	).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
