package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/citadia/citadia/internal/association/domain"
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

func (r *repository) Create(ctx context.Context, assoc domain.Association) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO associations (id, tenant_id, name, slug, contact_email, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		assoc.ID,
		assoc.TenantID,
		assoc.Name,
		assoc.Slug,
		assoc.ContactEmail,
		assoc.IsActive,
		assoc.CreatedAt,
		assoc.UpdatedAt,
	).Error
}

func (r *repository) Update(ctx context.Context, assoc domain.Association) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE associations
		 SET name = ?, slug = ?, contact_email = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		assoc.Name,
		assoc.Slug,
		assoc.ContactEmail,
		assoc.IsActive,
		assoc.UpdatedAt,
		assoc.ID,
	).Error
}

func (r *repository) GetByID(ctx context.Context, id snowflake.ID) (*domain.Association, error) {
	var assoc domain.Association
	if err := r.db.WithContext(ctx).First(&assoc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAssociationNotFound
		}
		return nil, err
	}
	return &assoc, nil
}

func (r *repository) List(ctx context.Context) ([]domain.Association, error) {
	var assocs []domain.Association
	if err := r.db.WithContext(ctx).Order("created_at asc, id asc").Find(&assocs).Error; err != nil {
		return nil, err
	}
	return assocs, nil
}

func (r *repository) ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]domain.Association, error) {
	var assocs []domain.Association
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at asc, id asc").
		Find(&assocs).Error; err != nil {
		return nil, err
	}
	return assocs, nil
}
