package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/citadia/citadia/internal/plan/domain"
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

func (r *repository) Create(ctx context.Context, plan domain.Plan) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO plans (id, code, name, description, monthly_amount_cents, yearly_amount_cents, currency, is_active, position, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.ID,
		plan.Code,
		plan.Name,
		plan.Description,
		plan.MonthlyAmountCents,
		plan.YearlyAmountCents,
		plan.Currency,
		plan.IsActive,
		plan.Position,
		plan.CreatedAt,
		plan.UpdatedAt,
	).Error
}

func (r *repository) Update(ctx context.Context, plan domain.Plan) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE plans
		 SET name = ?, description = ?, monthly_amount_cents = ?, yearly_amount_cents = ?, is_active = ?, position = ?, updated_at = ?
		 WHERE id = ?`,
		plan.Name,
		plan.Description,
		plan.MonthlyAmountCents,
		plan.YearlyAmountCents,
		plan.IsActive,
		plan.Position,
		plan.UpdatedAt,
		plan.ID,
	).Error
}

func (r *repository) GetByID(ctx context.Context, id snowflake.ID) (*domain.Plan, error) {
	var plan domain.Plan
	if err := r.db.WithContext(ctx).First(&plan, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*domain.Plan, error) {
	var plan domain.Plan
	if err := r.db.WithContext(ctx).First(&plan, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Plan, error) {
	var plans []domain.Plan
	stmt := r.db.WithContext(ctx).Model(&domain.Plan{})
	if !filter.IncludeArchived {
		stmt = stmt.Where("is_active = ?", true)
	}
	if err := stmt.Order("position asc, created_at asc").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}
