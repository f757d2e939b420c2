// Package seed bootstraps the catalog rows the service expects at runtime.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	plandomain "github.com/citadia/citadia/internal/plan/domain"
	"gorm.io/gorm"
)

type planSeed struct {
	code               string
	name               string
	description        string
	monthlyAmountCents int64
	yearlyAmountCents  int64
	position           int
}

var defaultPlans = []planSeed{
	{
		code:        plandomain.CodeFreeTrial,
		name:        "Essai gratuit",
		description: "Periode d'essai sans engagement",
		position:    0,
	},
	{
		code:               plandomain.CodeStandard,
		name:               "Standard",
		description:        "Offre standard pour les collectivites",
		monthlyAmountCents: 4900,
		yearlyAmountCents:  49000,
		position:           1,
	},
	{
		code:               plandomain.CodePremium,
		name:               "Premium",
		description:        "Offre premium avec accompagnement dedie",
		monthlyAmountCents: 9900,
		yearlyAmountCents:  99000,
		position:           2,
	},
}

// EnsurePlanCatalog seeds the built-in plan codes. Existing rows are left
// untouched so operator edits survive restarts.
func EnsurePlanCatalog(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, seed := range defaultPlans {
			var existing plandomain.Plan
			err := tx.WithContext(ctx).
				Where("code = ?", seed.code).
				First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			now := time.Now().UTC()
			plan := plandomain.Plan{
				ID:                 node.Generate(),
				Code:               seed.code,
				Name:               seed.name,
				Description:        seed.description,
				MonthlyAmountCents: seed.monthlyAmountCents,
				YearlyAmountCents:  seed.yearlyAmountCents,
				Currency:           "EUR",
				IsActive:           true,
				Position:           seed.position,
				CreatedAt:          now,
				UpdatedAt:          now,
			}
			if err := tx.WithContext(ctx).Create(&plan).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
