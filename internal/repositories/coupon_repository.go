package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/bondwatch/bondwatch/internal/db"
	"github.com/bondwatch/bondwatch/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type couponRepository struct {
	db *db.DB
}

// NewCouponRepository creates a new coupon repository
func NewCouponRepository(database *db.DB) CouponRepository {
	return &couponRepository{db: database}
}

// ReplaceForBond swaps a bond's stored schedule for the freshly fetched
// one in a single transaction.
func (r *couponRepository) ReplaceForBond(ctx context.Context, bondID int, coupons []*models.Coupon) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bond_id = ?", bondID).Delete(&models.Coupon{}).Error; err != nil {
			return fmt.Errorf("failed to clear coupons: %w", err)
		}
		for _, c := range coupons {
			c.BondID = bondID
			if err := tx.Create(c).Error; err != nil {
				return fmt.Errorf("failed to insert coupon: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace coupons for bond %d: %w", bondID, err)
	}
	return nil
}

func (r *couponRepository) List(ctx context.Context) ([]*models.Coupon, error) {
	var coupons []*models.Coupon
	err := r.db.WithContext(ctx).
		Preload("Bond").
		Order("date").
		Find(&coupons).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	return coupons, nil
}

// Profit sums coupon payments earned by the portfolio: each coupon counts
// the quantity bought on or before its date, for coupons paid up to asOf.
func (r *couponRepository) Profit(ctx context.Context, asOf time.Time) (decimal.Decimal, error) {
	var row struct {
		Profit decimal.Decimal
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(c.value * t.buy_qty), 0) AS profit
		FROM coupons c
		JOIN trades t ON t.bond_id = c.bond_id
		WHERE t.buy_qty IS NOT NULL
		  AND t.date IS NOT NULL
		  AND t.date <= c.date
		  AND c.date <= ?`, asOf).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute coupon profit: %w", err)
	}
	return row.Profit, nil
}
