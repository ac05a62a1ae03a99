package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	apperrors "github.com/bondwatch/bondwatch/internal/errors"

	"github.com/bondwatch/bondwatch/internal/db"
	"github.com/bondwatch/bondwatch/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type bondRepository struct {
	db *db.DB
}

// NewBondRepository creates a new bond repository
func NewBondRepository(database *db.DB) BondRepository {
	return &bondRepository{db: database}
}

func (r *bondRepository) Upsert(ctx context.Context, bond *models.Bond) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "secid"}},
		UpdateAll: true,
	}).Create(bond).Error
	if err != nil {
		return fmt.Errorf("failed to upsert bond %s: %w", bond.SecID, err)
	}
	return nil
}

func (r *bondRepository) GetByID(ctx context.Context, id int) (*models.Bond, error) {
	var bond models.Bond
	if err := r.db.WithContext(ctx).First(&bond, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.ErrNotFound{Entity: "bond", Key: strconv.Itoa(id)}
		}
		return nil, fmt.Errorf("failed to get bond: %w", err)
	}
	return &bond, nil
}

func (r *bondRepository) GetBySecID(ctx context.Context, secid string) (*models.Bond, error) {
	var bond models.Bond
	if err := r.db.WithContext(ctx).First(&bond, "secid = ?", secid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.ErrNotFound{Entity: "bond", Key: secid}
		}
		return nil, fmt.Errorf("failed to get bond: %w", err)
	}
	return &bond, nil
}

func (r *bondRepository) List(ctx context.Context) ([]*models.Bond, error) {
	var bonds []*models.Bond
	if err := r.db.WithContext(ctx).Order("id").Find(&bonds).Error; err != nil {
		return nil, fmt.Errorf("failed to list bonds: %w", err)
	}
	return bonds, nil
}

func (r *bondRepository) Update(ctx context.Context, bond *models.Bond) error {
	if err := r.db.WithContext(ctx).Save(bond).Error; err != nil {
		return fmt.Errorf("failed to update bond %d: %w", bond.ID, err)
	}
	return nil
}

func (r *bondRepository) DeleteByIDs(ctx context.Context, ids []int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Bond{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete bonds: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

// Weights joins bonds with their trades and aggregates held quantity and
// value per bond. Percent of total is filled in afterwards over the summed
// values; bonds with no position still appear with zeros.
func (r *bondRepository) Weights(ctx context.Context) ([]*models.WeightRow, error) {
	var rows []*models.WeightRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT b.id AS bond_id,
		       b.secid AS sec_id,
		       COALESCE(b.currency, 'SUR') AS currency,
		       COALESCE(SUM(COALESCE(t.buy_qty, 0) - COALESCE(t.sell_qty, 0)), 0) AS total_qty,
		       COALESCE(SUM((COALESCE(t.buy_qty, 0) - COALESCE(t.sell_qty, 0)) * COALESCE(b.last_price, 0)), 0) AS bond_value
		FROM bonds b
		LEFT JOIN trades t ON t.bond_id = b.id
		GROUP BY b.id, b.secid, b.currency
		ORDER BY b.id`).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate weights: %w", err)
	}

	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.BondValue)
	}
	if total.IsPositive() {
		for _, row := range rows {
			row.WeightPercent = row.BondValue.Div(total).Mul(decimal.NewFromInt(100))
		}
	}
	return rows, nil
}
