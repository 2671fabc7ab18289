package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rakibhasan/jonomot/internal/domain"
)

// ConstituencyRepository maps the imported dataset to GORM tables. The core
// only reads from it; writes come from the importer and the admin disable
// action.
type ConstituencyRepository struct {
	db *gorm.DB
}

func NewConstituencyRepository(db *gorm.DB) *ConstituencyRepository {
	return &ConstituencyRepository{db: db}
}

// Upsert replaces the constituency row and its candidate list in one
// transaction, keyed by constituency number. Re-running the import is
// idempotent.
func (r *ConstituencyRepository) Upsert(ctx context.Context, c domain.Constituency) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := domain.Constituency{
			ConstituencyNo: c.ConstituencyNo,
			Division:       c.Division,
			Seat:           c.Seat,
			Notes:          c.Notes,
			IsDisabled:     c.IsDisabled,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "constituency_no"}},
			DoUpdates: clause.AssignmentColumns([]string{"division", "seat", "notes", "is_disabled"}),
		}).Create(&row).Error; err != nil {
			return fmt.Errorf("gorm constituencies: upsert: %w", err)
		}

		if err := tx.Where("constituency_no = ?", c.ConstituencyNo).Delete(&domain.Candidate{}).Error; err != nil {
			return fmt.Errorf("gorm constituencies: clear candidates: %w", err)
		}
		if len(c.Candidates) == 0 {
			return nil
		}
		candidates := make([]domain.Candidate, len(c.Candidates))
		for i, cand := range c.Candidates {
			cand.ConstituencyNo = c.ConstituencyNo
			candidates[i] = cand
		}
		if err := tx.Create(&candidates).Error; err != nil {
			return fmt.Errorf("gorm constituencies: insert candidates: %w", err)
		}
		return nil
	})
}

func (r *ConstituencyRepository) FindByNo(ctx context.Context, no int) (domain.Constituency, error) {
	var row domain.Constituency
	if err := r.db.WithContext(ctx).
		Preload("Candidates").
		First(&row, "constituency_no = ?", no).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Constituency{}, domain.ErrNotFound
		}
		return domain.Constituency{}, fmt.Errorf("gorm constituencies: find by no: %w", err)
	}
	return row, nil
}

// List always orders by constituency number; the aggregator's top-seats
// tie-break relies on this read order being stable.
func (r *ConstituencyRepository) List(ctx context.Context, filter domain.ConstituencyFilter) ([]domain.Constituency, error) {
	query := r.db.WithContext(ctx).Preload("Candidates")
	if filter.Division != "" {
		query = query.Where("division = ?", filter.Division)
	}
	if filter.SeatLike != "" {
		query = query.Where("seat LIKE ?", "%"+filter.SeatLike+"%")
	}

	var rows []domain.Constituency
	if err := query.Order("constituency_no ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("gorm constituencies: list: %w", err)
	}
	return rows, nil
}

func (r *ConstituencyRepository) SetDisabled(ctx context.Context, no int, disabled bool) error {
	res := r.db.WithContext(ctx).Model(&domain.Constituency{}).
		Where("constituency_no = ?", no).
		Update("is_disabled", disabled)
	if res.Error != nil {
		return fmt.Errorf("gorm constituencies: set disabled: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ domain.ConstituencyRepository = (*ConstituencyRepository)(nil)
