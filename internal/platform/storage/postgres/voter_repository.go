package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/rakibhasan/jonomot/internal/domain"
)

// VoterRepository enforces one-vote-per-device through the primary key on
// device_hash. There is no application-level existence check; the constraint
// is the whole mechanism.
type VoterRepository struct {
	db *gorm.DB
}

func NewVoterRepository(db *gorm.DB) *VoterRepository {
	return &VoterRepository{db: db}
}

func (r *VoterRepository) Register(ctx context.Context, v domain.Voter) error {
	if err := r.db.WithContext(ctx).Create(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrAlreadyRegistered
		}
		return fmt.Errorf("gorm voters: insert: %w", err)
	}
	return nil
}

var _ domain.VoterRegistry = (*VoterRepository)(nil)
