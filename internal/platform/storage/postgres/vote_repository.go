package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/rakibhasan/jonomot/internal/domain"
)

// VoteRepository is the append-only ledger. Rows are never updated or
// deleted; the count queries exist for auditing, not for serving results.
type VoteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

func (r *VoteRepository) Append(ctx context.Context, v domain.Vote) error {
	if err := r.db.WithContext(ctx).Create(&v).Error; err != nil {
		return fmt.Errorf("gorm votes: insert: %w", err)
	}
	return nil
}

func (r *VoteRepository) CountByConstituency(ctx context.Context, no int) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&domain.Vote{}).
		Where("constituency_no = ?", no).
		Count(&total).Error; err != nil {
		return 0, fmt.Errorf("gorm votes: count by constituency: %w", err)
	}
	return total, nil
}

func (r *VoteRepository) CountByCandidate(ctx context.Context, no int) (map[domain.CandidateID]int64, error) {
	type row struct {
		CandidateID string
		Total       int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&domain.Vote{}).
		Select("candidate_id as candidate_id, COUNT(*) as total").
		Where("constituency_no = ?", no).
		Group("candidate_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("gorm votes: count by candidate: %w", err)
	}

	totals := make(map[domain.CandidateID]int64, len(rows))
	for _, item := range rows {
		totals[domain.CandidateID(item.CandidateID)] = item.Total
	}
	return totals, nil
}

func (r *VoteRepository) CountByDevice(ctx context.Context, hash domain.DeviceHash) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&domain.Vote{}).
		Where("device_hash = ?", hash).
		Count(&total).Error; err != nil {
		return 0, fmt.Errorf("gorm votes: count by device: %w", err)
	}
	return total, nil
}

var _ domain.VoteLedger = (*VoteRepository)(nil)
