package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakibhasan/jonomot/internal/domain"
)

func TestVoterRepository_Register_WhenDeviceIsNew_ShouldInsert(t *testing.T) {
	db := setupPostgres(t)
	repo := NewVoterRepository(db)
	now := time.Now().UTC()

	err := repo.Register(context.Background(), domain.Voter{
		DeviceHash:  "hash-1",
		FirstSeenAt: now,
		LastSeenAt:  now,
		IPPrefix:    "203.0.113",
	})

	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&domain.Voter{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestVoterRepository_Register_WhenDeviceAlreadyRegistered_ShouldReturnErrAlreadyRegistered(t *testing.T) {
	db := setupPostgres(t)
	repo := NewVoterRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	voter := domain.Voter{DeviceHash: "hash-1", FirstSeenAt: now, LastSeenAt: now}
	require.NoError(t, repo.Register(ctx, voter))

	err := repo.Register(ctx, voter)

	assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)

	// The duplicate attempt must not leave a second row behind.
	var count int64
	require.NoError(t, db.Model(&domain.Voter{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestVoterRepository_Register_WhenDevicesDiffer_ShouldAcceptBoth(t *testing.T) {
	db := setupPostgres(t)
	repo := NewVoterRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Register(ctx, domain.Voter{DeviceHash: "hash-1", FirstSeenAt: now, LastSeenAt: now}))
	require.NoError(t, repo.Register(ctx, domain.Voter{DeviceHash: "hash-2", FirstSeenAt: now, LastSeenAt: now}))

	var count int64
	require.NoError(t, db.Model(&domain.Voter{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}
