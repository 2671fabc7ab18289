package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return client, mr
}

func TestTallyStore_Increment_WhenTallyAbsent_ShouldCreateIt(t *testing.T) {
	client, _ := setupRedis(t)
	store := NewTallyStore(client, "tally")

	tally, err := store.Increment(context.Background(), 12, "cand-a")

	require.NoError(t, err)
	assert.Equal(t, 12, tally.ConstituencyNo)
	assert.Equal(t, int64(1), tally.Totals["cand-a"])
	assert.False(t, tally.UpdatedAt.IsZero())
}

func TestTallyStore_Increment_WhenCalledRepeatedly_ShouldReturnPostIncrementSnapshot(t *testing.T) {
	client, _ := setupRedis(t)
	store := NewTallyStore(client, "tally")
	ctx := context.Background()

	_, err := store.Increment(ctx, 12, "cand-a")
	require.NoError(t, err)
	_, err = store.Increment(ctx, 12, "cand-b")
	require.NoError(t, err)

	tally, err := store.Increment(ctx, 12, "cand-a")
	require.NoError(t, err)

	// The snapshot comes from the same MULTI/EXEC as the increment.
	assert.Equal(t, int64(2), tally.Totals["cand-a"])
	assert.Equal(t, int64(1), tally.Totals["cand-b"])
	assert.Equal(t, int64(3), tally.TotalVotes())
}

func TestTallyStore_Increment_ShouldIsolateConstituencies(t *testing.T) {
	client, _ := setupRedis(t)
	store := NewTallyStore(client, "tally")
	ctx := context.Background()

	_, err := store.Increment(ctx, 1, "cand-a")
	require.NoError(t, err)
	tally, err := store.Increment(ctx, 2, "cand-a")
	require.NoError(t, err)

	assert.Equal(t, int64(1), tally.Totals["cand-a"])

	other, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), other.Totals["cand-a"])
}

func TestTallyStore_Get_WhenNoVotesYet_ShouldReturnZeroTally(t *testing.T) {
	client, _ := setupRedis(t)
	store := NewTallyStore(client, "tally")

	tally, err := store.Get(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, 42, tally.ConstituencyNo)
	assert.Empty(t, tally.Totals)
	assert.Equal(t, int64(0), tally.TotalVotes())
}

func TestTallyStore_Get_WhenVotesExist_ShouldCarryUpdatedAt(t *testing.T) {
	client, _ := setupRedis(t)
	store := NewTallyStore(client, "tally")
	ctx := context.Background()

	written, err := store.Increment(ctx, 12, "cand-a")
	require.NoError(t, err)

	read, err := store.Get(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, written.Totals, read.Totals)
	assert.True(t, written.UpdatedAt.Equal(read.UpdatedAt))
}

func TestTallyStore_GetAll_ShouldOmitEmptyTallies(t *testing.T) {
	client, _ := setupRedis(t)
	store := NewTallyStore(client, "tally")
	ctx := context.Background()

	_, err := store.Increment(ctx, 1, "cand-a")
	require.NoError(t, err)
	_, err = store.Increment(ctx, 3, "cand-b")
	require.NoError(t, err)

	tallies, err := store.GetAll(ctx, []int{1, 2, 3})
	require.NoError(t, err)

	assert.Len(t, tallies, 2)
	assert.Equal(t, int64(1), tallies[1].Totals["cand-a"])
	assert.Equal(t, int64(1), tallies[3].Totals["cand-b"])
	_, present := tallies[2]
	assert.False(t, present)
}

func TestTallyStore_GetAll_WhenNoConstituencies_ShouldReturnEmptyMap(t *testing.T) {
	client, _ := setupRedis(t)
	store := NewTallyStore(client, "tally")

	tallies, err := store.GetAll(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, tallies)
}

func TestTallyStore_Get_WhenCounterCorrupted_ShouldReturnError(t *testing.T) {
	client, mr := setupRedis(t)
	store := NewTallyStore(client, "tally")

	mr.HSet("tally:12", "cand-a", "not-a-number")

	_, err := store.Get(context.Background(), 12)

	assert.Error(t, err)
}

func TestTallyStore_Keys_ShouldBePrefixScoped(t *testing.T) {
	client, mr := setupRedis(t)
	store := NewTallyStore(client, "tally")

	_, err := store.Increment(context.Background(), 12, "cand-a")
	require.NoError(t, err)

	assert.True(t, mr.Exists("tally:12"))
	assert.True(t, mr.Exists("tally:12:updated_at"))
}
