package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rakibhasan/jonomot/internal/domain"
)

// TallyStore keeps one hash per constituency, field per candidate. HINCRBY,
// the updated_at stamp and the HGETALL snapshot run inside one MULTI/EXEC, so
// the returned totals are exactly the post-increment state even under
// concurrent voters.
type TallyStore struct {
	client *redis.Client
	prefix string
}

func NewTallyStore(client *redis.Client, prefix string) *TallyStore {
	return &TallyStore{
		client: client,
		prefix: prefix,
	}
}

func (s *TallyStore) Increment(ctx context.Context, no int, candidateID domain.CandidateID) (domain.Tally, error) {
	now := time.Now().UTC()

	var snapshot *redis.MapStringStringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, s.totalsKey(no), string(candidateID), 1)
		pipe.Set(ctx, s.updatedKey(no), now.Format(time.RFC3339Nano), 0)
		snapshot = pipe.HGetAll(ctx, s.totalsKey(no))
		return nil
	})
	if err != nil {
		return domain.Tally{}, fmt.Errorf("redis tally: increment: %w", err)
	}

	totals, err := parseTotals(snapshot.Val())
	if err != nil {
		return domain.Tally{}, err
	}
	return domain.Tally{ConstituencyNo: no, Totals: totals, UpdatedAt: now}, nil
}

func (s *TallyStore) Get(ctx context.Context, no int) (domain.Tally, error) {
	raw, err := s.client.HGetAll(ctx, s.totalsKey(no)).Result()
	if err != nil {
		return domain.Tally{}, fmt.Errorf("redis tally: read: %w", err)
	}
	if len(raw) == 0 {
		// Absent tally: no vote has been accepted here yet.
		return domain.Tally{ConstituencyNo: no}, nil
	}

	totals, err := parseTotals(raw)
	if err != nil {
		return domain.Tally{}, err
	}

	tally := domain.Tally{ConstituencyNo: no, Totals: totals}
	stamp, err := s.client.Get(ctx, s.updatedKey(no)).Result()
	if err == nil {
		if ts, parseErr := time.Parse(time.RFC3339Nano, stamp); parseErr == nil {
			tally.UpdatedAt = ts
		}
	} else if err != redis.Nil {
		return domain.Tally{}, fmt.Errorf("redis tally: read updated_at: %w", err)
	}
	return tally, nil
}

// GetAll fetches every tally in one pipeline round-trip. Constituencies
// without votes are left out of the result map.
func (s *TallyStore) GetAll(ctx context.Context, nos []int) (map[int]domain.Tally, error) {
	if len(nos) == 0 {
		return map[int]domain.Tally{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(nos))
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, no := range nos {
			cmds[i] = pipe.HGetAll(ctx, s.totalsKey(no))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis tally: bulk read: %w", err)
	}

	tallies := make(map[int]domain.Tally, len(nos))
	for i, cmd := range cmds {
		raw := cmd.Val()
		if len(raw) == 0 {
			continue
		}
		totals, parseErr := parseTotals(raw)
		if parseErr != nil {
			return nil, parseErr
		}
		tallies[nos[i]] = domain.Tally{ConstituencyNo: nos[i], Totals: totals}
	}
	return tallies, nil
}

func (s *TallyStore) totalsKey(no int) string {
	if s.prefix == "" {
		return strconv.Itoa(no)
	}
	return fmt.Sprintf("%s:%d", s.prefix, no)
}

func (s *TallyStore) updatedKey(no int) string {
	return s.totalsKey(no) + ":updated_at"
}

func parseTotals(raw map[string]string) (map[domain.CandidateID]int64, error) {
	totals := make(map[domain.CandidateID]int64, len(raw))
	for field, value := range raw {
		num, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("redis tally: invalid count for %s: %w", field, err)
		}
		totals[domain.CandidateID(field)] = num
	}
	return totals, nil
}

var _ domain.TallyStore = (*TallyStore)(nil)
