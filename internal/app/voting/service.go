// Package voting implements the vote recording flow: dataset validation,
// one-vote-per-device registration, tally increment, ledger append and cache
// invalidation, plus the results reads built on top of the same stores.
package voting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rakibhasan/jonomot/internal/app/results"
	"github.com/rakibhasan/jonomot/internal/domain"
	"github.com/rakibhasan/jonomot/internal/platform/ids"
	"github.com/rakibhasan/jonomot/internal/platform/metrics"
)

var (
	ErrUnknownConstituency = errors.New("unknown constituency")
	ErrUnknownCandidate    = errors.New("unknown candidate")
	ErrMissingDevice       = errors.New("missing device identity")
	ErrAlreadyVoted        = errors.New("already voted")
)

// ResultsCacheKey is the fixed logical name of the cached overall results
// artifact; the vote path invalidates it synchronously.
const ResultsCacheKey = "results_overall"

// Service wires the stores together and owns the commit order of a vote.
type Service struct {
	constituencies domain.ConstituencyRepository
	voters         domain.VoterRegistry
	tallies        domain.TallyStore
	ledger         domain.VoteLedger
	cache          domain.ResultsCache
	clock          domain.Clock
	ids            *ids.Generator
	resultsTTL     time.Duration
}

func NewService(
	constituencies domain.ConstituencyRepository,
	voters domain.VoterRegistry,
	tallies domain.TallyStore,
	ledger domain.VoteLedger,
	cache domain.ResultsCache,
	clock domain.Clock,
	idsGen *ids.Generator,
	resultsTTL time.Duration,
) *Service {
	if idsGen == nil {
		idsGen = ids.DefaultGenerator()
	}
	return &Service{
		constituencies: constituencies,
		voters:         voters,
		tallies:        tallies,
		ledger:         ledger,
		cache:          cache,
		clock:          clock,
		ids:            idsGen,
		resultsTTL:     resultsTTL,
	}
}

// CastVote commits one vote: registry insert, tally increment, ledger append,
// cache invalidation, in that order. Any rejection happens before the first
// mutation, so a failed attempt leaves no partial state. The registry's
// uniqueness constraint is the only double-vote gate.
func (s *Service) CastVote(ctx context.Context, ballot domain.Ballot) (domain.VoteReceipt, error) {
	if ballot.DeviceHash == "" {
		return domain.VoteReceipt{}, ErrMissingDevice
	}

	constituency, err := s.constituencies.FindByNo(ctx, ballot.ConstituencyNo)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.VoteReceipt{}, ErrUnknownConstituency
		}
		return domain.VoteReceipt{}, err
	}

	candidate, ok := findCandidate(constituency.Candidates, ballot.CandidateID)
	if !ok {
		return domain.VoteReceipt{}, ErrUnknownCandidate
	}

	now := s.clock.Now()
	err = s.voters.Register(ctx, domain.Voter{
		DeviceHash:  ballot.DeviceHash,
		FirstSeenAt: now,
		LastSeenAt:  now,
		IPPrefix:    ballot.IPPrefix,
		UAHash:      ballot.UAHash,
		LangHash:    ballot.LangHash,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyRegistered) {
			return domain.VoteReceipt{}, ErrAlreadyVoted
		}
		return domain.VoteReceipt{}, err
	}

	tally, err := s.tallies.Increment(ctx, ballot.ConstituencyNo, candidate.ID)
	if err != nil {
		return domain.VoteReceipt{}, err
	}

	if err := s.ledger.Append(ctx, domain.Vote{
		ID:             s.ids.New(),
		ConstituencyNo: ballot.ConstituencyNo,
		CandidateID:    candidate.ID,
		AllianceKey:    candidate.AllianceKey,
		Party:          candidate.Party,
		VotedAt:        now,
		DeviceHash:     ballot.DeviceHash,
		IPPrefix:       ballot.IPPrefix,
		UAHash:         ballot.UAHash,
	}); err != nil {
		return domain.VoteReceipt{}, err
	}

	if s.cache != nil {
		// Synchronous, before the response; readers between the increment and
		// this delete may still see the old payload for up to one TTL.
		s.cache.Invalidate(ctx, ResultsCacheKey)
	}

	leader, tied := results.Classify(constituency.Candidates, tally.Totals)
	return domain.VoteReceipt{Totals: tally.Totals, Leader: leader, IsTied: tied}, nil
}

func (s *Service) ListConstituencies(ctx context.Context, filter domain.ConstituencyFilter) ([]domain.Constituency, error) {
	return s.constituencies.List(ctx, filter)
}

// ConstituencyResults joins one constituency with its live tally.
func (s *Service) ConstituencyResults(ctx context.Context, no int) (domain.ConstituencyResult, error) {
	constituency, err := s.constituencies.FindByNo(ctx, no)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ConstituencyResult{}, ErrUnknownConstituency
		}
		return domain.ConstituencyResult{}, err
	}

	tally, err := s.tallies.Get(ctx, no)
	if err != nil {
		return domain.ConstituencyResult{}, err
	}

	leader, tied := results.Classify(constituency.Candidates, tally.Totals)
	return domain.ConstituencyResult{
		Constituency: constituency,
		Totals:       tally.Totals,
		Leader:       leader,
		IsTied:       tied,
	}, nil
}

// OverallResults serves the aggregated view through the read-through cache.
// Without a cache every call recomputes from the source of truth; correctness
// does not depend on the cache being up.
func (s *Service) OverallResults(ctx context.Context) ([]byte, error) {
	if s.cache == nil {
		return s.computeOverall(ctx)
	}
	return s.cache.GetOrCompute(ctx, ResultsCacheKey, s.resultsTTL, s.computeOverall)
}

func (s *Service) computeOverall(ctx context.Context) ([]byte, error) {
	start := time.Now()

	constituencies, err := s.constituencies.List(ctx, domain.ConstituencyFilter{})
	if err != nil {
		return nil, err
	}

	nos := make([]int, len(constituencies))
	for i, c := range constituencies {
		nos[i] = c.ConstituencyNo
	}
	tallies, err := s.tallies.GetAll(ctx, nos)
	if err != nil {
		return nil, err
	}

	overall := results.BuildOverall(constituencies, tallies, s.clock.Now())
	payload, err := json.Marshal(overall)
	if err != nil {
		return nil, fmt.Errorf("voting: encode overall results: %w", err)
	}

	metrics.ObserveResultsCompute(time.Since(start).Seconds())
	return payload, nil
}

func findCandidate(candidates []domain.Candidate, id domain.CandidateID) (domain.Candidate, bool) {
	for _, cand := range candidates {
		if cand.ID == id {
			return cand, true
		}
	}
	return domain.Candidate{}, false
}

var _ domain.VotingService = (*Service)(nil)
