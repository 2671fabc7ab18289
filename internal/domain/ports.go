package domain

import (
	"context"
	"time"
)

type ConstituencyRepository interface {
	Upsert(ctx context.Context, c Constituency) error
	FindByNo(ctx context.Context, no int) (Constituency, error)
	// List returns constituencies ordered by constituency number; this read
	// order is the tie-break baseline for the top-seats ranking.
	List(ctx context.Context, filter ConstituencyFilter) ([]Constituency, error)
	SetDisabled(ctx context.Context, no int, disabled bool) error
}

type VoterRegistry interface {
	// Register inserts the voter or fails with ErrAlreadyRegistered when the
	// device hash already exists. The insert is atomic.
	Register(ctx context.Context, v Voter) error
}

type VoteLedger interface {
	Append(ctx context.Context, v Vote) error
	CountByConstituency(ctx context.Context, no int) (int64, error)
	CountByCandidate(ctx context.Context, no int) (map[CandidateID]int64, error)
	CountByDevice(ctx context.Context, hash DeviceHash) (int64, error)
}

type TallyStore interface {
	// Increment adds one vote to the candidate's counter, creating the tally
	// if absent, and returns the post-increment totals from the same atomic
	// step.
	Increment(ctx context.Context, no int, candidateID CandidateID) (Tally, error)
	Get(ctx context.Context, no int) (Tally, error)
	GetAll(ctx context.Context, nos []int) (map[int]Tally, error)
}

type ResultsCache interface {
	// GetOrCompute returns the cached bytes verbatim on a hit. On a miss or
	// any cache-backend failure it calls compute and best-effort stores the
	// result; store failures are swallowed.
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) ([]byte, error)) ([]byte, error)
	// Invalidate is best effort; a failed delete is swallowed.
	Invalidate(ctx context.Context, key string)
}

type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

type RateLimiter interface {
	Allow(ctx context.Context, ip, userAgent string) error
}

type Clock interface {
	Now() time.Time
}

type VotingService interface {
	CastVote(ctx context.Context, ballot Ballot) (VoteReceipt, error)
	ListConstituencies(ctx context.Context, filter ConstituencyFilter) ([]Constituency, error)
	ConstituencyResults(ctx context.Context, no int) (ConstituencyResult, error)
	OverallResults(ctx context.Context) ([]byte, error)
}
