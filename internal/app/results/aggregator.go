// Package results computes the overall standings view: per-constituency
// leaders, party/alliance aggregation and the proportional seat projection.
// Everything here is a pure function of the constituency dataset and the
// current tallies.
package results

import (
	"sort"
	"time"

	"github.com/rakibhasan/jonomot/internal/domain"
)

// Method names the projection algorithm in the results payload.
const Method = "vote_share_remaining_seats"

// Standing is the classification of one constituency: decided leader, tied,
// or no votes (leader nil, not tied).
type Standing struct {
	Leader *domain.Leader `json:"leader"`
	IsTied bool           `json:"is_tied"`
}

// TopSeat is one row of the top-constituencies-by-votes ranking.
type TopSeat struct {
	ConstituencyNo int    `json:"constituency_no"`
	Seat           string `json:"seat"`
	Division       string `json:"division"`
	TotalVotes     int64  `json:"total_votes"`
}

// View is the aggregated results of every constituency joined with its tally.
type View struct {
	TotalVotes             int64            `json:"total_votes"`
	VotesByAlliance        map[string]int64 `json:"votes_by_alliance"`
	VotesByParty           map[string]int64 `json:"votes_by_party"`
	SeatsLeadingByAlliance map[string]int   `json:"seats_leading_by_alliance"`
	SeatsLeadingByParty    map[string]int   `json:"seats_leading_by_party"`
	TiedCount              int              `json:"tied_count"`
	NoVotesCount           int              `json:"no_votes_count"`
	ConstituenciesCount    int              `json:"constituencies_count"`
	DisabledCount          int              `json:"disabled_count"`
	Standings              map[int]Standing `json:"leaders_by_constituency"`
	TopSeatsByVotes        []TopSeat        `json:"top_seats_by_votes"`
}

// ProjectionMeta describes the inputs of the seat projection.
type ProjectionMeta struct {
	SeatsTotal   int    `json:"seats_total"`
	SeatsCurrent int    `json:"seats_current"`
	Remaining    int    `json:"remaining"`
	Method       string `json:"method"`
}

// Overall is the complete results payload served to clients.
type Overall struct {
	View
	ProjectionByParty map[string]int `json:"projection_by_party"`
	ProjectionMeta    ProjectionMeta `json:"projection_meta"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Classify resolves the leader of a single constituency from its candidate
// list and totals. An empty totals map means no votes; more than one candidate
// at the maximum means tied and nobody is credited.
func Classify(candidates []domain.Candidate, totals map[domain.CandidateID]int64) (*domain.Leader, bool) {
	if len(totals) == 0 {
		return nil, false
	}

	max, leaders := maxAndLeaders(totals)
	if len(leaders) > 1 {
		return nil, true
	}

	for _, cand := range candidates {
		if cand.ID == leaders[0] {
			return &domain.Leader{
				CandidateID: cand.ID,
				Name:        cand.Name,
				Party:       cand.Party,
				AllianceKey: cand.AllianceKey,
				Votes:       max,
			}, false
		}
	}

	// Leading candidate missing from the dataset; nobody is credited.
	return nil, false
}

// Aggregate joins the constituency dataset with the tallies.
//
// Vote sums by party/alliance run over every constituency, disabled included.
// Seat-leading counts, tie and no-votes counts, and the standings map cover
// non-disabled constituencies only. The top-seats ranking is a stable sort
// over the constituencies slice, so ties keep the caller's read order; the
// repository always reads ordered by constituency number, which makes the
// tie-break "lower constituency number first".
func Aggregate(constituencies []domain.Constituency, tallies map[int]domain.Tally) View {
	view := View{
		VotesByAlliance:        map[string]int64{},
		VotesByParty:           map[string]int64{},
		SeatsLeadingByAlliance: map[string]int{},
		SeatsLeadingByParty:    map[string]int{},
		Standings:              map[int]Standing{},
		ConstituenciesCount:    len(constituencies),
	}

	lookup := make(map[domain.CandidateID]domain.Candidate)
	for _, c := range constituencies {
		if c.IsDisabled {
			view.DisabledCount++
		}
		for _, cand := range c.Candidates {
			lookup[cand.ID] = cand
		}
	}

	for _, tally := range tallies {
		for cid, votes := range tally.Totals {
			cand, ok := lookup[cid]
			if !ok {
				continue
			}
			view.VotesByAlliance[cand.AllianceKey] += votes
			view.VotesByParty[cand.Party] += votes
		}
	}
	for _, votes := range view.VotesByParty {
		view.TotalVotes += votes
	}

	for _, c := range constituencies {
		if c.IsDisabled {
			continue
		}
		totals := tallies[c.ConstituencyNo].Totals
		if len(totals) == 0 {
			view.NoVotesCount++
			view.Standings[c.ConstituencyNo] = Standing{}
			continue
		}

		max, leaders := maxAndLeaders(totals)
		if len(leaders) > 1 {
			view.TiedCount++
			view.Standings[c.ConstituencyNo] = Standing{IsTied: true}
			continue
		}

		cand, ok := lookup[leaders[0]]
		if !ok {
			continue
		}
		view.SeatsLeadingByAlliance[cand.AllianceKey]++
		view.SeatsLeadingByParty[cand.Party]++
		view.Standings[c.ConstituencyNo] = Standing{Leader: &domain.Leader{
			CandidateID: cand.ID,
			Name:        cand.Name,
			Party:       cand.Party,
			AllianceKey: cand.AllianceKey,
			Votes:       max,
		}}
	}

	top := make([]TopSeat, len(constituencies))
	for i, c := range constituencies {
		top[i] = TopSeat{
			ConstituencyNo: c.ConstituencyNo,
			Seat:           c.Seat,
			Division:       c.Division,
			TotalVotes:     tallies[c.ConstituencyNo].TotalVotes(),
		}
	}
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].TotalVotes > top[j].TotalVotes
	})
	if len(top) > 10 {
		top = top[:10]
	}
	view.TopSeatsByVotes = top

	return view
}

// BuildOverall aggregates, runs the seat projection for undecided seats and
// stamps the compute time. Cache hits serve this payload with the timestamp
// frozen.
func BuildOverall(constituencies []domain.Constituency, tallies map[int]domain.Tally, now time.Time) Overall {
	view := Aggregate(constituencies, tallies)

	seatsTotal := view.ConstituenciesCount - view.DisabledCount
	seatsCurrent := 0
	for _, seats := range view.SeatsLeadingByParty {
		seatsCurrent += seats
	}
	remaining := seatsTotal - seatsCurrent - view.TiedCount - view.NoVotesCount
	if remaining < 0 {
		remaining = 0
	}

	projection := Apportion(remaining, view.VotesByParty)

	// Legacy pseudo-entries the map frontend still reads; merged only after
	// the seat math so they never count as parties.
	view.SeatsLeadingByAlliance["tied"] = view.TiedCount
	view.SeatsLeadingByAlliance["no_votes"] = view.NoVotesCount
	view.SeatsLeadingByParty["TIED"] = view.TiedCount
	view.SeatsLeadingByParty["NO_VOTES"] = view.NoVotesCount

	return Overall{
		View:              view,
		ProjectionByParty: projection,
		ProjectionMeta: ProjectionMeta{
			SeatsTotal:   seatsTotal,
			SeatsCurrent: seatsCurrent,
			Remaining:    remaining,
			Method:       Method,
		},
		UpdatedAt: now,
	}
}

func maxAndLeaders(totals map[domain.CandidateID]int64) (int64, []domain.CandidateID) {
	var max int64
	for _, votes := range totals {
		if votes > max {
			max = votes
		}
	}
	var leaders []domain.CandidateID
	for cid, votes := range totals {
		if votes == max {
			leaders = append(leaders, cid)
		}
	}
	return max, leaders
}
