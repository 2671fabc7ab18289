package results

import (
	"math"
	"sort"
)

// Apportion distributes the remaining undecided seats among parties with
// positive vote counts using the largest-remainder method: every party gets
// the floor of its proportional quota, then leftover seats go to the largest
// fractional remainders. Remainder ties fall back to the party key descending
// so the output is deterministic. The allocated seats always sum to remaining.
func Apportion(remaining int, votesByParty map[string]int64) map[string]int {
	if remaining <= 0 {
		return map[string]int{}
	}

	type share struct {
		party     string
		base      int
		remainder float64
	}

	var totalVotes int64
	for _, votes := range votesByParty {
		if votes > 0 {
			totalVotes += votes
		}
	}
	if totalVotes == 0 {
		return map[string]int{}
	}

	shares := make([]share, 0, len(votesByParty))
	allocated := 0
	for party, votes := range votesByParty {
		if votes <= 0 {
			continue
		}
		quota := float64(votes) / float64(totalVotes) * float64(remaining)
		base := int(math.Floor(quota))
		allocated += base
		shares = append(shares, share{party: party, base: base, remainder: quota - float64(base)})
	}

	sort.Slice(shares, func(i, j int) bool {
		if shares[i].remainder != shares[j].remainder {
			return shares[i].remainder > shares[j].remainder
		}
		return shares[i].party > shares[j].party
	})

	seats := make(map[string]int, len(shares))
	for i, s := range shares {
		if i < remaining-allocated {
			s.base++
		}
		seats[s.party] = s.base
	}

	return seats
}
