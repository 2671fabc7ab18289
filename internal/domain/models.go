package domain

import (
	"time"
)

type (
	CandidateID string
	DeviceHash  string
)

// Constituency is reference data produced by the dataset import. Everything
// except IsDisabled is immutable after import.
type Constituency struct {
	ConstituencyNo int         `gorm:"column:constituency_no;primaryKey;autoIncrement:false"`
	Division       string      `gorm:"column:division;type:text;not null"`
	Seat           string      `gorm:"column:seat;type:text;not null"`
	Notes          string      `gorm:"column:notes;type:text"`
	IsDisabled     bool        `gorm:"column:is_disabled;not null;default:false"`
	Candidates     []Candidate `gorm:"foreignKey:ConstituencyNo;references:ConstituencyNo;constraint:OnDelete:CASCADE"`
}

// Candidate never exists outside its constituency; the ID is derived from
// (constituency, alliance, party, name) at import time.
type Candidate struct {
	ID             CandidateID `gorm:"column:id;type:char(40);primaryKey"`
	ConstituencyNo int         `gorm:"column:constituency_no;not null;index"`
	Name           string      `gorm:"column:name;type:text;not null"`
	Party          string      `gorm:"column:party;type:text;not null"`
	AllianceKey    string      `gorm:"column:alliance_key;type:text;not null"`
}

// Voter exists exactly once per device hash. The primary key on DeviceHash is
// the one and only guard against double voting.
type Voter struct {
	DeviceHash  DeviceHash `gorm:"column:device_hash;type:char(64);primaryKey"`
	FirstSeenAt time.Time  `gorm:"column:first_seen_at;not null"`
	LastSeenAt  time.Time  `gorm:"column:last_seen_at;not null"`
	IPPrefix    string     `gorm:"column:ip_prefix;type:text"`
	UAHash      string     `gorm:"column:ua_hash;type:char(64)"`
	LangHash    string     `gorm:"column:lang_hash;type:char(64)"`
}

// Vote is the append-only audit row written alongside every tally increment.
type Vote struct {
	ID             string      `gorm:"column:id;type:char(26);primaryKey"`
	ConstituencyNo int         `gorm:"column:constituency_no;not null;index:idx_votes_constituency"`
	CandidateID    CandidateID `gorm:"column:candidate_id;type:char(40);not null"`
	AllianceKey    string      `gorm:"column:alliance_key;type:text"`
	Party          string      `gorm:"column:party;type:text"`
	VotedAt        time.Time   `gorm:"column:voted_at;not null"`
	DeviceHash     DeviceHash  `gorm:"column:device_hash;type:char(64);not null;index:idx_votes_device"`
	IPPrefix       string      `gorm:"column:ip_prefix;type:text"`
	UAHash         string      `gorm:"column:ua_hash;type:char(64)"`
}

// Tally is the live per-constituency counter state, created lazily on the
// first accepted vote and mutated only by atomic increments.
type Tally struct {
	ConstituencyNo int
	Totals         map[CandidateID]int64
	UpdatedAt      time.Time
}

// TotalVotes sums every candidate counter of the tally.
func (t Tally) TotalVotes() int64 {
	var sum int64
	for _, v := range t.Totals {
		sum += v
	}
	return sum
}

// Ballot is an admitted vote request after the transport layer resolved the
// device identity.
type Ballot struct {
	ConstituencyNo int
	CandidateID    CandidateID
	DeviceHash     DeviceHash
	IPPrefix       string
	UAHash         string
	LangHash       string
}

// Leader identifies the strict-maximum candidate of a constituency.
type Leader struct {
	CandidateID CandidateID `json:"candidate_id"`
	Name        string      `json:"name"`
	Party       string      `json:"party"`
	AllianceKey string      `json:"alliance_key"`
	Votes       int64       `json:"votes"`
}

// VoteReceipt is returned to the voter right after the vote committed.
type VoteReceipt struct {
	Totals map[CandidateID]int64
	Leader *Leader
	IsTied bool
}

// ConstituencyResult is the single-constituency view: reference data joined
// with the live tally and the resolved leader.
type ConstituencyResult struct {
	Constituency Constituency
	Totals       map[CandidateID]int64
	Leader       *Leader
	IsTied       bool
}

// ConstituencyFilter narrows constituency listings; the zero value lists all.
type ConstituencyFilter struct {
	Division string
	SeatLike string
}

func (Constituency) TableName() string { return "constituencies" }

func (Candidate) TableName() string { return "candidates" }

func (Voter) TableName() string { return "voters" }

func (Vote) TableName() string { return "votes" }
