// Package etl turns the offline candidates CSV into the validated
// constituency dataset the core reads. It runs as a one-shot batch from
// cmd/importer; the serving path never writes this data.
package etl

import (
	"context"
	"crypto/sha1"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rakibhasan/jonomot/internal/domain"
)

// The dataset carries up to three candidate slots per constituency, one per
// contesting alliance, with a default party label when the CSV leaves the
// party column blank.
var slots = []struct {
	allianceKey  string
	partyCol     string
	candidateCol string
	defaultParty string
}{
	{"BNP", "bnp_party", "bnp_candidate", "BNP"},
	{"JP", "jp_party", "jp_candidate", "Jatiya Party (Ershad)"},
	{"11PA", "alliance_party", "alliance_candidate", "11 Party Alliance"},
}

// CandidateID derives the stable candidate key from the identifying columns;
// re-importing the same row always produces the same id.
func CandidateID(constituencyNo int, allianceKey, party, name string) domain.CandidateID {
	sum := sha1.Sum([]byte(fmt.Sprintf("%d|%s|%s|%s", constituencyNo, allianceKey, party, name)))
	return domain.CandidateID(hex.EncodeToString(sum[:]))
}

// Importer upserts CSV rows into the constituency repository.
type Importer struct {
	repo domain.ConstituencyRepository
}

func NewImporter(repo domain.ConstituencyRepository) *Importer {
	return &Importer{repo: repo}
}

// ImportCSV reads a header-keyed CSV and upserts one constituency per row,
// returning the number of rows imported.
func (i *Importer) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("etl: read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for idx, name := range header {
		// Excel exports prepend a BOM to the first column name.
		columns[strings.TrimPrefix(name, "\ufeff")] = idx
	}
	if _, ok := columns["constituency_no"]; !ok {
		return 0, fmt.Errorf("etl: missing constituency_no column")
	}

	count := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("etl: read row: %w", err)
		}

		constituency, err := parseRow(columns, record)
		if err != nil {
			return count, err
		}
		if err := i.repo.Upsert(ctx, constituency); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func parseRow(columns map[string]int, record []string) (domain.Constituency, error) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	no, err := strconv.Atoi(field("constituency_no"))
	if err != nil {
		return domain.Constituency{}, fmt.Errorf("etl: invalid constituency_no %q: %w", field("constituency_no"), err)
	}

	constituency := domain.Constituency{
		ConstituencyNo: no,
		Division:       field("division"),
		Seat:           field("seat"),
		Notes:          field("notes"),
	}

	for _, slot := range slots {
		name := field(slot.candidateCol)
		if name == "" {
			continue
		}
		party := field(slot.partyCol)
		if party == "" {
			party = slot.defaultParty
		}
		constituency.Candidates = append(constituency.Candidates, domain.Candidate{
			ID:             CandidateID(no, slot.allianceKey, party, name),
			ConstituencyNo: no,
			Name:           name,
			Party:          party,
			AllianceKey:    slot.allianceKey,
		})
	}

	return constituency, nil
}
