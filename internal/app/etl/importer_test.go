package etl

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakibhasan/jonomot/internal/domain"
)

type memoryRepo struct {
	rows map[int]domain.Constituency
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: map[int]domain.Constituency{}}
}

func (m *memoryRepo) Upsert(ctx context.Context, c domain.Constituency) error {
	m.rows[c.ConstituencyNo] = c
	return nil
}

func (m *memoryRepo) FindByNo(ctx context.Context, no int) (domain.Constituency, error) {
	c, ok := m.rows[no]
	if !ok {
		return domain.Constituency{}, domain.ErrNotFound
	}
	return c, nil
}

func (m *memoryRepo) List(ctx context.Context, filter domain.ConstituencyFilter) ([]domain.Constituency, error) {
	return nil, nil
}

func (m *memoryRepo) SetDisabled(ctx context.Context, no int, disabled bool) error {
	return nil
}

const sampleCSV = "\ufeffconstituency_no,division,seat,notes,bnp_party,bnp_candidate,jp_party,jp_candidate,alliance_party,alliance_candidate\n" +
	"1,Rangpur,Panchagarh-1,,BNP,Kamrul Islam,,Abul Kashem,Jamaat,Rafiq Uddin\n" +
	"2,Rangpur,Panchagarh-2,boundary changed,BNP,Farhana Akter,,,,\n"

func TestImporter_ImportCSV_WhenRowsValid_ShouldUpsertConstituenciesWithCandidateSlots(t *testing.T) {
	repo := newMemoryRepo()
	importer := NewImporter(repo)

	count, err := importer.ImportCSV(context.Background(), strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	first := repo.rows[1]
	assert.Equal(t, "Rangpur", first.Division)
	assert.Equal(t, "Panchagarh-1", first.Seat)
	require.Len(t, first.Candidates, 3)

	byAlliance := map[string]domain.Candidate{}
	for _, cand := range first.Candidates {
		byAlliance[cand.AllianceKey] = cand
	}
	assert.Equal(t, "Kamrul Islam", byAlliance["BNP"].Name)
	assert.Equal(t, "BNP", byAlliance["BNP"].Party)
	// An empty party column falls back to the alliance's default label.
	assert.Equal(t, "Jatiya Party (Ershad)", byAlliance["JP"].Party)
	assert.Equal(t, "Jamaat", byAlliance["11PA"].Party)

	second := repo.rows[2]
	assert.Equal(t, "boundary changed", second.Notes)
	// Empty candidate slots are skipped entirely.
	require.Len(t, second.Candidates, 1)
	assert.Equal(t, "BNP", second.Candidates[0].AllianceKey)
}

func TestImporter_ImportCSV_ShouldDeriveStableCandidateIDs(t *testing.T) {
	repo := newMemoryRepo()
	importer := NewImporter(repo)
	ctx := context.Background()

	_, err := importer.ImportCSV(ctx, strings.NewReader(sampleCSV))
	require.NoError(t, err)
	firstRun := repo.rows[1].Candidates

	_, err = importer.ImportCSV(ctx, strings.NewReader(sampleCSV))
	require.NoError(t, err)
	secondRun := repo.rows[1].Candidates

	require.Equal(t, len(firstRun), len(secondRun))
	for i := range firstRun {
		assert.Equal(t, firstRun[i].ID, secondRun[i].ID)
	}
	assert.Equal(t, CandidateID(1, "BNP", "BNP", "Kamrul Islam"), firstRun[0].ID)
}

func TestImporter_ImportCSV_WhenHeaderLacksConstituencyNo_ShouldFail(t *testing.T) {
	importer := NewImporter(newMemoryRepo())

	_, err := importer.ImportCSV(context.Background(), strings.NewReader("division,seat\nRangpur,Panchagarh-1\n"))

	assert.Error(t, err)
}

func TestImporter_ImportCSV_WhenConstituencyNoIsNotANumber_ShouldFailWithPartialCount(t *testing.T) {
	repo := newMemoryRepo()
	importer := NewImporter(repo)

	csv := "constituency_no,division,seat\n" +
		"1,Rangpur,Panchagarh-1\n" +
		"oops,Rangpur,Panchagarh-2\n"

	count, err := importer.ImportCSV(context.Background(), strings.NewReader(csv))

	assert.Error(t, err)
	assert.Equal(t, 1, count)
	assert.Len(t, repo.rows, 1)
}
