package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cfeval/internal/harness"
	"github.com/roach88/cfeval/internal/ir"
)

func rankingResults(t *testing.T) []harness.ProgramResult {
	t.Helper()
	cases := loadFixtures(t)
	return []harness.ProgramResult{
		harness.NewProgramResult(cases[0], []ir.Explanation{
			expl(ir.NewInsert("p2", ir.Single("C3"))),
			expl(ir.NewRemove("p1", ir.NewSet("C1"))),
			expl(ir.NewInsert("p2", ir.Single("C2")), ir.NewRemove("p1", ir.NewSet("C1"))),
		}, nil),
		harness.NewProgramResult(cases[1], []ir.Explanation{
			expl(ir.NewModify("p3", ir.NewSet("A"), ir.NewSet("B"))),
		}, nil),
		harness.NewProgramResult(cases[2], nil, nil),
	}
}

func TestRanking_Analyze(t *testing.T) {
	report, err := NewRanking().Analyze(rankingResults(t))
	require.NoError(t, err)
	assert.Equal(t, RankingName, report.Analyzer)

	data, ok := report.Data.(RankingData)
	require.True(t, ok)
	require.Len(t, data.Items, 3)
	assert.Equal(t, []int{1}, data.Items[0].Ranks)
	assert.Equal(t, []int{0}, data.Items[1].Ranks)
	assert.Equal(t, []int{}, data.Items[2].Ranks)
	assert.Equal(t, -1, data.Items[2].FirstHit())

	require.NotNil(t, data.Summary)
	assert.Equal(t, 3, data.Summary.TestCases)
	assert.Equal(t, 2, data.Summary.Hits)
	assert.InDelta(t, 0.5, data.Summary.MeanReciprocalRank, 1e-9)

	newGoldie(t).Assert(t, "ranking_report", []byte(report.Text))
}

func TestRanking_AnalyzeOne(t *testing.T) {
	results := rankingResults(t)

	report, err := NewRanking().AnalyzeOne(results[1])
	require.NoError(t, err)

	data := report.Data.(RankingData)
	assert.Nil(t, data.Summary)
	require.Len(t, data.Items, 1)
	assert.Equal(t, harness.Key("2"), data.Items[0].Key)

	newGoldie(t).Assert(t, "ranking_one", []byte(report.Text))
}

func TestRanking_AnalyzeEmpty(t *testing.T) {
	report, err := NewRanking().Analyze(nil)
	require.NoError(t, err)

	data := report.Data.(RankingData)
	assert.Empty(t, data.Items)
	assert.Equal(t, RankingSummary{}, *data.Summary)
}
