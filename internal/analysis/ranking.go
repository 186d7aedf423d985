package analysis

import (
	"fmt"
	"slices"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/roach88/cfeval/internal/harness"
	"github.com/roach88/cfeval/internal/ir"
)

// RankingName identifies ranking reports.
const RankingName = "ranking"

// RankingItem is the ranking outcome of one test case.
type RankingItem struct {
	Key          harness.Key      `json:"key"`
	TestCase     string           `json:"test_case"`
	Ranks        []int            `json:"ranks"`
	Explanations []ir.Explanation `json:"explanations"`
}

// Expected reports whether the explanation at rank i matched.
func (it RankingItem) Expected(i int) bool {
	return slices.Contains(it.Ranks, i)
}

// FirstHit returns the best matching rank, or -1.
func (it RankingItem) FirstHit() int {
	if len(it.Ranks) == 0 {
		return -1
	}
	return it.Ranks[0]
}

func (it RankingItem) String() string {
	blocks := make([]string, len(it.Explanations))
	for i, e := range it.Explanations {
		heading := fmt.Sprintf("Explanation #%d", i+1)
		if it.Expected(i) {
			heading += " (expected)"
		}
		blocks[i] = heading + "\n" + e.String()
	}
	return fmt.Sprintf("Example: %s\nRanking:\n%s", it.TestCase, strings.Join(blocks, "\n\n"))
}

// RankingSummary aggregates ranking items.
type RankingSummary struct {
	TestCases int `json:"test_cases"`
	Hits      int `json:"hits"`

	// MeanReciprocalRank averages 1/(first hit + 1), counting misses as 0.
	MeanReciprocalRank float64 `json:"mean_reciprocal_rank"`
}

func (s RankingSummary) String() string {
	return fmt.Sprintf("Summary:\nMatched: %d/%d\nMean reciprocal rank: %s", s.Hits, s.TestCases, ratio(s.MeanReciprocalRank))
}

// RankingData is attached to ranking reports.
type RankingData struct {
	Items   []RankingItem   `json:"items"`
	Summary *RankingSummary `json:"summary,omitempty"`
}

// Ranking finds the ranks at which expected explanations were generated.
type Ranking struct {
	harness.NopHooks
}

var _ harness.Analyzer = (*Ranking)(nil)

// NewRanking creates a ranking analyzer.
func NewRanking() *Ranking { return &Ranking{} }

// Name returns RankingName.
func (*Ranking) Name() string { return RankingName }

// Analyze ranks every result and appends a summary.
func (r *Ranking) Analyze(results []harness.ProgramResult) (harness.Report, error) {
	items := make([]RankingItem, len(results))
	for i, res := range results {
		items[i] = r.item(res)
	}
	summary := summarizeRanking(items)
	return r.report(RankingData{Items: items, Summary: &summary}), nil
}

// AnalyzeOne ranks a single result without a summary.
func (r *Ranking) AnalyzeOne(result harness.ProgramResult) (harness.Report, error) {
	return r.report(RankingData{Items: []RankingItem{r.item(result)}}), nil
}

func (r *Ranking) item(res harness.ProgramResult) RankingItem {
	tc := res.TestCase()
	explanations := res.Explanations()
	return RankingItem{
		Key:          tc.Key(),
		TestCase:     tc.String(),
		Ranks:        Ranks(explanations, tc.Expected()),
		Explanations: explanations,
	}
}

func (r *Ranking) report(data RankingData) harness.Report {
	texts := make([]string, len(data.Items))
	for i, it := range data.Items {
		texts[i] = it.String()
	}
	summary := ""
	if data.Summary != nil {
		summary = data.Summary.String()
	}
	return harness.Report{
		Analyzer: RankingName,
		Text:     render("Ranking analysis:", texts, summary),
		Data:     data,
	}
}

func summarizeRanking(items []RankingItem) RankingSummary {
	s := RankingSummary{TestCases: len(items)}
	if len(items) == 0 {
		return s
	}
	reciprocal := make([]float64, len(items))
	for i, it := range items {
		if hit := it.FirstHit(); hit >= 0 {
			s.Hits++
			reciprocal[i] = 1 / float64(hit+1)
		}
	}
	s.MeanReciprocalRank = stat.Mean(reciprocal, nil)
	return s
}
