package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/roach88/cfeval/internal/harness"
)

// PerformanceName identifies performance reports.
const PerformanceName = "performance"

var (
	// ErrTimerNotStarted is returned for a test case with no BeforeTestCase call.
	ErrTimerNotStarted = errors.New("timer not started")

	// ErrTimerNotStopped is returned for a test case with no AfterTestCase call.
	ErrTimerNotStopped = errors.New("timer not stopped")
)

// Interval is the duration between two consecutive checkpoints.
type Interval struct {
	From     string        `json:"from"`
	To       string        `json:"to"`
	Duration time.Duration `json:"duration_ns"`
}

// PerformanceItem is the timing of one test case.
type PerformanceItem struct {
	Key       harness.Key   `json:"key"`
	TestCase  string        `json:"test_case"`
	Elapsed   time.Duration `json:"elapsed_ns"`
	Intervals []Interval    `json:"intervals,omitempty"`
}

func (it PerformanceItem) String() string {
	s := fmt.Sprintf("Example (%s): %s\nTime (in s): %s\n", it.Key, it.TestCase, seconds(it.Elapsed))
	if len(it.Intervals) == 0 {
		return s
	}
	s += "Checkpoints:"
	for _, iv := range it.Intervals {
		s += fmt.Sprintf("\n%s => %s: %s", iv.From, iv.To, seconds(iv.Duration))
	}
	return s
}

// PerformanceSummary aggregates elapsed times.
type PerformanceSummary struct {
	TestCases int           `json:"test_cases"`
	Mean      time.Duration `json:"mean_ns"`
	StdDev    time.Duration `json:"stddev_ns"`
}

func (s PerformanceSummary) String() string {
	return fmt.Sprintf("Summary:\nMean time (in s): %s\nStd dev (in s): %s", seconds(s.Mean), seconds(s.StdDev))
}

// PerformanceData is attached to performance reports.
type PerformanceData struct {
	Items   []PerformanceItem   `json:"items"`
	Summary *PerformanceSummary `json:"summary,omitempty"`
}

type timer struct {
	begin, end time.Time
	stopped    bool
}

// Performance times test cases between the BeforeTestCase and AfterTestCase
// hooks.
//
// Timers are keyed by test case key and kept for the analyzer's lifetime.
// Not safe for concurrent use: test cases must run one after another.
type Performance struct {
	clock  harness.Clock
	timers map[harness.Key]*timer
}

var _ harness.Analyzer = (*Performance)(nil)

// NewPerformance creates a performance analyzer reading the given clock.
// A nil clock reads the system clock.
func NewPerformance(clock harness.Clock) *Performance {
	if clock == nil {
		clock = harness.SystemClock{}
	}
	return &Performance{clock: clock, timers: make(map[harness.Key]*timer)}
}

// Name returns PerformanceName.
func (*Performance) Name() string { return PerformanceName }

// BeforeTestCase starts the timer of tc, restarting it if it already ran.
func (p *Performance) BeforeTestCase(_ context.Context, tc *harness.TestCase) error {
	p.timers[tc.Key()] = &timer{begin: p.clock.Now()}
	return nil
}

// AfterTestCase stops the timer of tc.
func (p *Performance) AfterTestCase(_ context.Context, tc *harness.TestCase) error {
	t, ok := p.timers[tc.Key()]
	if !ok {
		return fmt.Errorf("test case %s: %w", tc.Key(), ErrTimerNotStarted)
	}
	t.end = p.clock.Now()
	t.stopped = true
	return nil
}

// Elapsed returns the measured duration of a test case.
func (p *Performance) Elapsed(key harness.Key) (time.Duration, error) {
	t, ok := p.timers[key]
	if !ok {
		return 0, fmt.Errorf("test case %s: %w", key, ErrTimerNotStarted)
	}
	if !t.stopped {
		return 0, fmt.Errorf("test case %s: %w", key, ErrTimerNotStopped)
	}
	return t.end.Sub(t.begin), nil
}

// Analyze times every result and appends a summary.
func (p *Performance) Analyze(results []harness.ProgramResult) (harness.Report, error) {
	items := make([]PerformanceItem, len(results))
	for i, res := range results {
		it, err := p.item(res)
		if err != nil {
			return harness.Report{}, err
		}
		items[i] = it
	}
	summary := summarizePerformance(items)
	return p.report(PerformanceData{Items: items, Summary: &summary}), nil
}

// AnalyzeOne times a single result without a summary.
func (p *Performance) AnalyzeOne(result harness.ProgramResult) (harness.Report, error) {
	it, err := p.item(result)
	if err != nil {
		return harness.Report{}, err
	}
	return p.report(PerformanceData{Items: []PerformanceItem{it}}), nil
}

func (p *Performance) item(res harness.ProgramResult) (PerformanceItem, error) {
	tc := res.TestCase()
	elapsed, err := p.Elapsed(tc.Key())
	if err != nil {
		return PerformanceItem{}, err
	}
	return PerformanceItem{
		Key:       tc.Key(),
		TestCase:  tc.String(),
		Elapsed:   elapsed,
		Intervals: Intervals(res.Meta().Checkpoints),
	}, nil
}

func (p *Performance) report(data PerformanceData) harness.Report {
	texts := make([]string, len(data.Items))
	for i, it := range data.Items {
		texts[i] = it.String()
	}
	summary := ""
	if data.Summary != nil {
		summary = data.Summary.String()
	}
	return harness.Report{
		Analyzer: PerformanceName,
		Text:     render("Performance analysis:", texts, summary),
		Data:     data,
	}
}

// Intervals pairs consecutive checkpoints in recording order.
func Intervals(checkpoints []harness.Checkpoint) []Interval {
	if len(checkpoints) < 2 {
		return nil
	}
	out := make([]Interval, 0, len(checkpoints)-1)
	for i := 1; i < len(checkpoints); i++ {
		prev, cur := checkpoints[i-1], checkpoints[i]
		out = append(out, Interval{From: prev.Name, To: cur.Name, Duration: cur.At.Sub(prev.At)})
	}
	return out
}

func summarizePerformance(items []PerformanceItem) PerformanceSummary {
	s := PerformanceSummary{TestCases: len(items)}
	if len(items) == 0 {
		return s
	}
	secs := make([]float64, len(items))
	for i, it := range items {
		secs[i] = it.Elapsed.Seconds()
	}
	mean := stat.Mean(secs, nil)
	s.Mean = time.Duration(mean * float64(time.Second))
	if len(secs) > 1 {
		s.StdDev = time.Duration(stat.StdDev(secs, nil) * float64(time.Second))
	}
	return s
}
