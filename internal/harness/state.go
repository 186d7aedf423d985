package harness

// State is a stage in the processing of one test case or of a whole run.
type State string

// Run states.
const (
	StateIdle      State = "idle"
	StateLoading   State = "loading"
	StateAnalyzing State = "analyzing"
	StateDone      State = "done"
)

// Test case states.
const (
	StateNotStarted    State = "not_started"
	StateMaterializing State = "materializing"
	StateRunning       State = "running"
	StateDestroying    State = "destroying"
	StateRecorded      State = "recorded"
	StateSkipped       State = "skipped"
)
