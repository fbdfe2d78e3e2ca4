package studio

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseDispatching
	PhaseSettled
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhaseDispatching:
		return "dispatching"
	case PhaseSettled:
		return "settled"
	default:
		return "unknown"
	}
}

type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeSuccess
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return "none"
	}
}

type SlotStatus int

const (
	SlotPending SlotStatus = iota
	SlotLoaded
	SlotFailed
)

func (s SlotStatus) String() string {
	switch s {
	case SlotPending:
		return "pending"
	case SlotLoaded:
		return "loaded"
	case SlotFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// GenerationResult is one rendered image as reported by the service.
// Timestamp is the client-side capture time in Unix milliseconds.
type GenerationResult struct {
	Image     string
	Prompt    string
	Settings  map[string]any
	Timestamp int64
}

// Slot is one position of a batch. Result is set only when Status is SlotLoaded.
type Slot struct {
	Index  int
	Status SlotStatus
	Result *GenerationResult
}

// Snapshot is the orchestrator state handed to observers.
//
// Dispatching snapshots carry Count and Slots. Settled snapshots carry the
// Outcome and either Results (success, in slot order) or Message and Err
// (failure). A failed batch exposes no results.
type Snapshot struct {
	Phase   Phase
	Count   int
	Slots   []Slot
	Outcome Outcome
	Results []GenerationResult
	Message string
	Err     error
}

func (s Snapshot) clone() Snapshot {
	if s.Slots != nil {
		s.Slots = append([]Slot(nil), s.Slots...)
	}
	if s.Results != nil {
		s.Results = append([]GenerationResult(nil), s.Results...)
	}
	return s
}

// Observer receives every state transition, in order, from the goroutine
// driving the generation.
type Observer interface {
	OnStateChange(Snapshot)
}

type ObserverFunc func(Snapshot)

func (f ObserverFunc) OnStateChange(s Snapshot) {
	f(s)
}
