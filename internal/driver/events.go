package driver

// Stage names a step of a check run.
type Stage uint8

const (
	StageDiscover Stage = iota
	StageCatalog
	StageUsage
	StageFinalize
)

func (s Stage) String() string {
	switch s {
	case StageDiscover:
		return "discover"
	case StageCatalog:
		return "catalog"
	case StageUsage:
		return "usage"
	case StageFinalize:
		return "finalize"
	}
	return "unknown"
}

// Status reports whether a stage or file started or finished.
type Status uint8

const (
	StatusQueued Status = iota
	StatusWorking
	StatusDone
	StatusError
)

// Event describes progress. File is empty for stage-wide events.
type Event struct {
	Stage  Stage
	Status Status
	File   string
}

// Observer receives events from Run. It is called from worker goroutines and
// must not block for long.
type Observer func(Event)

func (o Observer) emit(ev Event) {
	if o != nil {
		o(ev)
	}
}
