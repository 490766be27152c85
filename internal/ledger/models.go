package ledger

import "time"

// Status represents the lifecycle state of an episode.
type Status string

const (
	StatusPending      Status = "pending"
	StatusAcquiring    Status = "acquiring"
	StatusTranscribing Status = "transcribing"
	StatusClassifying  Status = "classifying"
	StatusLabeling     Status = "labeling"
	StatusSummarizing  Status = "summarizing"
	StatusPersisting   Status = "persisting"
	StatusWritten      Status = "written"
	StatusFailed       Status = "failed"
	StatusReview       Status = "review"
)

var allStatuses = []Status{
	StatusPending,
	StatusAcquiring,
	StatusTranscribing,
	StatusClassifying,
	StatusLabeling,
	StatusSummarizing,
	StatusPersisting,
	StatusWritten,
	StatusFailed,
	StatusReview,
}

var inFlightStatuses = []Status{
	StatusAcquiring,
	StatusTranscribing,
	StatusClassifying,
	StatusLabeling,
	StatusSummarizing,
	StatusPersisting,
}

// AllStatuses returns every status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// IsTerminal reports whether no further stage runs for the status.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusWritten, StatusFailed, StatusReview:
		return true
	}
	return false
}

// IsInFlight reports whether the status belongs to an executing stage.
func (s Status) IsInFlight() bool {
	for _, candidate := range inFlightStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// ParseStatus maps a string to a known status.
func ParseStatus(value string) (Status, bool) {
	for _, s := range allStatuses {
		if string(s) == value {
			return s, true
		}
	}
	return "", false
}

// Entry is one episode's ledger row.
type Entry struct {
	ID           int64
	AudioURL     string
	Title        string
	Status       Status
	RunID        string
	Attempts     int
	PrimaryTag   string
	Segments     int
	Windows      int
	ErrorKind    string
	ErrorMessage string
	CreatedAt    time.Time
	WrittenAt    time.Time
	UpdatedAt    time.Time
}

// Persisted reports whether the episode's row has reached the warehouse.
func (e *Entry) Persisted() bool {
	return e != nil && !e.WrittenAt.IsZero()
}
