package pipeline

import (
	"time"

	"podenrich/internal/ledger"
)

// StatusSkipped marks an episode left alone because it was already written.
const StatusSkipped ledger.Status = "skipped"

// Result is the outcome of one episode within a run.
type Result struct {
	Title      string
	AudioURL   string
	Status     ledger.Status
	Stage      string
	ErrorKind  string
	Message    string
	PrimaryTag string
	Segments   int
	Windows    int
	Elapsed    time.Duration
}

// Report summarizes a run.
type Report struct {
	RunID     string
	DryRun    bool
	Selected  int
	Processed int
	Skipped   int
	Written   int
	Review    int
	Failed    int
	// RowCount is the sink row count read back after the run; -1 when it
	// could not be read or no sink was used.
	RowCount int64
	Aborted  bool
	Results  []Result
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
	switch res.Status {
	case StatusSkipped:
		r.Skipped++
		return
	case ledger.StatusWritten:
		r.Written++
	case ledger.StatusReview:
		r.Review++
	case ledger.StatusFailed:
		r.Failed++
	}
	r.Processed++
}

// StatusEnriched marks an episode that ran every enrichment stage in a dry
// run without being written.
const StatusEnriched ledger.Status = "enriched"
