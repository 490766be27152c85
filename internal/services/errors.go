package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAcquisition   = errors.New("acquisition error")
	ErrCapability    = errors.New("capability error")
	ErrContent       = errors.New("content error")
	ErrPersistence   = errors.New("persistence error")
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Kind labels persisted in the ledger and emitted as error_kind log fields.
const (
	KindAcquisition   = "acquisition"
	KindCapability    = "capability"
	KindContent       = "content"
	KindPersistence   = "persistence"
	KindExternalTool  = "external_tool"
	KindValidation    = "validation"
	KindConfiguration = "configuration"
	KindTimeout       = "timeout"
	KindCanceled      = "canceled"
	KindTransient     = "transient"
)

var kindMarkers = []struct {
	marker error
	kind   string
}{
	{ErrAcquisition, KindAcquisition},
	{ErrCapability, KindCapability},
	{ErrContent, KindContent},
	{ErrPersistence, KindPersistence},
	{ErrExternalTool, KindExternalTool},
	{ErrValidation, KindValidation},
	{ErrConfiguration, KindConfiguration},
	{ErrTimeout, KindTimeout},
	{ErrTransient, KindTransient},
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// KindOf returns the stable label for the first marker found in err.
// Cancellation wins over any marker so interrupted runs are not reported as
// capability failures.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	for _, km := range kindMarkers {
		if errors.Is(err, km.marker) {
			return km.kind
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindTransient
}

// Decision tells the pipeline driver how to react to a stage failure.
type Decision int

const (
	// DecisionAbortEpisode records the failure and moves on to the next episode.
	DecisionAbortEpisode Decision = iota
	// DecisionAbortRun stops processing the remaining episodes.
	DecisionAbortRun
)

func (d Decision) String() string {
	switch d {
	case DecisionAbortRun:
		return "abort_run"
	default:
		return "abort_episode"
	}
}

// Decide maps a stage error to the driver decision. Only cancellation and
// configuration problems stop the run; every other failure is isolated to
// the episode that produced it.
func Decide(err error) Decision {
	switch {
	case err == nil:
		return DecisionAbortEpisode
	case errors.Is(err, context.Canceled), errors.Is(err, ErrConfiguration):
		return DecisionAbortRun
	default:
		return DecisionAbortEpisode
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
