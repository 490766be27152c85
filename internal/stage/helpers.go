package stage

import (
	"fmt"
	"strings"

	"podenrich/internal/episode"
	"podenrich/internal/services"
)

// RequireText returns a services.ErrValidation when a field an earlier stage
// should have filled is blank.
func RequireText(stageName, field, value string) error {
	if strings.TrimSpace(value) != "" {
		return nil
	}
	return services.Wrap(
		services.ErrValidation, stageName, "prepare",
		fmt.Sprintf("%s missing; earlier stage did not complete", field), nil)
}

// RequireRecord guards against a nil record or one without a title.
func RequireRecord(stageName string, rec *episode.Record) error {
	if rec == nil {
		return services.Wrap(services.ErrValidation, stageName, "prepare", "Episode record missing", nil)
	}
	return RequireText(stageName, "title", rec.Title)
}
