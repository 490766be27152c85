package audio

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"podenrich/internal/logging"
)

// Scratch removes per-episode temporary files.
type Scratch struct {
	logger *slog.Logger
}

// NewScratch builds a Scratch that reports removal problems to logger.
func NewScratch(logger *slog.Logger) *Scratch {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scratch{logger: logger}
}

// Release removes every path. Files already gone are ignored; other failures
// are logged and returned joined.
func (s *Scratch) Release(paths ...string) error {
	var errs []error
	for _, path := range paths {
		if strings.TrimSpace(path) == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("scratch file not removed",
				logging.String("path", path),
				logging.Error(err),
			)
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}
