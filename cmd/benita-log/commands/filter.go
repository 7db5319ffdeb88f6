package commands

import (
	"fmt"

	"github.com/benita-io/benita-go/pkg/log"
)

// RunFilter copies the events of path matching filter into a new capture
// file at output and returns how many were written.
func RunFilter(path, output string, filter log.Filter) (int, error) {
	if output == "" {
		return 0, fmt.Errorf("output file is required")
	}
	if output == path {
		return 0, fmt.Errorf("output file must differ from input")
	}

	logger, err := log.NewFileLogger(output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output logger: %w", err)
	}

	count := 0
	err = eachEvent(path, filter, func(event log.Event) error {
		logger.Log(event)
		count++
		return nil
	})
	if cerr := logger.Close(); err == nil && cerr != nil {
		err = cerr
	}
	return count, err
}
