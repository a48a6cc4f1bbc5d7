package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks failures detected before any API usage:
	// missing credential, missing directory, absent prompt template.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation marks a model response that is not valid JSON or fails
	// the record shape rules. Recovered per item.
	ErrValidation = errors.New("validation error")
	// ErrExhausted marks a stage that produced zero usable records. Always
	// terminal for the run.
	ErrExhausted = errors.New("stage exhausted")
	// ErrTransient marks network and API failures. Recovered per item.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
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

// IsTerminal reports whether an error must abort the whole run rather than
// skip a single item.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrExhausted)
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
