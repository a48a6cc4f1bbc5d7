package question

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Record is a single exam question. Only the question text is required;
// every other field defaults to its zero value when the model omits it.
type Record struct {
	ID         string   `json:"id,omitempty"`
	Exam       string   `json:"exam,omitempty"`
	Year       int      `json:"year,omitempty"`
	Difficulty int      `json:"difficulty,omitempty"`
	Topics     []string `json:"topics,omitempty"`
	Question   string   `json:"question"`
	Marks      int      `json:"marks,omitempty"`
}

// Validate checks the shape rules enforced on model output: question text
// present, difficulty within [1,5] when set, marks and year non-negative.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return errors.New("question text is required")
	}
	if r.Difficulty != 0 && (r.Difficulty < 1 || r.Difficulty > 5) {
		return fmt.Errorf("difficulty %d outside [1,5]", r.Difficulty)
	}
	if r.Marks < 0 {
		return fmt.Errorf("marks %d must be non-negative", r.Marks)
	}
	if r.Year < 0 {
		return fmt.Errorf("year %d must be non-negative", r.Year)
	}
	return nil
}

// Normalize canonicalizes textual fields to Unicode NFC so artifacts
// round-trip byte-stably, and assigns a fresh identifier when the model
// left the id empty.
func (r *Record) Normalize() {
	r.ID = strings.TrimSpace(norm.NFC.String(r.ID))
	r.Exam = strings.TrimSpace(norm.NFC.String(r.Exam))
	r.Question = norm.NFC.String(r.Question)
	for i, topic := range r.Topics {
		r.Topics[i] = strings.TrimSpace(norm.NFC.String(topic))
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
}
