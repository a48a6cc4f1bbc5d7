package question

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// maxLineBytes bounds a single serialized record. Questions embed LaTeX but
// stay far below this; the headroom covers long perturbation variants.
const maxLineBytes = 4 << 20

// Writer appends records to a JSONL artifact one complete line at a time, so
// an interrupted run leaves a readable prefix rather than a corrupt file.
type Writer struct {
	file *os.File
	enc  *json.Encoder
}

// NewWriter truncates (or creates) the artifact at path and returns a writer
// positioned at its start.
func NewWriter(path string) (*Writer, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open artifact %s: %w", path, err)
	}
	enc := json.NewEncoder(file)
	enc.SetEscapeHTML(false)
	return &Writer{file: file, enc: enc}, nil
}

// Append serializes one record and flushes it as a single line.
func (w *Writer) Append(rec Record) error {
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return w.file.Sync()
}

// Close releases the artifact file handle.
func (w *Writer) Close() error {
	if w == nil || w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// ReadLines loads every record from a JSONL artifact, preserving line order.
// Blank lines are ignored; a malformed line is an error because artifacts are
// only ever produced by this process.
func ReadLines(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var records []Record
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("parse %s line %d: %w", path, line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}
	return records, nil
}
