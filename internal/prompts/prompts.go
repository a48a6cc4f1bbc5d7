package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Template filenames fixed by contract with the prompts directory.
const (
	TranscribeFile = "1_transcribe_prompt.txt"
	PerturbFile    = "2_perturb_prompt.txt"
	ValidateFile   = "3_validate_prompt.txt"
	ExtractFile    = "4_extract_prompt.txt"
	TemplateFile   = "json_template.txt"
)

// StageFiles lists every template the pipeline requires, in stage order.
func StageFiles() []string {
	return []string{TranscribeFile, PerturbFile, ValidateFile, ExtractFile, TemplateFile}
}

// hintPlaceholder marks where an operator hint is spliced into a template.
const hintPlaceholder = "{special_prompt}"

const defaultHintText = "None (use default rules)"

// Load reads one template file from dir verbatim.
func Load(dir, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("load prompt %s: %w", name, err)
	}
	return string(data), nil
}

// WithHint injects the operator-supplied hint into a template. Templates that
// carry the placeholder get it substituted (with a default marker when the
// hint is empty); otherwise a non-empty hint is appended as a labelled block.
func WithHint(template, hint string) string {
	hint = strings.TrimSpace(hint)
	if strings.Contains(template, hintPlaceholder) {
		text := hint
		if text == "" {
			text = defaultHintText
		}
		return strings.ReplaceAll(template, hintPlaceholder, text)
	}
	if hint == "" {
		return template
	}
	return template + "\n\n**SPECIAL INSTRUCTIONS:** " + hint
}

// Exemplar is one style-reference document for the extraction stage.
type Exemplar struct {
	Name    string
	Content string
}

// LoadExemplars reads every .tex document under dir, sorted by filename.
func LoadExemplars(dir string) ([]Exemplar, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read exemplars dir %s: %w", dir, err)
	}
	var exemplars []Exemplar
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".tex") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read exemplar %s: %w", entry.Name(), err)
		}
		exemplars = append(exemplars, Exemplar{Name: entry.Name(), Content: string(content)})
	}
	sort.Slice(exemplars, func(i, j int) bool { return exemplars[i].Name < exemplars[j].Name })
	return exemplars, nil
}

// FormatExemplars renders exemplars as fenced blocks for inclusion in the
// extraction request.
func FormatExemplars(exemplars []Exemplar) string {
	blocks := make([]string, 0, len(exemplars))
	for _, ex := range exemplars {
		blocks = append(blocks, fmt.Sprintf("Example from %s:\n```latex\n%s\n```", ex.Name, ex.Content))
	}
	return strings.Join(blocks, "\n\n")
}
