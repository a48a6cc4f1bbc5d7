package interact

import (
	"errors"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/mattn/go-isatty"
)

// Prompter asks the operator questions. Confirm and Input return their
// fallback when the prompter is non-interactive.
type Prompter interface {
	Confirm(message string, fallback bool) (bool, error)
	Input(message, help string) (string, error)
}

// ErrInterrupted reports that the operator aborted a prompt.
var ErrInterrupted = errors.New("prompt interrupted")

// StdinIsTerminal reports whether stdin can host interactive prompts.
func StdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// New returns a survey-backed prompter when interactive is true, otherwise a
// prompter that answers every question with its fallback.
func New(interactive bool) Prompter {
	if interactive {
		return surveyPrompter{}
	}
	return staticPrompter{}
}

type surveyPrompter struct{}

func (surveyPrompter) Confirm(message string, fallback bool) (bool, error) {
	out := fallback
	prompt := &survey.Confirm{Message: message, Default: fallback}
	if err := survey.AskOne(prompt, &out); err != nil {
		return fallback, translateErr(err)
	}
	return out, nil
}

func (surveyPrompter) Input(message, help string) (string, error) {
	var out string
	prompt := &survey.Input{Message: message, Help: help}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", translateErr(err)
	}
	return out, nil
}

type staticPrompter struct{}

func (staticPrompter) Confirm(_ string, fallback bool) (bool, error) { return fallback, nil }

func (staticPrompter) Input(string, string) (string, error) { return "", nil }

func translateErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrInterrupted
	}
	return err
}
