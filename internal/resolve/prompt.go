package resolve

import (
	"errors"
	"io"

	"github.com/manifoldco/promptui"

	clierr "github.com/ggonzalez94/neartx/internal/errors"
)

// PromptSource elicits values interactively. Prompts are drawn on out so that
// stdout stays reserved for the result envelope.
type PromptSource struct {
	in  io.ReadCloser
	out io.WriteCloser
}

func NewPromptSource(in io.ReadCloser, out io.WriteCloser) *PromptSource {
	return &PromptSource{in: in, out: out}
}

func (p *PromptSource) Choose(prompt string, options []Option) (string, error) {
	labels := make([]string, 0, len(options))
	for _, opt := range options {
		labels = append(labels, opt.Label)
	}
	sel := promptui.Select{
		Label:  prompt,
		Items:  labels,
		Size:   len(labels),
		Stdin:  p.in,
		Stdout: p.out,
	}
	idx, _, err := sel.Run()
	if err != nil {
		return "", promptError(err)
	}
	return options[idx].Key, nil
}

func (p *PromptSource) Text(prompt string, validate func(string) error) (string, error) {
	return p.run(promptui.Prompt{Label: prompt, Validate: validate, Stdin: p.in, Stdout: p.out})
}

func (p *PromptSource) Secret(prompt string, validate func(string) error) (string, error) {
	return p.run(promptui.Prompt{Label: prompt, Validate: validate, Mask: '*', Stdin: p.in, Stdout: p.out})
}

func (p *PromptSource) run(prompt promptui.Prompt) (string, error) {
	v, err := prompt.Run()
	if err != nil {
		return "", promptError(err)
	}
	return v, nil
}

func promptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, promptui.ErrAbort) {
		return clierr.Wrap(clierr.CodeAborted, "input aborted", err)
	}
	return clierr.Wrap(clierr.CodeInternal, "read input", err)
}
