package resolve

import (
	"fmt"

	clierr "github.com/ggonzalez94/neartx/internal/errors"
)

// NoInputSource fails on any elicitation. It is used when prompting is
// disabled or stdin is not a terminal.
type NoInputSource struct{}

func (NoInputSource) Choose(prompt string, options []Option) (string, error) {
	return "", missing(prompt)
}

func (NoInputSource) Text(prompt string, _ func(string) error) (string, error) {
	return "", missing(prompt)
}

func (NoInputSource) Secret(prompt string, _ func(string) error) (string, error) {
	return "", missing(prompt)
}

func missing(prompt string) error {
	return clierr.New(clierr.CodeUsage, fmt.Sprintf("missing required input (prompting disabled): %s", prompt))
}
