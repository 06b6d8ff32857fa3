package resolve

import (
	"fmt"

	clierr "github.com/ggonzalez94/neartx/internal/errors"
)

// Script answers prompts from a fixed list and records every prompt it was
// asked. Choose answers are option keys.
type Script struct {
	answers []string
	Prompts []string
}

func NewScript(answers ...string) *Script {
	return &Script{answers: answers}
}

func (s *Script) Choose(prompt string, options []Option) (string, error) {
	v, err := s.next(prompt)
	if err != nil {
		return "", err
	}
	if _, err := matchOption(v, options); err != nil {
		return "", err
	}
	return v, nil
}

func (s *Script) Text(prompt string, validate func(string) error) (string, error) {
	v, err := s.next(prompt)
	if err != nil {
		return "", err
	}
	if validate != nil {
		if err := validate(v); err != nil {
			return "", err
		}
	}
	return v, nil
}

func (s *Script) Secret(prompt string, validate func(string) error) (string, error) {
	return s.Text(prompt, validate)
}

// Remaining is the number of unused answers.
func (s *Script) Remaining() int { return len(s.answers) }

func (s *Script) next(prompt string) (string, error) {
	s.Prompts = append(s.Prompts, prompt)
	if len(s.answers) == 0 {
		return "", clierr.New(clierr.CodeAborted, fmt.Sprintf("script exhausted at prompt %q", prompt))
	}
	v := s.answers[0]
	s.answers = s.answers[1:]
	return v, nil
}
