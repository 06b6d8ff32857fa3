// Package resolve turns optional pre-filled input plus elicited answers into a
// fully specified transaction plan. It performs no network I/O.
package resolve

import (
	"fmt"
	"strings"

	clierr "github.com/ggonzalez94/neartx/internal/errors"
)

// Option is one entry of a menu. Key is what callers pre-fill; Label is shown.
type Option struct {
	Key   string
	Label string
}

// ValueSource elicits values that were not pre-filled.
type ValueSource interface {
	// Choose returns the Key of the selected option.
	Choose(prompt string, options []Option) (string, error)
	Text(prompt string, validate func(string) error) (string, error)
	// Secret is Text with the answer masked.
	Secret(prompt string, validate func(string) error) (string, error)
}

// field returns the parsed pre-filled value when present and otherwise asks
// src, validating the answer with the same parser.
func field[T any](src ValueSource, prefilled *string, prompt string, parse func(string) (T, error)) (T, error) {
	return elicit(src.Text, prefilled, prompt, parse)
}

func secretField[T any](src ValueSource, prefilled *string, prompt string, parse func(string) (T, error)) (T, error) {
	return elicit(src.Secret, prefilled, prompt, parse)
}

func elicit[T any](ask func(string, func(string) error) (string, error), prefilled *string, prompt string, parse func(string) (T, error)) (T, error) {
	if prefilled != nil {
		return parse(*prefilled)
	}
	raw, err := ask(prompt, func(v string) error {
		_, err := parse(v)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return parse(raw)
}

// choose resolves a menu field. A pre-filled key must match an option.
func choose(src ValueSource, prefilled *string, prompt string, options []Option) (string, error) {
	if prefilled != nil {
		return matchOption(*prefilled, options)
	}
	key, err := src.Choose(prompt, options)
	if err != nil {
		return "", err
	}
	return matchOption(key, options)
}

func matchOption(input string, options []Option) (string, error) {
	v := strings.ToLower(strings.TrimSpace(input))
	for _, opt := range options {
		if v == opt.Key {
			return opt.Key, nil
		}
	}
	keys := make([]string, 0, len(options))
	for _, opt := range options {
		keys = append(keys, opt.Key)
	}
	return "", clierr.New(clierr.CodeInputValidation, fmt.Sprintf("invalid menu selection %q (expected one of: %s)", input, strings.Join(keys, ", ")))
}

func invalid(what string, err error) error {
	if _, ok := clierr.As(err); ok {
		return err
	}
	return clierr.Wrap(clierr.CodeInputValidation, "invalid "+what, err)
}

func strPtr(v string) *string { return &v }
