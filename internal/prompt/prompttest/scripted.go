// Package prompttest provides a scripted prompt.Chooser for tests.
package prompttest

import (
	"fmt"

	kerrors "github.com/PolarWolf314/credo/internal/errors"
)

// Call records one prompt issued to a Scripted chooser.
type Call struct {
	Method  string
	Message string
	Choices []string
}

// Scripted answers prompts from a queue and records every call. Answers
// are returned verbatim; an exhausted queue cancels like closed input.
type Scripted struct {
	Answers []string
	Calls   []Call
}

// New returns a Scripted chooser with the given answers.
func New(answers ...string) *Scripted {
	return &Scripted{Answers: answers}
}

func (s *Scripted) Choose(message string, choices []string) (string, error) {
	return s.next("Choose", message, choices)
}

func (s *Scripted) ChooseOrCreate(needed string, choices []string) (string, error) {
	return s.next("ChooseOrCreate", needed, choices)
}

func (s *Scripted) Ask(message string, secret bool) (string, error) {
	return s.next("Ask", message, nil)
}

// Prompts returns how many prompts were issued.
func (s *Scripted) Prompts() int {
	return len(s.Calls)
}

func (s *Scripted) next(method, message string, choices []string) (string, error) {
	s.Calls = append(s.Calls, Call{Method: method, Message: message, Choices: append([]string(nil), choices...)})
	if len(s.Answers) == 0 {
		return "", kerrors.New(kerrors.ErrUserCancelled, fmt.Sprintf("no scripted answer for %q", message))
	}
	answer := s.Answers[0]
	s.Answers = s.Answers[1:]
	return answer, nil
}
