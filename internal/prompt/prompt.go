// Package prompt asks the user to pick from choices or type values.
//
// The Chooser interface is what the rest of credo depends on. Terminal is
// the interactive implementation; prompttest.Scripted replays canned
// answers in tests. Closing input or interrupting a prompt surfaces as
// errors.ErrUserCancelled.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	kerrors "github.com/PolarWolf314/credo/internal/errors"
)

// Chooser is the interactive capability consumed by the core.
type Chooser interface {
	// Choose returns one of choices, shown in the given order.
	Choose(message string, choices []string) (string, error)

	// ChooseOrCreate returns one of choices or a custom value typed by the user.
	ChooseOrCreate(needed string, choices []string) (string, error)

	// Ask returns a free-form answer. Secret answers are not echoed.
	Ask(message string, secret bool) (string, error)
}

// Terminal prompts on Out and reads answers from In.
type Terminal struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

// NewTerminal returns a Terminal on stdin and stderr.
func NewTerminal() *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stderr}
}

func (t *Terminal) Choose(message string, choices []string) (string, error) {
	if len(choices) == 0 {
		return "", kerrors.New(kerrors.ErrInvariant, "Asked to choose from nothing", "prompt", message)
	}

	for {
		fmt.Fprintln(t.Out, message)
		fmt.Fprintln(t.Out, "Please choose a value from the following")
		for i, choice := range choices {
			fmt.Fprintf(t.Out, "%d) %s\n", i, choice)
		}

		response, err := t.readLine(": ")
		if err != nil {
			return "", err
		}

		index, err := strconv.Atoi(response)
		if err != nil || index < 0 || index >= len(choices) {
			fmt.Fprintf(t.Out, "Please choose a valid response (%s is not valid)\n", response)
			continue
		}
		return choices[index], nil
	}
}

func (t *Terminal) ChooseOrCreate(needed string, choices []string) (string, error) {
	for len(choices) > 0 {
		fmt.Fprintf(t.Out, "Choose a %s\n", needed)
		fmt.Fprintln(t.Out, "Please choose a value from the following")
		for i, choice := range choices {
			fmt.Fprintf(t.Out, "%d) %s\n", i, choice)
		}
		fmt.Fprintf(t.Out, "%d) Make your own value\n", len(choices))

		response, err := t.readLine(": ")
		if err != nil {
			return "", err
		}

		index, err := strconv.Atoi(response)
		if err != nil || index < 0 || index > len(choices) {
			fmt.Fprintf(t.Out, "Please choose a valid response (%s is not valid)\n", response)
			continue
		}
		if index < len(choices) {
			return choices[index], nil
		}
		break
	}

	if len(choices) == 0 {
		fmt.Fprintf(t.Out, "Choose a %s\n", needed)
	}
	return t.readLine("Enter your custom value: ")
}

func (t *Terminal) Ask(message string, secret bool) (string, error) {
	if secret {
		if f, ok := t.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			fmt.Fprintf(t.Out, "%s: ", message)
			value, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(t.Out)
			if err != nil {
				return "", fmt.Errorf("%w: %v", kerrors.ErrUserCancelled, err)
			}
			return strings.TrimSpace(string(value)), nil
		}
	}
	return t.readLine(message + ": ")
}

// readLine reads one trimmed line. End of input is a cancellation.
func (t *Terminal) readLine(prompt string) (string, error) {
	if t.reader == nil {
		t.reader = bufio.NewReader(t.In)
	}

	fmt.Fprint(t.Out, prompt)
	line, err := t.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimSpace(line), nil
		}
		fmt.Fprintln(t.Out)
		if err == io.EOF {
			return "", kerrors.New(kerrors.ErrUserCancelled, "Input closed")
		}
		return "", fmt.Errorf("%w: %v", kerrors.ErrUserCancelled, err)
	}
	return strings.TrimSpace(line), nil
}
