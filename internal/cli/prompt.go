package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// lineInput turns a line-oriented stream into a channel so that command
// loops and confirmation prompts can share stdin and still honor
// cancellation. Reading starts on first use.
type lineInput struct {
	in    io.Reader
	out   io.Writer
	lines chan string
	once  sync.Once
}

func newLineInput(in io.Reader, out io.Writer) *lineInput {
	return &lineInput{in: in, out: out, lines: make(chan string)}
}

// Lines returns the trimmed input lines. The channel is closed at end of input.
func (l *lineInput) Lines() <-chan string {
	l.once.Do(func() {
		go func() {
			defer close(l.lines)
			scanner := bufio.NewScanner(l.in)
			for scanner.Scan() {
				l.lines <- strings.TrimSpace(scanner.Text())
			}
		}()
	})
	return l.lines
}

// Confirm implements core.Confirmer. Anything but y/yes declines, as do
// end of input and a cancelled context.
func (l *lineInput) Confirm(ctx context.Context, message string) bool {
	fmt.Fprintf(l.out, "%s [y/N]: ", message)

	select {
	case line, ok := <-l.Lines():
		if !ok {
			fmt.Fprintln(l.out)
			return false
		}
		line = strings.ToLower(line)
		return line == "y" || line == "yes"
	case <-ctx.Done():
		fmt.Fprintln(l.out)
		return false
	}
}

// promptPassword reads a password without echo when stdin is a terminal,
// and as a plain line otherwise.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		pw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(pw), nil
	}

	line, err := readLine(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return line, nil
}

// readLine reads one line a byte at a time, leaving everything after the
// newline in r for later readers of the same stream. The error is non-nil
// only when nothing could be read.
func readLine(r io.Reader) (string, error) {
	var line []byte
	b := make([]byte, 1)
	for {
		n, err := r.Read(b)
		if n > 0 {
			if b[0] == '\n' {
				break
			}
			line = append(line, b[0])
		}
		if err != nil {
			if len(line) == 0 {
				return "", err
			}
			break
		}
	}
	return strings.TrimSpace(string(line)), nil
}
