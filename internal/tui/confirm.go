package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Confirmer answers core confirmation questions from inside the UI. The
// asking goroutine blocks until the user presses y or n.
type Confirmer struct {
	requests chan confirmRequest
}

type confirmRequest struct {
	message string
	answer  chan bool
}

// NewConfirmer creates a confirmer. Pass it to the controller options and
// to Options.Confirmer so the model can serve its questions.
func NewConfirmer() *Confirmer {
	return &Confirmer{requests: make(chan confirmRequest)}
}

// Confirm implements core.Confirmer. A cancelled context declines.
func (c *Confirmer) Confirm(ctx context.Context, message string) bool {
	req := confirmRequest{message: message, answer: make(chan bool, 1)}
	select {
	case c.requests <- req:
	case <-ctx.Done():
		return false
	}
	select {
	case ok := <-req.answer:
		return ok
	case <-ctx.Done():
		return false
	}
}

// confirmMsg carries a pending question into the model.
type confirmMsg confirmRequest

func waitForConfirm(c *Confirmer) tea.Cmd {
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		return confirmMsg(<-c.requests)
	}
}
