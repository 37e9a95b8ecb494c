package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescale/pdfmerge/internal/api"
	"github.com/rescale/pdfmerge/internal/api/apitest"
	"github.com/rescale/pdfmerge/internal/cloud"
	"github.com/rescale/pdfmerge/internal/config"
	"github.com/rescale/pdfmerge/internal/core"
	"github.com/rescale/pdfmerge/internal/ingress"
	"github.com/rescale/pdfmerge/internal/notify"
)

type harness struct {
	srv       *apitest.Server
	core      *core.Controller
	confirmer *Confirmer
	model     Model
	dir       string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{srv: apitest.NewServer(), dir: t.TempDir(), confirmer: NewConfirmer()}
	t.Cleanup(h.srv.Close)

	cfg := config.NewConfig()
	cfg.Server.BaseURL = h.srv.URL
	client, err := api.NewClient(cfg, nil)
	require.NoError(t, err)

	queue := notify.NewQueue(nil, notify.QueueOptions{Lifetime: time.Minute})
	t.Cleanup(queue.Close)

	h.core = core.NewController(client, queue, nil, nil, core.Options{
		Confirmer: h.confirmer,
		Sink:      cloud.NewLocalSink(t.TempDir()),
	})
	t.Cleanup(h.core.Close)
	require.NoError(t, h.core.Start(context.Background()))

	in := ingress.NewController(h.core, h.core, nil, nil)
	h.model = New(context.Background(), Options{Core: h.core, Ingress: in, Confirmer: h.confirmer})
	return h
}

func (h *harness) writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(h.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

// press feeds a key and returns the resulting command.
func (h *harness) press(k string) tea.Cmd {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

func (h *harness) deliver(msg tea.Msg) {
	next, _ := h.model.Update(msg)
	h.model = next.(Model)
}

func (h *harness) addFiles(t *testing.T, paths ...string) {
	t.Helper()
	h.press("a")
	h.press(strings.Join(paths, " "))
	cmd := h.press("enter")
	require.NotNil(t, cmd)
	h.deliver(cmd())
}

func TestEmptyView(t *testing.T) {
	h := newHarness(t)

	out := h.model.View()
	assert.Contains(t, out, "No files selected yet")
	assert.Contains(t, out, "Upload PDF files to get started")
	assert.Contains(t, out, "Merge PDFs")
	assert.NotContains(t, out, "Clear All")
}

func TestAddSelectsAndResetsInput(t *testing.T) {
	h := newHarness(t)
	a := h.writeFile(t, "a.pdf", "%PDF-1.4 a")
	b := h.writeFile(t, "b.pdf", "%PDF-1.4 b")
	txt := h.writeFile(t, "notes.txt", "plain")

	h.addFiles(t, a, txt, b)

	assert.Equal(t, 2, h.core.Store().Len(), "non-PDF should be filtered silently")
	assert.Empty(t, h.model.input.Value(), "input should be reset after selection")
	assert.False(t, h.model.adding)

	out := h.model.View()
	assert.Contains(t, out, "Merge 2 PDFs")
	assert.Contains(t, out, "Clear All")
	assert.Contains(t, out, "a.pdf")
	for _, toast := range h.core.Toasts().Visible() {
		assert.NotEqual(t, ingress.RejectedMessage, toast.Message, "manual selection must not warn")
	}
}

func TestAddUnreadablePathKeepsInput(t *testing.T) {
	h := newHarness(t)
	missing := filepath.Join(h.dir, "missing.pdf")

	h.addFiles(t, missing)

	assert.Equal(t, 0, h.core.Store().Len())
	assert.Equal(t, missing, h.model.input.Value())
	toasts := h.core.Toasts().Visible()
	require.Len(t, toasts, 1)
	assert.Contains(t, toasts[0].Message, "missing.pdf")
}

func TestClearAsksInsideUI(t *testing.T) {
	h := newHarness(t)
	h.addFiles(t, h.writeFile(t, "a.pdf", "%PDF a"), h.writeFile(t, "b.pdf", "%PDF b"))

	for _, tc := range []struct {
		answer string
		want   int
	}{
		{"n", 2},
		{"y", 0},
	} {
		cmd := h.press("c")
		require.NotNil(t, cmd)

		done := make(chan tea.Msg, 1)
		go func() { done <- cmd() }()

		h.deliver(waitForConfirm(h.confirmer)())
		require.NotNil(t, h.model.prompt)
		assert.Contains(t, h.model.View(), core.ClearConfirmMessage)

		// Other keys are ignored while the question is open
		assert.Nil(t, h.press("m"))

		h.press(tc.answer)
		assert.Nil(t, h.model.prompt)

		select {
		case msg := <-done:
			h.deliver(msg)
		case <-time.After(5 * time.Second):
			t.Fatal("clear did not finish")
		}
		assert.Equal(t, tc.want, h.core.Store().Len(), "answer %q", tc.answer)
	}
}

func TestRemoveSelectedRow(t *testing.T) {
	h := newHarness(t)
	h.addFiles(t, h.writeFile(t, "a.pdf", "%PDF a"), h.writeFile(t, "b.pdf", "%PDF b"))

	h.press("j")
	assert.Equal(t, 1, h.model.cursor)

	cmd := h.press("x")
	require.NotNil(t, cmd)
	h.deliver(cmd())

	files := h.core.Store().Snapshot()
	require.Len(t, files, 1)
	assert.Equal(t, "a.pdf", files[0].OriginalName)
	assert.Equal(t, 0, h.model.cursor, "cursor should be clamped to the shorter list")
}

func TestMergeWithOneFileWarns(t *testing.T) {
	h := newHarness(t)
	h.addFiles(t, h.writeFile(t, "a.pdf", "%PDF a"))

	cmd := h.press("m")
	require.NotNil(t, cmd)
	h.deliver(cmd())

	assert.Equal(t, 0, h.srv.Calls("merge"))
	assert.Contains(t, h.model.View(), core.MergeTooFewMessage)
}

func TestDismissOldestToast(t *testing.T) {
	h := newHarness(t)
	h.core.Toasts().Info("first")
	h.core.Toasts().Info("second")
	h.deliver(busEventMsg{})

	h.press("t")
	h.deliver(busEventMsg{})

	toasts := h.model.view.Toasts
	require.Len(t, toasts, 2)
	assert.True(t, toasts[0].Leaving)
	assert.False(t, toasts[1].Leaving)
}

func TestConfirmerHonorsCancellation(t *testing.T) {
	c := NewConfirmer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, c.Confirm(ctx, "?"))
}
