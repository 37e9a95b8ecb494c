// Package gui is the desktop front end. It draws view.Render output with
// fyne, accepts files dropped on the window and forwards actions to the
// core and ingress controllers.
package gui

import (
	"context"
	"path/filepath"
	"strconv"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/rescale/pdfmerge/internal/constants"
	"github.com/rescale/pdfmerge/internal/core"
	"github.com/rescale/pdfmerge/internal/events"
	"github.com/rescale/pdfmerge/internal/ingress"
	"github.com/rescale/pdfmerge/internal/logging"
	"github.com/rescale/pdfmerge/internal/models"
	"github.com/rescale/pdfmerge/internal/view"
)

const dropHint = "Drop PDF files here"

// Options are the dependencies of the desktop UI.
type Options struct {
	Core      *core.Controller
	Ingress   *ingress.Controller
	EventBus  *events.EventBus
	Confirmer *Confirmer // the controller's confirmer, bound to the window
	Logger    *logging.Logger
}

// Confirmer asks core confirmation questions with a dialog.
type Confirmer struct {
	mu     sync.Mutex
	window fyne.Window
}

// NewConfirmer creates a confirmer. It declines until a window is bound.
func NewConfirmer() *Confirmer {
	return &Confirmer{}
}

func (c *Confirmer) bind(w fyne.Window) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.window = w
}

// Confirm implements core.Confirmer.
func (c *Confirmer) Confirm(ctx context.Context, message string) bool {
	c.mu.Lock()
	w := c.window
	c.mu.Unlock()
	if w == nil {
		return false
	}

	answer := make(chan bool, 1)
	fyne.Do(func() {
		dialog.ShowConfirm("Clear all files", message, func(ok bool) { answer <- ok }, w)
	})
	select {
	case ok := <-answer:
		return ok
	case <-ctx.Done():
		return false
	}
}

// Run opens the window and blocks until it is closed or ctx is done.
func Run(ctx context.Context, opts Options) error {
	if !HasDisplay() {
		return ErrNoDisplay
	}

	a := app.NewWithID(constants.AppID)
	a.Settings().SetTheme(newMergeTheme())

	w := a.NewWindow(constants.AppTitle)
	w.SetMaster()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ui := NewUI(ctx, opts, w)
	w.SetContent(ui.Build())
	w.SetOnDropped(ui.onDropped)
	w.Resize(fyne.NewSize(720, 600))
	w.CenterOnScreen()

	ui.Start()
	w.SetOnClosed(ui.Stop)

	go func() {
		<-ctx.Done()
		fyne.Do(a.Quit)
	}()

	w.ShowAndRun()
	return nil
}

// UI is the main window content.
type UI struct {
	ctx       context.Context
	cancel    context.CancelFunc
	core      *core.Controller
	ingress   *ingress.Controller
	eventBus  *events.EventBus
	logger    *logging.Logger
	window    fyne.Window
	events    <-chan events.Event
	view      view.View
	lastSaved string

	countBadge *widget.Label
	dropLabel  *widget.Label
	dropBg     *canvas.Rectangle
	browseBtn  *widget.Button
	list       *widget.List
	empty      fyne.CanvasObject
	mergeBtn   *widget.Button
	clearBtn   *widget.Button
	toastBox   *fyne.Container
	status     *StatusBar
	busyLabel  *widget.Label
	busyPopup  *widget.PopUp
}

// NewUI creates the UI for window. Build must be called before Start.
func NewUI(ctx context.Context, opts Options, window fyne.Window) *UI {
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Confirmer != nil {
		opts.Confirmer.bind(window)
	}

	ctx, cancel := context.WithCancel(ctx)
	return &UI{
		ctx:      ctx,
		cancel:   cancel,
		core:     opts.Core,
		ingress:  opts.Ingress,
		eventBus: opts.EventBus,
		logger:   opts.Logger,
		window:   window,
	}
}

// Build creates the layout.
func (u *UI) Build() fyne.CanvasObject {
	title := widget.NewLabelWithStyle(constants.AppTitle, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	u.countBadge = widget.NewLabelWithStyle("0", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	header := container.NewHBox(title, u.countBadge)

	// Drop zone
	u.dropBg = canvas.NewRectangle(theme.Color(theme.ColorNameInputBackground))
	u.dropBg.StrokeColor = theme.Color(theme.ColorNamePrimary)
	u.dropBg.StrokeWidth = theme.Size(theme.SizeNameInputBorder)
	u.dropBg.CornerRadius = theme.Size(theme.SizeNameInputRadius)
	u.dropBg.SetMinSize(fyne.NewSize(0, 110))
	u.dropLabel = widget.NewLabelWithStyle(dropHint, fyne.TextAlignCenter, fyne.TextStyle{})
	u.browseBtn = NewPrimaryButtonWithIcon("Browse", theme.FolderOpenIcon(), u.browse)
	dropZone := container.NewStack(u.dropBg, container.NewCenter(container.NewVBox(u.dropLabel, u.browseBtn)))

	// File list with empty placeholder
	u.list = widget.NewList(
		func() int { return len(u.view.Rows) },
		func() fyne.CanvasObject { return newFileRow(u.remove) },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < len(u.view.Rows) {
				obj.(*fileRow).set(u.view.Rows[id])
			}
		},
	)
	u.empty = container.NewCenter(container.NewVBox(
		widget.NewLabelWithStyle(view.EmptyTitle, fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle(view.EmptyHint, fyne.TextAlignCenter, fyne.TextStyle{Italic: true}),
	))
	listArea := container.NewStack(u.list, u.empty)

	// Actions
	u.mergeBtn = NewPrimaryButtonWithIcon("Merge PDFs", theme.DocumentIcon(), u.merge)
	u.clearBtn = widget.NewButtonWithIcon("Clear All", theme.DeleteIcon(), u.clear)
	u.clearBtn.Importance = widget.DangerImportance
	actions := container.NewHBox(u.mergeBtn, u.clearBtn)

	u.toastBox = container.NewVBox()
	u.status = NewStatusBar()

	// Busy overlay
	u.busyLabel = widget.NewLabelWithStyle(constants.BusyLabelDefault, fyne.TextAlignCenter, fyne.TextStyle{})
	u.busyPopup = widget.NewModalPopUp(container.NewVBox(widget.NewProgressBarInfinite(), u.busyLabel), u.window.Canvas())

	u.refresh()

	return container.NewBorder(
		container.NewVBox(header, dropZone, VerticalSpacer(8)),
		container.NewVBox(actions, u.toastBox, u.status),
		nil, nil,
		listArea,
	)
}

// Start subscribes to state changes.
func (u *UI) Start() {
	if u.eventBus == nil {
		return
	}
	u.events = u.eventBus.SubscribeAll()
	go u.monitorEvents(u.events)
}

// Stop cancels running operations and unsubscribes.
func (u *UI) Stop() {
	u.cancel()
	if u.eventBus != nil && u.events != nil {
		u.eventBus.UnsubscribeAll(u.events)
	}
}

func (u *UI) monitorEvents(ch <-chan events.Event) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
			fyne.Do(u.refresh)
		case <-u.ctx.Done():
			return
		}
	}
}

// refresh redraws every control from the rendered view. UI goroutine only.
func (u *UI) refresh() {
	state := u.core.ViewState()
	if u.ingress != nil {
		state.DragOver = u.ingress.DragOver()
	}
	u.view = view.Render(state)
	v := u.view

	u.countBadge.SetText(strconv.Itoa(v.Count))
	u.list.Refresh()
	if v.Empty {
		u.empty.Show()
	} else {
		u.empty.Hide()
	}

	u.mergeBtn.SetText(v.Merge.Label)
	if v.Merge.Enabled {
		u.mergeBtn.Enable()
	} else {
		u.mergeBtn.Disable()
	}
	if v.Clear.Visible {
		u.clearBtn.Show()
	} else {
		u.clearBtn.Hide()
	}

	if v.DragOver {
		u.dropBg.FillColor = theme.Color(theme.ColorNameHover)
		u.dropLabel.SetText("Release to upload")
	} else {
		u.dropBg.FillColor = theme.Color(theme.ColorNameInputBackground)
		u.dropLabel.SetText(dropHint)
	}
	u.dropBg.Refresh()

	if v.Busy.Active {
		u.busyLabel.SetText(v.Busy.Label)
		u.busyPopup.Show()
		u.status.SetBusy(v.Busy.Label)
	} else {
		u.busyPopup.Hide()
		if u.lastSaved != "" {
			u.status.SetIdle("Merged PDF saved to "+u.lastSaved, models.SeveritySuccess)
		} else {
			u.status.SetIdle("Ready", models.SeverityInfo)
		}
	}

	u.renderToasts(v.Toasts)
}

// renderToasts rebuilds the toast cards. Tapping a card dismisses it.
func (u *UI) renderToasts(toasts []models.Toast) {
	objs := make([]fyne.CanvasObject, 0, len(toasts))
	for _, t := range toasts {
		id := t.ID
		card := widget.NewButtonWithIcon(t.Message, severityIcon(t.Severity), func() {
			u.core.Toasts().Dismiss(id)
		})
		card.Importance = toastImportance(t)
		card.Alignment = widget.ButtonAlignLeading
		objs = append(objs, card)
	}
	u.toastBox.Objects = objs
	u.toastBox.Refresh()
}

// onDropped is the window drop callback. Fyne reports no drag-enter, so the
// highlight is raised here and cleared by the drop itself.
func (u *UI) onDropped(_ fyne.Position, uris []fyne.URI) {
	u.ingress.DragEnter()
	go u.drop(uris)
}

func (u *UI) drop(uris []fyne.URI) {
	files := make([]models.Candidate, 0, len(uris))
	for _, uri := range uris {
		files = append(files, u.dropCandidate(uri))
	}
	if err := u.ingress.Drop(u.ctx, files); err != nil {
		u.logger.Debug().Err(err).Msg("Drop upload failed")
	}
}

// dropCandidate turns a dropped URI into a candidate. Anything that is not a
// readable local file gets no MIME type, so the filter rejects it.
func (u *UI) dropCandidate(uri fyne.URI) models.Candidate {
	if uri.Scheme() != "file" {
		return models.Candidate{Name: uri.Name()}
	}
	c, err := ingress.LocalCandidate(uri.Path())
	if err != nil {
		u.logger.Debug().Err(err).Str("path", uri.Path()).Msg("Dropped item is not a readable file")
		return models.Candidate{Name: filepath.Base(uri.Path())}
	}
	return c
}

// browse opens the file picker. The chosen file is a manual selection.
func (u *UI) browse() {
	d := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			u.logger.Warn().Err(err).Msg("File dialog failed")
			return
		}
		if rc == nil {
			return
		}
		path := rc.URI().Path()
		rc.Close()
		go u.selectPaths([]string{path})
	}, u.window)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".pdf", ".PDF"}))
	d.Show()
}

func (u *UI) selectPaths(paths []string) {
	files, err := ingress.LocalCandidates(paths)
	if err != nil {
		u.core.Toasts().Error(err.Error())
		return
	}
	// The picker keeps no selection, so there is nothing to reset.
	if err := u.ingress.Select(u.ctx, files, ingress.SelectorFunc(func() {})); err != nil {
		u.logger.Debug().Err(err).Msg("Selection upload failed")
	}
}

func (u *UI) remove(storedName string) {
	go func() {
		_ = u.core.RemoveFile(u.ctx, storedName)
	}()
}

func (u *UI) merge() {
	go func() {
		location, err := u.core.Merge(u.ctx)
		if err != nil {
			return
		}
		fyne.Do(func() {
			u.lastSaved = location
			u.refresh()
		})
	}()
}

func (u *UI) clear() {
	go func() {
		_ = u.core.ClearAll(u.ctx)
	}()
}

// fileRow is one list entry: name, size and a remove button.
type fileRow struct {
	widget.BaseWidget

	name     *widget.Label
	size     *widget.Label
	remove   *widget.Button
	stored   string
	onRemove func(storedName string)
}

func newFileRow(onRemove func(string)) *fileRow {
	r := &fileRow{
		name:     widget.NewLabel(""),
		size:     widget.NewLabel(""),
		onRemove: onRemove,
	}
	r.name.Truncation = fyne.TextTruncateEllipsis
	r.size.TextStyle = fyne.TextStyle{Italic: true}
	r.remove = widget.NewButtonWithIcon("", theme.ContentRemoveIcon(), func() {
		if r.stored != "" {
			r.onRemove(r.stored)
		}
	})
	r.remove.Importance = widget.LowImportance
	r.ExtendBaseWidget(r)
	return r
}

func (r *fileRow) set(row view.Row) {
	r.stored = row.StoredName
	r.name.SetText(row.DisplayName)
	r.size.SetText(row.SizeLabel)
}

// CreateRenderer implements fyne.Widget
func (r *fileRow) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewBorder(nil, nil, nil, container.NewHBox(r.size, r.remove), r.name))
}
