// Package tui is the interactive terminal presenter for a library: three
// status views with a detail pane, in-place notes and summary editing, and the
// add-book form.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"shelf-go/internal/model"
	"shelf-go/internal/shelf"
)

// Library is what the presenter needs from the library layer.
type Library interface {
	Shelves() (*shelf.Shelves, error)
	StartReading(id string) (*model.Book, error)
	MarkFinished(id string) (*model.Book, error)
	UpdateNotes(id, notes string) (*model.Book, error)
	UpdateSummary(id, summary string) (*model.Book, error)
	NewAddBookFlow() *shelf.AddBookFlow
}

// Mode is what the keyboard is currently driving.
type Mode int

const (
	ModeBrowse Mode = iota
	ModeEditNotes
	ModeEditSummary
	ModeAdd
)

// Add form fields, in tab order.
const (
	fieldISBN = iota
	fieldTitle
	fieldSubtitle
	fieldAuthor
	fieldPublished
	fieldPages
	fieldCoverURL
	fieldCoverFile
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"ISBN", "Title", "Subtitle", "Author", "Published", "Pages", "Cover URL", "Cover file",
}

const statusTimeout = 4 * time.Second

// Model is the root bubbletea model.
type Model struct {
	lib Library
	now func() time.Time

	// Views
	filter   model.Status
	shelves  *shelf.Shelves
	selected int

	// Editing
	mode      Mode
	editBuf   []rune
	flow      *shelf.AddBookFlow
	field     int
	isbn      string
	coverFile string

	// Messages
	errorMessage string
	statusText   string
	statusID     int

	width  int
	height int
}

// New creates a Model showing the to-read view of lib.
func New(lib Library) Model {
	m := Model{
		lib:     lib,
		now:     time.Now,
		filter:  model.StatusToRead,
		shelves: &shelf.Shelves{},
	}
	m.reload()
	return m
}

// Init has nothing to start; the library is loaded by New.
func (m Model) Init() tea.Cmd {
	return nil
}

// Filter returns the status of the view being shown.
func (m Model) Filter() model.Status { return m.filter }

// Mode returns what the keyboard is driving.
func (m Model) Mode() Mode { return m.mode }

// Selected returns the highlighted book, or nil when the view is empty.
func (m Model) Selected() *model.Book {
	books := m.visible()
	if m.selected < 0 || m.selected >= len(books) {
		return nil
	}
	return books[m.selected]
}

// Err returns the message shown in the error bar.
func (m Model) Err() string { return m.errorMessage }

func (m Model) visible() []*model.Book {
	return m.shelves.For(m.filter)
}

// reload re-reads the shelves and keeps the selection in range.
func (m *Model) reload() {
	sh, err := m.lib.Shelves()
	if err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.shelves = sh
	m.clampSelection()
}

func (m *Model) clampSelection() {
	n := len(m.visible())
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// selectID highlights the book with the given ID if it is in the current view.
func (m *Model) selectID(id string) {
	for i, b := range m.visible() {
		if b.ID == id {
			m.selected = i
			return
		}
	}
}

func (m *Model) setStatus(text string) tea.Cmd {
	m.statusText = text
	m.statusID++
	id := m.statusID
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		if msg.String() == KeyCtrlC {
			m.cancelForm()
			return m, tea.Quit
		}
		switch m.mode {
		case ModeAdd:
			return m.handleFormKey(msg)
		case ModeEditNotes, ModeEditSummary:
			return m.handleEditKey(msg)
		default:
			return m.handleKey(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case lookupDoneMsg:
		if m.mode != ModeAdd || msg.flow != m.flow {
			return m, nil
		}
		if !m.flow.Resolve(msg.result) {
			return m, nil
		}
		if msg.result.Err != nil {
			return m, nil
		}
		m.isbn = m.flow.Draft.ISBN
		return m, m.setStatus("Found " + m.flow.Draft.Title)

	case clearStatusMsg:
		if msg.id == m.statusID {
			m.statusText = ""
		}
		return m, nil
	}

	return m, nil
}

// handleKey processes key presses in the list views.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit:
		return m, tea.Quit

	case KeyToRead, KeyReading, KeyFinished:
		next := model.Statuses[msg.String()[0]-'1']
		if next != m.filter {
			m.filter = next
			m.selected = 0
		}
		m.errorMessage = ""
		m.reload()
		return m, nil

	case KeyJ, KeyDown:
		if m.selected < len(m.visible())-1 {
			m.selected++
		}
		return m, nil

	case KeyK, KeyUp:
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case KeyStart:
		return m.transition(m.lib.StartReading, "Started reading ")

	case KeyFinish:
		return m.transition(m.lib.MarkFinished, "Finished ")

	case KeyNotes, KeySummary:
		b := m.Selected()
		if b == nil {
			return m, nil
		}
		m.errorMessage = ""
		if msg.String() == KeyNotes {
			m.mode = ModeEditNotes
			m.editBuf = []rune(b.Notes)
		} else {
			m.mode = ModeEditSummary
			m.editBuf = []rune(b.Summary)
		}
		return m, nil

	case KeyAdd:
		m.mode = ModeAdd
		m.flow = m.lib.NewAddBookFlow()
		m.field = fieldISBN
		m.isbn = ""
		m.coverFile = ""
		m.errorMessage = ""
		return m, nil
	}

	return m, nil
}

// transition applies a status change to the selected book. Errors, including
// a change requested from the wrong status, are shown inline.
func (m Model) transition(fn func(id string) (*model.Book, error), verb string) (tea.Model, tea.Cmd) {
	b := m.Selected()
	if b == nil {
		return m, nil
	}
	updated, err := fn(b.ID)
	m.reload()
	if err != nil {
		m.errorMessage = err.Error()
		return m, nil
	}
	m.errorMessage = ""
	return m, m.setStatus(verb + updated.Title)
}

// handleEditKey drives the notes/summary editor.
func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyCancel:
		m.mode = ModeBrowse
		m.editBuf = nil
		return m, nil

	case KeySave:
		b := m.Selected()
		if b == nil {
			m.mode = ModeBrowse
			return m, nil
		}
		text := string(m.editBuf)
		var err error
		if m.mode == ModeEditNotes {
			_, err = m.lib.UpdateNotes(b.ID, text)
		} else {
			_, err = m.lib.UpdateSummary(b.ID, text)
		}
		m.reload()
		if err != nil {
			// Stay in the editor so the text is not lost.
			m.errorMessage = err.Error()
			return m, nil
		}
		m.mode = ModeBrowse
		m.editBuf = nil
		m.errorMessage = ""
		return m, m.setStatus("Saved")

	case KeyEnter:
		m.editBuf = append(m.editBuf, '\n')
		return m, nil
	}

	m.editBuf = editRunes(m.editBuf, msg)
	return m, nil
}

// handleFormKey drives the add-book form.
func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyCancel:
		m.cancelForm()
		return m, nil

	case KeyNextField, KeyDown, KeyEnter:
		m.field = (m.field + 1) % fieldCount
		return m, nil

	case KeyPrevField, KeyUp:
		m.field = (m.field + fieldCount - 1) % fieldCount
		return m, nil

	case KeyLookup:
		isbn := strings.TrimSpace(m.isbn)
		if isbn == "" {
			m.flow.Message = "Enter an ISBN to look up."
			return m, nil
		}
		flow := m.flow
		_, fetch := flow.StartLookup(context.Background(), isbn)
		return m, func() tea.Msg {
			return lookupDoneMsg{flow: flow, result: fetch()}
		}

	case KeySave:
		return m.saveForm()
	}

	p := m.fieldValue(m.field)
	*p = string(editRunes([]rune(*p), msg))
	return m, nil
}

func (m Model) saveForm() (tea.Model, tea.Cmd) {
	if !m.flow.CanSave() {
		m.errorMessage = "A title is required."
		return m, nil
	}
	if path := strings.TrimSpace(m.coverFile); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			m.errorMessage = fmt.Sprintf("reading cover image: %v", err)
			return m, nil
		}
		m.flow.Draft.CoverImage = data
	}
	m.flow.Draft.ISBN = strings.TrimSpace(m.isbn)

	b, err := m.flow.Save()
	if err != nil {
		m.errorMessage = err.Error()
		return m, nil
	}

	m.mode = ModeBrowse
	m.flow = nil
	m.errorMessage = ""
	m.filter = model.StatusToRead
	m.reload()
	m.selectID(b.ID)
	return m, m.setStatus("Added " + b.Title)
}

func (m *Model) cancelForm() {
	if m.flow != nil {
		m.flow.Cancel()
		m.flow = nil
	}
	if m.mode == ModeAdd {
		m.mode = ModeBrowse
		m.errorMessage = ""
	}
}

// fieldValue returns the text backing a form field.
func (m *Model) fieldValue(field int) *string {
	d := &m.flow.Draft
	switch field {
	case fieldISBN:
		return &m.isbn
	case fieldTitle:
		return &d.Title
	case fieldSubtitle:
		return &d.Subtitle
	case fieldAuthor:
		return &d.Author
	case fieldPublished:
		return &d.PublishedDate
	case fieldPages:
		return &d.PageCountText
	case fieldCoverURL:
		return &d.CoverURL
	default:
		return &m.coverFile
	}
}

// editRunes applies a typing key to buf.
func editRunes(buf []rune, msg tea.KeyMsg) []rune {
	switch msg.Type {
	case tea.KeyBackspace:
		if len(buf) > 0 {
			buf = buf[:len(buf)-1]
		}
	case tea.KeySpace:
		buf = append(buf, ' ')
	case tea.KeyRunes:
		buf = append(buf, msg.Runes...)
	}
	return buf
}
