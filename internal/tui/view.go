package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"shelf-go/internal/model"
)

var tabTitles = map[model.Status]string{
	model.StatusToRead:   "To read",
	model.StatusReading:  "Reading",
	model.StatusFinished: "Finished",
}

// View renders the whole screen.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, DividerStyle.Render(strings.Repeat("─", m.width)))

	if m.mode == ModeAdd {
		sections = append(sections, m.renderForm())
	} else {
		sections = append(sections, m.renderMainContent())
	}

	sections = append(sections, DividerStyle.Render(strings.Repeat("─", m.width)))
	if m.errorMessage != "" {
		sections = append(sections, ErrorStyle.Render("Error: ")+ErrorTextStyle.Render(m.errorMessage))
	}
	if m.statusText != "" {
		sections = append(sections, StatusStyle.Render(m.statusText))
	}
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	parts := []string{TitleStyle.Render("SHELF")}
	for i, s := range model.Statuses {
		label := fmt.Sprintf("%d %s (%d)", i+1, tabTitles[s], len(m.shelves.For(s)))
		if s == m.filter && m.mode != ModeAdd {
			parts = append(parts, TabActiveStyle.Render(label))
		} else {
			parts = append(parts, TabStyle.Render(label))
		}
	}
	return strings.Join(parts, " ")
}

func (m Model) contentHeight() int {
	// header, two dividers, footer, error and status lines
	return max(3, m.height-6)
}

func (m Model) renderMainContent() string {
	listW := max(20, m.width*2/5)
	detailW := max(20, m.width-listW-3)
	h := m.contentHeight()

	listLines := fitLines(m.renderList(listW), h, listW)
	var detail []string
	if m.mode == ModeEditNotes || m.mode == ModeEditSummary {
		detail = m.renderEditor(detailW)
	} else {
		detail = m.renderDetail(detailW)
	}
	detailLines := fitLines(detail, h, 0)

	divider := DividerStyle.Render(" │ ")
	rows := make([]string, h)
	for i := range rows {
		rows[i] = listLines[i] + divider + detailLines[i]
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderList(width int) []string {
	books := m.visible()
	if len(books) == 0 {
		return []string{DimStyle.Render("  Nothing here yet."), DimStyle.Render("  Press a to add a book.")}
	}

	h := m.contentHeight()
	start := 0
	if m.selected >= h {
		start = m.selected - h + 1
	}

	var lines []string
	for i := start; i < len(books) && len(lines) < h; i++ {
		b := books[i]
		text := b.Title
		if b.Author != "" {
			text += " · " + b.Author
		}
		if i == m.selected {
			lines = append(lines, SelectedStyle.Render(truncate("> "+text, width)))
		} else {
			lines = append(lines, truncate("  "+text, width))
		}
	}
	return lines
}

func (m Model) renderDetail(width int) []string {
	b := m.Selected()
	if b == nil {
		return nil
	}

	lines := []string{SelectedStyle.Render(truncate(b.Title, width))}
	if b.Subtitle != "" {
		lines = append(lines, DimStyle.Render(truncate(b.Subtitle, width)))
	}
	lines = append(lines, "")

	row := func(label, value string) {
		if value != "" {
			lines = append(lines, LabelStyle.Render(label)+truncate(value, max(1, width-11)))
		}
	}
	row("Author", b.Author)
	row("ISBN", b.ISBN)
	row("Published", b.PublishedDate)
	if b.PageCount != nil {
		row("Pages", strconv.Itoa(*b.PageCount))
	}
	lines = append(lines, LabelStyle.Render("Status")+StatusBadge[b.Status.String()].Render(b.Status.String()))
	row("Added", m.when(b.CreatedAt))
	if b.StartDate != nil {
		row("Started", m.when(*b.StartDate))
	}
	if b.FinishDate != nil {
		row("Finished", m.when(*b.FinishDate))
	}
	if days, ok := b.ReadingDuration(); ok {
		row("Read in", model.FormatDays(days))
	}
	row("Cover", coverText(b))

	if b.Notes != "" {
		lines = append(lines, "", LabelStyle.Render("Notes"))
		lines = append(lines, wrapText(b.Notes, width)...)
	}
	if b.Summary != "" {
		lines = append(lines, "", LabelStyle.Render("Summary"))
		lines = append(lines, wrapText(b.Summary, width)...)
	}
	return lines
}

func (m Model) renderEditor(width int) []string {
	label := "Notes"
	if m.mode == ModeEditSummary {
		label = "Summary"
	}
	title := ""
	if b := m.Selected(); b != nil {
		title = b.Title
	}

	lines := []string{
		SelectedStyle.Render(truncate(title, width)),
		FieldActiveStyle.Render("Editing " + label),
		"",
	}
	lines = append(lines, wrapText(string(m.editBuf)+"▌", width)...)
	return lines
}

func (m Model) renderForm() string {
	lines := []string{TitleStyle.Render("Add a book"), ""}
	for i := 0; i < fieldCount; i++ {
		value := *m.fieldValue(i)
		label := LabelStyle.Render(fieldLabels[i])
		if i == m.field {
			lines = append(lines, FieldActiveStyle.Render("> ")+label+FieldActiveStyle.Render(value+"▌"))
		} else {
			lines = append(lines, "  "+label+value)
		}
	}
	lines = append(lines, "")
	switch {
	case m.flow.Loading():
		lines = append(lines, DimStyle.Render("  Looking up..."))
	case m.flow.Message != "":
		lines = append(lines, ErrorTextStyle.Render("  "+m.flow.Message))
	}
	return strings.Join(fitLines(lines, m.contentHeight(), 0), "\n")
}

func (m Model) renderFooter() string {
	var keys [][2]string
	switch m.mode {
	case ModeAdd:
		keys = [][2]string{{"tab", "next"}, {"ctrl+l", "look up"}, {"esc", "cancel"}}
		if m.flow.CanSave() {
			keys = append(keys, [2]string{"ctrl+s", "save"})
		}
	case ModeEditNotes, ModeEditSummary:
		keys = [][2]string{{"ctrl+s", "save"}, {"esc", "cancel"}}
	default:
		keys = [][2]string{{"1/2/3", "view"}, {"j/k", "move"}}
		if b := m.Selected(); b != nil {
			switch b.Status {
			case model.StatusToRead:
				keys = append(keys, [2]string{"s", "start"})
			case model.StatusReading:
				keys = append(keys, [2]string{"f", "finish"})
			}
			keys = append(keys, [2]string{"e", "notes"}, [2]string{"u", "summary"})
		}
		keys = append(keys, [2]string{"a", "add"}, [2]string{"q", "quit"})
	}

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, FooterKeyStyle.Render(k[0])+FooterDescStyle.Render(" "+k[1]))
	}
	return strings.Join(parts, "  ")
}

// when formats t as a date with a relative age, e.g. "2024-03-01 (3 days ago)".
func (m Model) when(t time.Time) string {
	return t.Local().Format("2006-01-02") + " (" + humanize.RelTime(t, m.now(), "ago", "from now") + ")"
}

func coverText(b *model.Book) string {
	src, u := b.Cover()
	switch src {
	case model.CoverFromImage:
		return "image, " + humanize.Bytes(uint64(len(b.CoverImage)))
	case model.CoverFromURL:
		return u.String()
	default:
		return ""
	}
}

// Helpers

// fitLines pads or cuts lines to exactly height rows. A positive width pads
// each row to that visible width.
func fitLines(lines []string, height, width int) []string {
	out := make([]string, height)
	for i := range out {
		if i < len(lines) {
			out[i] = lines[i]
		}
		if width > 0 {
			out[i] = padRight(out[i], width)
		}
	}
	return out
}

func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if width <= 0 || len(runes) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			if current == "" {
				current = word
			} else if len(current)+1+len(word) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		lines = append(lines, current)
	}
	return lines
}
