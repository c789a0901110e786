package views

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// ListWindow is the cursor and scroll position of a list pane. Rows are
// the rendered lines, including a trailing loading row when present.
type ListWindow struct {
	Cursor int
	Offset int
	Height int
}

// SetHeight changes the number of visible rows and keeps the cursor in view
func (w *ListWindow) SetHeight(height, rows int) {
	if height < 1 {
		height = 1
	}
	w.Height = height
	w.Clamp(rows)
}

// Move shifts the cursor by delta rows
func (w *ListWindow) Move(delta, rows int) {
	w.Cursor += delta
	w.Clamp(rows)
}

// Top moves the cursor to the first row
func (w *ListWindow) Top() {
	w.Cursor = 0
	w.Offset = 0
}

// Bottom moves the cursor to the last row
func (w *ListWindow) Bottom(rows int) {
	w.Cursor = rows - 1
	w.Clamp(rows)
}

// Page is the distance PgUp/PgDn travel
func (w *ListWindow) Page() int {
	if w.Height > 2 {
		return w.Height - 1
	}
	return 1
}

// Clamp keeps cursor and offset valid for a list of rows lines
func (w *ListWindow) Clamp(rows int) {
	if w.Height < 1 {
		w.Height = 1
	}
	if rows <= 0 {
		w.Cursor, w.Offset = 0, 0
		return
	}
	w.Cursor = max(0, min(w.Cursor, rows-1))
	if w.Cursor < w.Offset {
		w.Offset = w.Cursor
	}
	if w.Cursor >= w.Offset+w.Height {
		w.Offset = w.Cursor - w.Height + 1
	}
	w.Offset = max(0, min(w.Offset, rows-w.Height))
}

// Visible reports whether row index is inside the window
func (w ListWindow) Visible(index int) bool {
	return index >= w.Offset && index < w.Offset+w.Height
}

// Row is one rendered line of a list
type Row struct {
	Text  string
	Style lipgloss.Style
}

// RenderRows renders the visible slice of rows, each truncated to width
// and padded so the pane keeps a fixed height.
func RenderRows(w ListWindow, rows []Row, width int) string {
	lines := make([]string, 0, w.Height)
	end := min(len(rows), w.Offset+w.Height)
	for i := w.Offset; i < end; i++ {
		text := rows[i].Text
		if width > 0 {
			text = ansi.Truncate(text, width, "…")
			if pad := width - ansi.StringWidth(text); pad > 0 {
				text += strings.Repeat(" ", pad)
			}
		}
		lines = append(lines, rows[i].Style.Render(text))
	}
	for len(lines) < w.Height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
