package tui

import "shelf-go/internal/shelf"

// lookupDoneMsg carries the result of a catalog lookup started from the add form.
// flow identifies the form that started it; results for a closed form are dropped.
type lookupDoneMsg struct {
	flow   *shelf.AddBookFlow
	result shelf.LookupResult
}

// clearStatusMsg clears the status line after a timeout.
type clearStatusMsg struct {
	id int
}
