package tui

// Key binding constants used in handleKey.
const (
	KeyQuit      = "q"
	KeyCtrlC     = "ctrl+c"
	KeyToRead    = "1"
	KeyReading   = "2"
	KeyFinished  = "3"
	KeyUp        = "up"
	KeyDown      = "down"
	KeyJ         = "j"
	KeyK         = "k"
	KeyStart     = "s"
	KeyFinish    = "f"
	KeyNotes     = "e"
	KeySummary   = "u"
	KeyAdd       = "a"
	KeyLookup    = "ctrl+l"
	KeySave      = "ctrl+s"
	KeyCancel    = "esc"
	KeyNextField = "tab"
	KeyPrevField = "shift+tab"
	KeyEnter     = "enter"
	KeyBackspace = "backspace"
)
