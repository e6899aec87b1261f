package ui

// Interactive is a full-screen display that owns the terminal while a run
// is in progress
type Interactive interface {
	Observer
	// Start blocks until the display exits
	Start() error
	Stop()
	// IsPaused reports whether the user asked the runs to hold
	IsPaused() bool
}
