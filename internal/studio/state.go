package studio

import "cinematica/internal/styles"

// State is the session lifecycle phase.
type State string

const (
	StateIdle      State = "idle"
	StateDrafting  State = "drafting"
	StateEditing   State = "editing"
	StateAnimating State = "animating"
	StateCompleted State = "completed"
	StateError     State = "error"
)

// KeyState tracks whether the host has confirmed an API key selection.
// KeyConfirmed is only set after the host acknowledges, never optimistically.
type KeyState string

const (
	KeyUnknown   KeyState = "unknown"
	KeySelecting KeyState = "selecting"
	KeyConfirmed KeyState = "confirmed"
)

// MediaState aggregates everything produced so far. It is replaced or
// mutated only on successful operations; failures leave it untouched.
type MediaState struct {
	ImageURL      string
	VideoURL      string
	Excerpt       string
	SelectedStyle *styles.CinematicStyle
	LastPrompt    string
}
