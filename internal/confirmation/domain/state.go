package domain

import "net/http"

// RenderState tells the renderer which dialog view to show.
type RenderState string

const (
	StatePrompt    RenderState = "prompt"
	StateConfirmed RenderState = "confirmed"
	StateCancelled RenderState = "cancelled"
	StateNotFound  RenderState = "not-found"
	StateError     RenderState = "error"
)

// HTTPStatus returns the response status used for the state.
func (s RenderState) HTTPStatus() int {
	switch s {
	case StatePrompt, StateConfirmed, StateCancelled:
		return http.StatusOK
	case StateNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// IsTerminal indicates whether the confirmation flow ended with this state.
func (s RenderState) IsTerminal() bool {
	return s != StatePrompt
}
