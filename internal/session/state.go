// Package session holds the conversation state shared by the terminal and
// web surfaces: the message log, the current cell layout and the single
// in-flight request.
package session

import (
	"errors"
	"strings"

	"github.com/diogo/cellchat/internal/cells"
	"github.com/diogo/cellchat/internal/models"
)

var (
	// ErrEmptyInput is returned for input that is blank after trimming
	ErrEmptyInput = errors.New("message is empty")
	// ErrBusy is returned while a request is in flight
	ErrBusy = errors.New("a request is already in flight")
	// ErrStaleResponse is returned when a reply does not belong to the
	// request currently in flight
	ErrStaleResponse = errors.New("response does not match the pending request")
)

// State is the conversation. The zero value is not ready for use; call
// NewState.
type State struct {
	Messages []models.Message
	Layout   cells.Layout
	Loading  bool
	// Generation identifies the latest submitted request
	Generation uint64
}

// Request is what Submit hands to the caller to send
type Request struct {
	Generation uint64
	Message    string
	// History is the conversation before Message was appended
	History []models.Message
}

// NewState returns a conversation opened by the welcome message
func NewState() State {
	return State{
		Messages: []models.Message{models.AssistantMessage(models.WelcomeText)},
	}
}

// Submit appends the user message and marks the state as loading. The
// state is left untouched when it returns an error.
func (s *State) Submit(input string) (Request, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return Request{}, ErrEmptyInput
	}
	if s.Loading {
		return Request{}, ErrBusy
	}

	history := append([]models.Message(nil), s.Messages...)
	s.Messages = append(s.Messages, models.UserMessage(text))
	s.Loading = true
	s.Generation++

	return Request{Generation: s.Generation, Message: text, History: history}, nil
}

// Resolve applies the outcome of the request identified by generation.
// A successful reply replaces the layout and adds the acknowledgment; a
// failed one adds the generic error text and keeps the previous layout.
func (s *State) Resolve(generation uint64, completion *models.Completion, err error) error {
	if !s.Loading || generation != s.Generation {
		return ErrStaleResponse
	}

	s.Loading = false
	if err != nil || completion == nil {
		s.Messages = append(s.Messages, models.AssistantMessage(models.ErrorText))
		return nil
	}

	s.Layout = cells.Interpret(completion.CellsJSON())
	s.Messages = append(s.Messages, models.AssistantMessage(completion.Acknowledgment()))
	return nil
}

// LastAssistant returns the most recent assistant message text
func (s State) LastAssistant() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == models.RoleAssistant {
			return s.Messages[i].Content
		}
	}
	return ""
}

// Clone returns a copy that shares no slices with s
func (s State) Clone() State {
	out := s
	out.Messages = append([]models.Message(nil), s.Messages...)
	out.Layout.Boxes = append([]cells.Box(nil), s.Layout.Boxes...)
	out.Layout.Diagnostics = append([]cells.Diagnostic(nil), s.Layout.Diagnostics...)
	return out
}
