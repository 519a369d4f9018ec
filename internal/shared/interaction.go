package shared

import (
	"context"
	"errors"
	"sync"
)

// Interaction abstracts clipboard access and dialogs.
type Interaction interface {
	PromptText(ctx context.Context, prompt string) (string, error)
	Confirm(ctx context.Context, message string) (bool, error)
	Notify(ctx context.Context, message string)
}

// ErrNoClipboard is returned by StaticInteraction when no text was supplied.
var ErrNoClipboard = errors.New("clipboard text unavailable")

// StaticInteraction answers prompts from values carried by a request.
// Confirmed answers every confirmation; Notices collects notifications.
type StaticInteraction struct {
	Clipboard *string
	Confirmed bool

	mu      sync.Mutex
	prompts []string
	notices []string
}

// NewStaticInteraction returns an interaction that confirms when confirmed is true.
func NewStaticInteraction(confirmed bool) *StaticInteraction {
	return &StaticInteraction{Confirmed: confirmed}
}

// WithClipboard sets the text returned by PromptText.
func (s *StaticInteraction) WithClipboard(text string) *StaticInteraction {
	s.Clipboard = &text
	return s
}

// PromptText returns the supplied clipboard text.
func (s *StaticInteraction) PromptText(_ context.Context, _ string) (string, error) {
	if s.Clipboard == nil {
		return "", ErrNoClipboard
	}
	return *s.Clipboard, nil
}

// Confirm records the prompt and returns the fixed answer.
func (s *StaticInteraction) Confirm(_ context.Context, message string) (bool, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, message)
	s.mu.Unlock()
	return s.Confirmed, nil
}

// Notify records the message.
func (s *StaticInteraction) Notify(_ context.Context, message string) {
	s.mu.Lock()
	s.notices = append(s.notices, message)
	s.mu.Unlock()
}

// Prompts returns the confirmation messages shown so far.
func (s *StaticInteraction) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// Notices returns the notifications shown so far.
func (s *StaticInteraction) Notices() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.notices...)
}
