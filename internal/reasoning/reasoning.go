// Package reasoning is the boundary to the language model that turns a
// free-text instruction into a structured edit decision.
package reasoning

import (
	"context"
	"errors"
	"sync"

	"github.com/Faultbox/talkcad/internal/face"
)

var (
	// ErrRequestFailed wraps transport and API failures.
	ErrRequestFailed = errors.New("failed to process command")

	// ErrUnparseable is returned when the model's reply has no usable decision.
	ErrUnparseable = errors.New("failed to parse AI response")
)

// Request is what the collaborator sees of a submission.
type Request struct {
	Instruction string
	Face        face.ID // face.None for a global edit
	FaceName    string  // optional display name of Face
}

// Decision is the structured reply. Action and Parameters are opaque to the core.
type Decision struct {
	Action     string         `json:"action"`
	Parameters map[string]any `json:"parameters"`
	Reasoning  string         `json:"reasoning"`
}

// Collaborator turns a request into a decision or fails with a displayable error.
type Collaborator interface {
	Decide(ctx context.Context, req Request) (Decision, error)
}

// Func adapts a plain function to Collaborator.
type Func func(ctx context.Context, req Request) (Decision, error)

// Decide calls f.
func (f Func) Decide(ctx context.Context, req Request) (Decision, error) {
	return f(ctx, req)
}

// Lazy defers building a collaborator until the first decision. A failed
// build is returned from that Decide and retried on the next one.
func Lazy(build func(ctx context.Context) (Collaborator, error)) Collaborator {
	return &lazy{build: build}
}

type lazy struct {
	mu    sync.Mutex
	build func(ctx context.Context) (Collaborator, error)
	c     Collaborator
}

func (l *lazy) Decide(ctx context.Context, req Request) (Decision, error) {
	l.mu.Lock()
	if l.c == nil {
		c, err := l.build(ctx)
		if err != nil {
			l.mu.Unlock()
			return Decision{}, err
		}
		l.c = c
	}
	c := l.c
	l.mu.Unlock()
	return c.Decide(ctx, req)
}
