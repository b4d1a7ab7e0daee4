// Package edit turns an instruction plus the current selection into an
// accepted revision, one submission at a time.
package edit

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/talkcad/internal/face"
	"github.com/Faultbox/talkcad/internal/ledger"
	"github.com/Faultbox/talkcad/internal/reasoning"
	"github.com/Faultbox/talkcad/internal/selection"
)

// Outcome is what a successful submission hands back for display and for
// re-running the kernel.
type Outcome struct {
	Action     string
	Parameters map[string]any
	Reasoning  string
	Face       face.ID
	Revision   ledger.Revision
}

// FaceNamer looks up a display name for the prompt. ok is false when unknown.
type FaceNamer func(id face.ID) (name string, ok bool)

// Orchestrator is the only writer of the ledger.
type Orchestrator struct {
	collab    reasoning.Collaborator
	selection *selection.State
	ledger    *ledger.Ledger
	namer     FaceNamer
	busy      atomic.Bool
	events    *bus
	now       func() time.Time
	log       *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithFaceNamer adds face names to collaborator requests.
func WithFaceNamer(n FaceNamer) Option {
	return func(o *Orchestrator) { o.namer = n }
}

// WithClock sets the clock used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New wires an orchestrator to its collaborator, selection and ledger.
func New(collab reasoning.Collaborator, sel *selection.State, led *ledger.Ledger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		collab:    collab,
		selection: sel,
		ledger:    led,
		now:       time.Now,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.events = newBus(o.log)
	return o
}

// Busy reports whether a submission is in flight.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// Subscribe returns a channel of submission events and a cancel func that
// closes it. buffer is the number of events held for a slow reader.
func (o *Orchestrator) Subscribe(buffer int) (<-chan Event, func()) {
	return o.events.subscribe(buffer)
}

// Close ends all subscriptions.
func (o *Orchestrator) Close() {
	o.events.close()
}

// Submit sends instruction to the collaborator together with the face
// selected right now (face.None is allowed and means a global edit). On
// success the decision is appended to the ledger. On any error the ledger
// and the selection are untouched. A call made while another is in flight
// returns ErrBusy at once. ctx is passed to the collaborator only; the
// orchestrator itself never abandons a submission.
func (o *Orchestrator) Submit(ctx context.Context, instruction string) (Outcome, error) {
	if strings.TrimSpace(instruction) == "" {
		return Outcome{}, ErrEmptyInstruction
	}

	if !o.busy.CompareAndSwap(false, true) {
		o.log.Debug("submission rejected, busy")
		o.events.publish(Event{Kind: EventRejected, Instruction: instruction, Face: face.None, Err: ErrBusy, At: o.now()})
		return Outcome{}, ErrBusy
	}

	faceID := o.selection.FaceOrNone()
	out, err := o.run(ctx, instruction, faceID)

	ev := Event{Instruction: instruction, Face: faceID, At: o.now()}
	if err != nil {
		ev.Kind, ev.Err = EventFailed, err
	} else {
		ev.Kind, ev.Outcome = EventAccepted, out
	}
	o.events.publish(ev)
	return out, err
}

func (o *Orchestrator) run(ctx context.Context, instruction string, faceID face.ID) (Outcome, error) {
	defer o.busy.Store(false)

	req := reasoning.Request{Instruction: instruction, Face: faceID}
	if o.namer != nil && !faceID.IsNone() {
		if name, ok := o.namer(faceID); ok {
			req.FaceName = name
		}
	}

	o.log.Info("submitting instruction", zap.Stringer("face", faceID), zap.Int("chars", len(instruction)))
	decision, err := o.collab.Decide(ctx, req)
	if err != nil {
		o.log.Warn("collaborator failed", zap.Stringer("face", faceID), zap.Error(err))
		return Outcome{}, &CollaboratorFailure{Message: err.Error(), Err: err}
	}

	rev := o.ledger.Append(ledger.Revision{
		Action:      decision.Action,
		Parameters:  decision.Parameters,
		Description: ledger.Describe(decision.Action, faceID),
		Face:        faceID,
	})
	o.log.Info("revision recorded",
		zap.String("id", rev.ID),
		zap.String("description", rev.Description),
		zap.Int("ledger_size", o.ledger.Size()),
	)

	return Outcome{
		Action:     rev.Action,
		Parameters: rev.Parameters,
		Reasoning:  decision.Reasoning,
		Face:       faceID,
		Revision:   rev,
	}, nil
}
