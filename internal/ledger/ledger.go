// Package ledger records accepted edits in the order they were accepted.
package ledger

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/talkcad/internal/face"
)

// ErrNoRevision is returned when a revision index is outside the ledger.
var ErrNoRevision = errors.New("no such revision")

// Revision is one accepted edit, bound to the face selected when it was submitted.
type Revision struct {
	ID          string         `yaml:"id" json:"id"`
	Action      string         `yaml:"action" json:"action"`
	Parameters  map[string]any `yaml:"parameters" json:"parameters"`
	Description string         `yaml:"description" json:"description"`
	Timestamp   time.Time      `yaml:"timestamp" json:"timestamp"`
	Face        face.ID        `yaml:"face" json:"face"`
}

// Describe builds the summary shown in the revision list.
func Describe(action string, id face.ID) string {
	return fmt.Sprintf("%s on face %s", action, id)
}

// Ledger is an append-only log of revisions. It has a single writer and any
// number of readers; entries are never edited, removed or reordered.
type Ledger struct {
	mu      sync.RWMutex
	entries []Revision
	now     func() time.Time
	newID   func() string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDs sets the revision id generator.
func WithIDs(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// New returns an empty ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append adds rev at the end and returns the stored copy. Missing ids and
// timestamps are filled in, and a timestamp earlier than the previous entry
// is raised to it so that ledger order and time order agree.
func (l *Ledger) Append(rev Revision) Revision {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rev.ID == "" {
		rev.ID = l.newID()
	}
	if rev.Timestamp.IsZero() {
		rev.Timestamp = l.now()
	}
	if n := len(l.entries); n > 0 && rev.Timestamp.Before(l.entries[n-1].Timestamp) {
		rev.Timestamp = l.entries[n-1].Timestamp
	}
	rev.Parameters = cloneMap(rev.Parameters)

	l.entries = append(l.entries, rev)
	return rev.clone()
}

// List yields the revisions in append order. Each range over the sequence
// walks the entries present when that range started; ranging again sees
// later appends too.
func (l *Ledger) List() iter.Seq[Revision] {
	return func(yield func(Revision) bool) {
		for _, rev := range l.snapshot() {
			if !yield(rev.clone()) {
				return
			}
		}
	}
}

// All returns the revisions as a slice.
func (l *Ledger) All() []Revision {
	snap := l.snapshot()
	out := make([]Revision, len(snap))
	for i, rev := range snap {
		out[i] = rev.clone()
	}
	return out
}

// Size returns the number of revisions.
func (l *Ledger) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// SelectRevision returns the revision at index for an external replay path.
// It reads only; the ledger never applies revisions itself.
func (l *Ledger) SelectRevision(index int) (Revision, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if index < 0 || index >= len(l.entries) {
		return Revision{}, fmt.Errorf("%w: index %d, ledger has %d", ErrNoRevision, index, len(l.entries))
	}
	return l.entries[index].clone(), nil
}

// Export writes the ledger as YAML.
func (l *Ledger) Export(w io.Writer) error {
	doc := struct {
		Revisions []Revision `yaml:"revisions"`
	}{Revisions: l.All()}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}
	return enc.Close()
}

// snapshot returns the current entries. Stored entries are never written
// again, so the slice header can be shared with readers.
func (l *Ledger) snapshot() []Revision {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries[:len(l.entries):len(l.entries)]
}

func (r Revision) clone() Revision {
	r.Parameters = cloneMap(r.Parameters)
	return r
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
