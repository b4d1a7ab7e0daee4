// Package selection holds the currently selected face.
package selection

import (
	"sync/atomic"

	"github.com/Faultbox/talkcad/internal/face"
)

// State is the current face selection; the zero value is empty. Updates
// replace a single word atomically, so readers on any goroutine see either
// the old or the new selection, never a mix.
type State struct {
	current atomic.Int64 // id+1, 0 when empty
}

// New returns an empty selection.
func New() *State {
	return &State{}
}

// Select overwrites the selection with id. Selecting face.None clears it.
func (s *State) Select(id face.ID) {
	if id.IsNone() {
		s.Clear()
		return
	}
	s.current.Store(int64(id) + 1)
}

// Clear removes the selection.
func (s *State) Clear() {
	s.current.Store(0)
}

// Current returns the selected face. ok is false when nothing is selected,
// in which case id is face.None.
func (s *State) Current() (id face.ID, ok bool) {
	v := s.current.Load()
	if v == 0 {
		return face.None, false
	}
	return face.ID(v - 1), true
}

// FaceOrNone returns the selected face or face.None.
func (s *State) FaceOrNone() face.ID {
	id, _ := s.Current()
	return id
}
