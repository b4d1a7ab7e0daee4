package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Faultbox/talkcad/internal/edit"
	"github.com/Faultbox/talkcad/internal/face"
	"github.com/Faultbox/talkcad/internal/ledger"
	"github.com/Faultbox/talkcad/internal/mesh"
	"github.com/Faultbox/talkcad/internal/picking"
	"github.com/Faultbox/talkcad/internal/reasoning"
	"github.com/Faultbox/talkcad/pkg/math"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// countingKernel produces the sample cube and can be told to fail.
type countingKernel struct {
	mu    sync.Mutex
	calls int
	fail  error
}

func (k *countingKernel) Produce(ctx context.Context) (*mesh.Model, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.calls++
	if k.fail != nil {
		return nil, k.fail
	}
	return mesh.Box{Size: 10}.Produce(ctx)
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newSession(t *testing.T, kernel mesh.Producer, collab reasoning.Collaborator) *Session {
	t.Helper()
	s, err := New(t.Context(), Options{
		Kernel:       mesh.Static(kernel),
		Mode:         face.IndexRatio{TrianglesPerFace: 2},
		Collaborator: collab,
		Clock:        func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
		IDs:          sequentialIDs(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func holeCollaborator(got *reasoning.Request) reasoning.Collaborator {
	return reasoning.Func(func(_ context.Context, req reasoning.Request) (reasoning.Decision, error) {
		if got != nil {
			*got = req
		}
		return reasoning.Decision{
			Action:     "add_hole",
			Parameters: map[string]any{"radius": 5.0},
			Reasoning:  "A hole fits.",
		}, nil
	})
}

func TestNewInstallsFirstGeneration(t *testing.T) {
	s := newSession(t, mesh.Box{Size: 10}, holeCollaborator(nil))

	assert.Equal(t, "id-1", s.ID())
	assert.Equal(t, uint64(1), s.Generation())
	assert.Equal(t, 12, s.Model().TriangleCount())
	assert.Equal(t, 6, s.FaceCount())
	assert.Zero(t, s.RevisionCount())

	_, _, ok := s.Selected()
	assert.False(t, ok)
}

func TestNewValidatesOptions(t *testing.T) {
	collab := holeCollaborator(nil)
	kernel := mesh.Static(mesh.Box{})

	_, err := New(t.Context(), Options{Mode: face.ProvenanceMap{}, Collaborator: collab})
	assert.Error(t, err)
	_, err = New(t.Context(), Options{Kernel: kernel, Collaborator: collab})
	assert.Error(t, err)
	_, err = New(t.Context(), Options{Kernel: kernel, Mode: face.ProvenanceMap{}})
	assert.Error(t, err)

	// The plain box carries no provenance.
	_, err = New(t.Context(), Options{Kernel: kernel, Mode: face.ProvenanceMap{}, Collaborator: collab})
	assert.ErrorIs(t, err, face.ErrInvalidMode)
}

func TestPickSelectsFace(t *testing.T) {
	s := newSession(t, mesh.Box{Size: 10}, holeCollaborator(nil))

	id, md, err := s.Pick(7)
	require.NoError(t, err)
	assert.Equal(t, face.ID(3), id)
	assert.Equal(t, "Bottom face", md.Name)

	got, gotMD, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, face.ID(3), got)
	assert.Equal(t, md, gotMD)

	s.ClearSelection()
	_, _, ok = s.Selected()
	assert.False(t, ok)
}

func TestSelectFace(t *testing.T) {
	s := newSession(t, mesh.Box{Size: 10}, holeCollaborator(nil))

	md, err := s.SelectFace(4)
	require.NoError(t, err)
	assert.Equal(t, "Right face", md.Name)

	_, err = s.SelectFace(6)
	assert.ErrorIs(t, err, face.ErrUnknownFace)

	id, _, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, face.ID(4), id)
}

func TestPickOutOfRangeKeepsSelection(t *testing.T) {
	s := newSession(t, mesh.Box{Size: 10}, holeCollaborator(nil))

	_, _, err := s.Pick(4)
	require.NoError(t, err)

	_, _, err = s.Pick(12)
	var oor *face.OutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 12, oor.Index)

	id, _, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, face.ID(2), id)
}

func TestPickRay(t *testing.T) {
	s := newSession(t, mesh.Box{Size: 10}, holeCollaborator(nil))

	id, md, err := s.PickRay(picking.NewRay(math.Vec3{X: 1, Y: -2, Z: 20}, math.Vec3{Z: -1}))
	require.NoError(t, err)
	assert.Equal(t, face.ID(0), id)
	assert.Equal(t, "Front face", md.Name)

	id, _, err = s.PickRay(picking.NewRay(math.Vec3{X: 20, Y: 1, Z: 2}, math.Vec3{X: -1}))
	require.NoError(t, err)
	assert.Equal(t, face.ID(4), id)

	_, _, err = s.PickRay(picking.NewRay(math.Vec3{X: 20, Y: 20, Z: 20}, math.Vec3{Z: -1}))
	assert.ErrorIs(t, err, ErrMiss)
}

func TestSubmitRecordsAndRederives(t *testing.T) {
	kernel := &countingKernel{}
	var req reasoning.Request
	s := newSession(t, kernel, holeCollaborator(&req))

	_, _, err := s.Pick(4)
	require.NoError(t, err)

	out, err := s.Submit(t.Context(), "Add a hole with 5mm radius")
	require.NoError(t, err)
	assert.Equal(t, "add_hole", out.Action)
	assert.Equal(t, face.ID(2), out.Face)
	assert.Equal(t, "add_hole on face 2", out.Revision.Description)

	assert.Equal(t, face.ID(2), req.Face)
	assert.Equal(t, "Top face", req.FaceName)

	assert.Equal(t, 2, kernel.calls)
	assert.Equal(t, uint64(2), s.Generation())

	// The selection survives re-derivation because face 2 still exists.
	id, _, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, face.ID(2), id)

	revs := slices.Collect(s.Revisions())
	require.Len(t, revs, 1)
	assert.Equal(t, out.Revision, revs[0])

	rev, err := s.SelectRevision(0)
	require.NoError(t, err)
	assert.Equal(t, out.Revision.ID, rev.ID)
	assert.Equal(t, uint64(2), s.Generation(), "selecting a revision does not touch the mesh")

	_, err = s.SelectRevision(1)
	assert.ErrorIs(t, err, ledger.ErrNoRevision)
}

func TestSubmitFailureLeavesStateAlone(t *testing.T) {
	kernel := &countingKernel{}
	collab := reasoning.Func(func(context.Context, reasoning.Request) (reasoning.Decision, error) {
		return reasoning.Decision{}, errors.New("Invalid modification")
	})
	s := newSession(t, kernel, collab)

	_, _, err := s.Pick(0)
	require.NoError(t, err)

	_, err = s.Submit(t.Context(), "make it purple")
	var cf *edit.CollaboratorFailure
	require.ErrorAs(t, err, &cf)
	assert.Equal(t, "Invalid modification", err.Error())

	assert.Zero(t, s.RevisionCount())
	assert.Equal(t, 1, kernel.calls)
	assert.Equal(t, uint64(1), s.Generation())

	id, _, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, face.ID(0), id)
}

func TestSubmitRederiveFailure(t *testing.T) {
	kernel := &countingKernel{}
	s := newSession(t, kernel, holeCollaborator(nil))

	kernel.mu.Lock()
	kernel.fail = errors.New("kernel crashed")
	kernel.mu.Unlock()

	out, err := s.Submit(t.Context(), "add a hole")
	require.ErrorIs(t, err, ErrRederive)
	assert.Contains(t, err.Error(), "kernel crashed")
	assert.Equal(t, "add_hole on face none", out.Revision.Description)
	assert.Equal(t, 1, s.RevisionCount())
	assert.Equal(t, uint64(1), s.Generation())
}

func TestInstallKeepsSelectionWhenFaceIsMissing(t *testing.T) {
	s := newSession(t, mesh.Box{Size: 10}, holeCollaborator(nil))

	_, _, err := s.Pick(10)
	require.NoError(t, err)

	quad, err := mesh.New(
		[]float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0},
		[]uint32{0, 1, 2, 0, 2, 3},
	)
	require.NoError(t, err)
	require.NoError(t, s.Install(quad))

	assert.Equal(t, uint64(2), s.Generation())
	assert.Equal(t, 1, s.FaceCount())

	id, md, ok := s.Selected()
	require.True(t, ok, "only an explicit clear deselects")
	assert.Equal(t, face.ID(5), id)
	assert.Empty(t, md.Name)

	_, _, err = s.Pick(2)
	assert.ErrorIs(t, err, face.ErrOutOfRange)
	id, _, ok = s.Selected()
	require.True(t, ok)
	assert.Equal(t, face.ID(5), id)
}

func TestConcurrentInstallsNumberGenerations(t *testing.T) {
	s := newSession(t, mesh.Box{Size: 10}, holeCollaborator(nil))
	m := s.Model()

	const installs = 50
	var wg sync.WaitGroup
	for range installs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Install(m))
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(installs+1), s.Generation())
}

func TestInstallFailureKeepsGeneration(t *testing.T) {
	s, err := New(t.Context(), Options{
		Kernel:       mesh.Static(mesh.TopoBox{Size: 2, Divisions: 1}),
		Mode:         face.ProvenanceMap{},
		Collaborator: holeCollaborator(nil),
	})
	require.NoError(t, err)
	defer s.Close()

	plain, err := mesh.Box{}.Produce(t.Context())
	require.NoError(t, err)

	err = s.Install(plain)
	assert.ErrorIs(t, err, face.ErrInvalidMode)
	assert.Equal(t, uint64(1), s.Generation())
	assert.True(t, s.Model().HasProvenance())
}

func TestSubscribeSeesAcceptedEvent(t *testing.T) {
	s := newSession(t, mesh.Box{Size: 10}, holeCollaborator(nil))
	events, cancel := s.Subscribe(4)
	defer cancel()

	_, err := s.Submit(t.Context(), "add a hole")
	require.NoError(t, err)

	ev := <-events
	assert.Equal(t, edit.EventAccepted, ev.Kind)
	assert.Equal(t, "add_hole", ev.Outcome.Action)
}

func TestCloseIsIdempotent(t *testing.T) {
	s, err := New(t.Context(), Options{
		Kernel:       mesh.Static(mesh.Box{}),
		Mode:         face.IndexRatio{TrianglesPerFace: 2},
		Collaborator: holeCollaborator(nil),
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Submit(t.Context(), "add a hole")
	assert.ErrorIs(t, err, ErrRederive)
	assert.ErrorIs(t, err, mesh.ErrClosed)
}
