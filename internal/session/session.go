// Package session wires the kernel, the face resolver, the selection, the
// ledger and the orchestrator into the single active editing session.
package session

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/talkcad/internal/edit"
	"github.com/Faultbox/talkcad/internal/face"
	"github.com/Faultbox/talkcad/internal/ledger"
	"github.com/Faultbox/talkcad/internal/mesh"
	"github.com/Faultbox/talkcad/internal/picking"
	"github.com/Faultbox/talkcad/internal/reasoning"
	"github.com/Faultbox/talkcad/internal/selection"
)

var (
	// ErrMiss is returned by PickRay when the ray hits no triangle.
	ErrMiss = errors.New("ray hit nothing")

	// ErrRederive is returned with a valid Outcome when the revision was
	// accepted but the kernel could not produce the next mesh.
	ErrRederive = errors.New("re-deriving mesh failed")
)

// TableFunc builds the metadata table for a freshly produced mesh.
type TableFunc func(m *mesh.Model, mode face.Mode) (face.Table, error)

// Options configures New. Kernel, Mode and Collaborator are required.
type Options struct {
	Kernel       *mesh.Handle
	Mode         face.Mode
	Table        TableFunc
	Collaborator reasoning.Collaborator
	Clock        func() time.Time
	IDs          func() string
	Log          *zap.Logger
}

// generation is one mesh and the resolver built for it.
type generation struct {
	seq      uint64
	resolver *face.Resolver
}

func (g *generation) seqOrZero() uint64 {
	if g == nil {
		return 0
	}
	return g.seq
}

// Session is safe for concurrent use. Picks and reads may run while a
// submission is outstanding.
type Session struct {
	id     string
	kernel *mesh.Handle
	mode   face.Mode
	table  TableFunc

	installMu sync.Mutex // orders generation numbers across concurrent installs
	current   atomic.Pointer[generation]

	sel  *selection.State
	led  *ledger.Ledger
	orch *edit.Orchestrator
	log  *zap.Logger
}

// New produces the first mesh generation and returns a ready session.
func New(ctx context.Context, opts Options) (*Session, error) {
	if opts.Kernel == nil {
		return nil, errors.New("session: kernel handle is required")
	}
	if opts.Mode == nil {
		return nil, errors.New("session: resolver mode is required")
	}
	if opts.Collaborator == nil {
		return nil, errors.New("session: collaborator is required")
	}
	if opts.Table == nil {
		opts.Table = face.TableFromGeometry
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.IDs == nil {
		opts.IDs = uuid.NewString
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	s := &Session{
		id:     opts.IDs(),
		kernel: opts.Kernel,
		mode:   opts.Mode,
		table:  opts.Table,
		sel:    selection.New(),
		led:    ledger.New(ledger.WithClock(opts.Clock), ledger.WithIDs(opts.IDs)),
		log:    opts.Log,
	}
	s.orch = edit.New(opts.Collaborator, s.sel, s.led,
		edit.WithLogger(opts.Log.Named("edit")),
		edit.WithFaceNamer(s.faceName),
		edit.WithClock(opts.Clock),
	)

	m, err := s.kernel.Produce(ctx)
	if err != nil {
		return nil, fmt.Errorf("producing initial mesh: %w", err)
	}
	if err := s.Install(m); err != nil {
		return nil, err
	}
	return s, nil
}

// ID returns the session id used to tag archived revisions.
func (s *Session) ID() string {
	return s.id
}

// Install makes m the current mesh generation. On error the previous
// generation stays in place. The selection is kept even when its face is
// missing from m.
func (s *Session) Install(m *mesh.Model) error {
	table, err := s.table(m, s.mode)
	if err != nil {
		return fmt.Errorf("building face table: %w", err)
	}
	r, err := face.NewResolver(m, s.mode, table)
	if err != nil {
		return fmt.Errorf("building resolver: %w", err)
	}

	s.installMu.Lock()
	gen := &generation{seq: s.current.Load().seqOrZero() + 1, resolver: r}
	s.current.Store(gen)
	s.installMu.Unlock()

	if id, ok := s.sel.Current(); ok {
		if _, err := r.Describe(id); err != nil {
			s.log.Info("selected face has no metadata in this generation", zap.Stringer("face", id), zap.Uint64("generation", gen.seq))
		}
	}

	s.log.Info("mesh generation installed",
		zap.Uint64("generation", gen.seq),
		zap.Int("triangles", m.TriangleCount()),
		zap.Int("faces", r.FaceCount()),
		zap.Stringer("mode", s.mode),
	)
	return nil
}

// Generation returns the sequence number of the current mesh, starting at 1.
func (s *Session) Generation() uint64 {
	return s.current.Load().seq
}

// Model returns the current mesh.
func (s *Session) Model() *mesh.Model {
	return s.current.Load().resolver.Model()
}

// FaceCount returns the number of faces in the current generation.
func (s *Session) FaceCount() int {
	return s.current.Load().resolver.FaceCount()
}

// Pick resolves a triangle index to its face, describes it and selects it.
// Nothing is selected on error.
func (s *Session) Pick(triangle int) (face.ID, face.Metadata, error) {
	r := s.current.Load().resolver

	id, err := r.Resolve(triangle)
	if err != nil {
		return face.None, face.Metadata{}, err
	}
	md, err := r.Describe(id)
	if err != nil {
		s.log.Error("resolver and face table disagree", zap.Stringer("face", id), zap.Error(err))
		return face.None, face.Metadata{}, err
	}

	s.sel.Select(id)
	s.log.Debug("face selected", zap.Int("triangle", triangle), zap.Stringer("face", id), zap.String("name", md.Name))
	return id, md, nil
}

// SelectFace selects a face by id, for callers that already know it.
func (s *Session) SelectFace(id face.ID) (face.Metadata, error) {
	md, err := s.current.Load().resolver.Describe(id)
	if err != nil {
		return face.Metadata{}, err
	}
	s.sel.Select(id)
	return md, nil
}

// PickRay casts ray against the current mesh and picks the nearest triangle.
func (s *Session) PickRay(ray picking.Ray) (face.ID, face.Metadata, error) {
	tri, _, ok := picking.PickTriangle(ray, s.Model())
	if !ok {
		return face.None, face.Metadata{}, ErrMiss
	}
	return s.Pick(tri)
}

// Selected returns the selected face and its metadata.
func (s *Session) Selected() (face.ID, face.Metadata, bool) {
	id, ok := s.sel.Current()
	if !ok {
		return face.None, face.Metadata{}, false
	}
	md, err := s.current.Load().resolver.Describe(id)
	if err != nil {
		return id, face.Metadata{}, true
	}
	return id, md, true
}

// ClearSelection deselects.
func (s *Session) ClearSelection() {
	s.sel.Clear()
}

// Busy reports whether a submission is outstanding.
func (s *Session) Busy() bool {
	return s.orch.Busy()
}

// Submit runs instruction through the orchestrator. After an accepted
// revision the kernel is asked for the next mesh.
func (s *Session) Submit(ctx context.Context, instruction string) (edit.Outcome, error) {
	out, err := s.orch.Submit(ctx, instruction)
	if err != nil {
		return out, err
	}

	m, err := s.kernel.Produce(ctx)
	if err == nil {
		err = s.Install(m)
	}
	if err != nil {
		s.log.Warn("mesh not re-derived", zap.String("revision", out.Revision.ID), zap.Error(err))
		return out, fmt.Errorf("%w: %w", ErrRederive, err)
	}
	return out, nil
}

// Revisions yields accepted revisions in order.
func (s *Session) Revisions() iter.Seq[ledger.Revision] {
	return s.led.List()
}

// RevisionCount returns the ledger size.
func (s *Session) RevisionCount() int {
	return s.led.Size()
}

// SelectRevision returns the revision at index. It does not change the mesh.
func (s *Session) SelectRevision(index int) (ledger.Revision, error) {
	return s.led.SelectRevision(index)
}

// Ledger exposes the ledger for export.
func (s *Session) Ledger() *ledger.Ledger {
	return s.led
}

// Subscribe forwards to the orchestrator's event stream.
func (s *Session) Subscribe(buffer int) (<-chan edit.Event, func()) {
	return s.orch.Subscribe(buffer)
}

// Close ends subscriptions and releases the kernel.
func (s *Session) Close() error {
	s.orch.Close()
	return s.kernel.Close()
}

func (s *Session) faceName(id face.ID) (string, bool) {
	md, err := s.current.Load().resolver.Describe(id)
	if err != nil {
		return "", false
	}
	return md.Name, true
}
