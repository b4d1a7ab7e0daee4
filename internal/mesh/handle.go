package mesh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// ErrClosed is returned by a Handle after Close.
var ErrClosed = errors.New("kernel handle closed")

// Producer is the kernel boundary: anything that can tessellate the current
// solid into a Model.
type Producer interface {
	Produce(ctx context.Context) (*Model, error)
}

// InitFunc creates the kernel. It runs at most once per Handle.
type InitFunc func(ctx context.Context) (Producer, error)

// Handle owns a lazily initialized kernel. Initialization is expensive for
// real kernels (a WASM or native library load), so it happens on first use
// and the result is reused until Close.
type Handle struct {
	mu       sync.Mutex
	init     InitFunc
	producer Producer
	initErr  error
	started  bool
	closed   bool
	log      *zap.Logger
}

// NewHandle wraps init. A nil logger disables logging.
func NewHandle(init InitFunc, log *zap.Logger) *Handle {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handle{init: init, log: log}
}

// Static returns a Handle around an already constructed producer.
func Static(p Producer) *Handle {
	return NewHandle(func(context.Context) (Producer, error) { return p, nil }, nil)
}

// Get returns the kernel, initializing it on the first call. A failed
// initialization is remembered and returned on every later call.
func (h *Handle) Get(ctx context.Context) (Producer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}
	if !h.started {
		h.started = true
		h.log.Debug("initializing kernel")
		h.producer, h.initErr = h.init(ctx)
		if h.initErr != nil {
			h.initErr = fmt.Errorf("initializing kernel: %w", h.initErr)
			h.log.Error("kernel init failed", zap.Error(h.initErr))
		}
	}
	return h.producer, h.initErr
}

// Produce initializes the kernel if needed and tessellates.
func (h *Handle) Produce(ctx context.Context) (*Model, error) {
	p, err := h.Get(ctx)
	if err != nil {
		return nil, err
	}
	m, err := p.Produce(ctx)
	if err != nil {
		return nil, fmt.Errorf("producing mesh: %w", err)
	}
	h.log.Debug("mesh produced",
		zap.Int("vertices", m.VertexCount()),
		zap.Int("triangles", m.TriangleCount()),
		zap.Bool("provenance", m.HasProvenance()),
	)
	return m, nil
}

// Close releases the kernel. Producers implementing io.Closer are closed.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	if c, ok := h.producer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
