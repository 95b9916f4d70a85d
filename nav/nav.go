// Package nav scopes in-flight work to the page that started it.
//
// Every page load is an Epoch. Beginning a new epoch aborts the previous one:
// its context is cancelled with ErrNavigatedAway so pending lookups stop and
// nothing they produce is committed. Unload aborts the current epoch with
// ErrUnloaded.
package nav

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNavigatedAway = errors.New("nav: navigated away")
	ErrUnloaded      = errors.New("nav: page unloaded")
)

// State of an epoch. Transitions: Created -> Active -> Aborted.
type State int32

const (
	Created State = iota
	Active
	Aborted
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Active:
		return "active"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Epoch is one navigation's cancellation scope.
type Epoch struct {
	seq     uint64
	navID   string
	started time.Time
	ctx     context.Context
	cancel  context.CancelCauseFunc
	state   atomic.Int32
}

func (e *Epoch) Seq() uint64              { return e.seq }
func (e *Epoch) NavID() string            { return e.navID }
func (e *Epoch) Started() time.Time       { return e.started }
func (e *Epoch) Context() context.Context { return e.ctx }
func (e *Epoch) Done() <-chan struct{}    { return e.ctx.Done() }

// State reports Aborted once the epoch's context has ended, including through
// cancellation of the controller's parent.
func (e *Epoch) State() State {
	if e.ctx.Err() != nil {
		return Aborted
	}
	return State(e.state.Load())
}

// Cause returns why the epoch ended, or nil while it is live.
func (e *Epoch) Cause() error {
	if e.ctx.Err() == nil {
		return nil
	}
	return context.Cause(e.ctx)
}

// Abort ends the epoch. Only the first call has an effect.
func (e *Epoch) Abort(cause error) {
	for {
		s := e.state.Load()
		if State(s) == Aborted {
			return
		}
		if e.state.CompareAndSwap(s, int32(Aborted)) {
			break
		}
	}
	e.cancel(cause)
}

// Controller owns the current epoch.
type Controller struct {
	parent context.Context

	mu  sync.Mutex
	seq uint64
	cur *Epoch

	onAbort func(*Epoch, error)
}

type Option func(*Controller)

// WithOnAbort registers fn to be called after an epoch is aborted by Begin or
// Unload.
func WithOnAbort(fn func(ep *Epoch, cause error)) Option {
	return func(c *Controller) { c.onAbort = fn }
}

// NewController derives every epoch from parent. Cancelling parent aborts the
// current epoch as well.
func NewController(parent context.Context, opts ...Option) *Controller {
	if parent == nil {
		parent = context.Background()
	}
	c := &Controller{parent: parent}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Begin aborts the current epoch, if any, and activates a new one.
func (c *Controller) Begin() *Epoch {
	ctx, cancel := context.WithCancelCause(c.parent)

	c.mu.Lock()
	c.seq++
	ep := &Epoch{
		seq:     c.seq,
		navID:   uuid.NewString(),
		started: time.Now(),
		ctx:     ctx,
		cancel:  cancel,
	}
	prev := c.cur
	c.cur = ep
	c.mu.Unlock()

	c.abort(prev, ErrNavigatedAway)
	ep.state.CompareAndSwap(int32(Created), int32(Active))
	return ep
}

// Current returns the active epoch, or nil before the first Begin.
func (c *Controller) Current() *Epoch {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

// Unload aborts the current epoch without starting a new one.
func (c *Controller) Unload() {
	c.mu.Lock()
	ep := c.cur
	c.mu.Unlock()
	c.abort(ep, ErrUnloaded)
}

func (c *Controller) abort(ep *Epoch, cause error) {
	if ep == nil || ep.State() == Aborted {
		return
	}
	ep.Abort(cause)
	if c.onAbort != nil {
		c.onAbort(ep, cause)
	}
}
