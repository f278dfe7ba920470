package session

import (
	"context"
	"sync"
)

// State is the observable session: the resolved user (nil when signed out)
// and whether the first resolution is still pending.
type State struct {
	User    *User `json:"user"`
	Loading bool  `json:"loading"`
}

// Source reports the current session and notifies about changes.  A nil
// identity means "no session".
type Source interface {
	Current(ctx context.Context) (*Identity, error)
	Subscribe(ctx context.Context, fn func(*Identity)) (unsubscribe func(), err error)
}

// Tracker follows one session.  Each change is resolved asynchronously;
// a resolution that was overtaken by a newer change is discarded, and
// nothing is emitted once Close has been called.
type Tracker struct {
	resolver *Resolver
	source   Source

	mu          sync.Mutex
	state       State
	gen         uint64
	started     bool
	closed      bool
	unsubscribe func()
	updates     chan State
	onClose     func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTracker(r *Resolver, src Source) *Tracker {
	return &Tracker{
		resolver: r,
		source:   src,
		state:    State{Loading: true},
		updates:  make(chan State, 4),
	}
}

// Start subscribes to changes and then performs one immediate session check.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.started || t.closed {
		t.mu.Unlock()
		return nil
	}
	t.started = true
	t.ctx, t.cancel = context.WithCancel(ctx)
	t.mu.Unlock()

	unsub, err := t.source.Subscribe(t.ctx, t.changed)
	if err != nil {
		t.cancel()
		return err
	}
	t.mu.Lock()
	if t.closed {
		// Close ran while Subscribe was in flight and saw no unsubscribe
		t.mu.Unlock()
		unsub()
		return nil
	}
	t.unsubscribe = unsub
	t.mu.Unlock()

	id, err := t.source.Current(t.ctx)
	if err != nil {
		// an unreadable session is treated as signed out
		id = nil
	}
	t.changed(id)
	return nil
}

// State returns the latest state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Updates delivers every emitted state.  When the reader falls behind the
// oldest pending state is dropped.  The channel is closed by Close.
func (t *Tracker) Updates() <-chan State { return t.updates }

func (t *Tracker) changed(id *Identity) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.gen++
	gen := t.gen
	t.wg.Add(1)
	t.mu.Unlock()

	go func() {
		defer t.wg.Done()
		u := t.resolver.Resolve(t.ctx, id)
		t.apply(gen, u)
	}()
}

func (t *Tracker) apply(gen uint64, u *User) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || gen != t.gen {
		return
	}
	t.state = State{User: u, Loading: false}
	select {
	case t.updates <- t.state:
	default:
		select {
		case <-t.updates:
		default:
		}
		select {
		case t.updates <- t.state:
		default:
		}
	}
}

// Close unsubscribes, waits for outstanding lookups and closes Updates.
// It is safe to call more than once.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	unsub, cancel, onClose := t.unsubscribe, t.cancel, t.onClose
	t.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if cancel != nil {
		cancel()
	}
	t.wg.Wait()
	close(t.updates)
	if onClose != nil {
		onClose()
	}
}
