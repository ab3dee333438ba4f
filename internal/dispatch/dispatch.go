// Package dispatch implements Chronicle's delivery fabric (spec.md §4.G):
// a per-root FIFO pause queue and per-listener wrapping (debounce, throttle,
// once, sync-or-microtask scheduling).
package dispatch

import (
	"sync"
	"time"

	"github.com/arcmantle/chronicle/internal/container"
	"github.com/arcmantle/chronicle/internal/pathutil"
)

// Schedule selects when a listener's callback actually runs relative to the
// mutation that triggered it.
type Schedule int

const (
	// Sync invokes the callback inline, before the mutating call returns.
	Sync Schedule = iota
	// Microtask defers the callback, emulating a JS microtask tick; Go has
	// no microtask queue, so this is approximated with a goroutine, which
	// is the idiomatic Go stand-in for "runs very soon, off the caller's
	// stack" (documented limitation: ordering relative to other deferred
	// work is not guaranteed the way a real microtask queue guarantees it).
	Microtask
)

// Meta accompanies every listener invocation (spec.md §4.G).
type Meta struct {
	Type          string // "set" or "delete"
	ExistedBefore bool
	GroupID       string
	Collection    container.Collection
	Key           any
}

// Callback is a subscriber's handler.
type Callback func(path pathutil.Path, newValue, oldValue any, meta Meta)

// Options configures per-listener wrapping (spec.md §6).
type Options struct {
	Once       bool
	DebounceMs int
	ThrottleMs int
	Schedule   Schedule
}

type callArgs struct {
	path              pathutil.Path
	newValue, oldValue any
	meta              Meta
}

// Listener wraps a user Callback with its debounce/throttle/once/schedule
// behavior (spec.md §4.G: "applied in order debounce → throttle →
// immediate, then scheduled").
type Listener struct {
	mu   sync.Mutex
	cb   Callback
	opts Options

	firedOnce     bool
	debounceTimer *time.Timer
	pending       *callArgs
	lastThrottle  time.Time
	hasThrottled  bool

	// unsubscribe is invoked exactly once, automatically, after a once
	// listener delivers (spec.md §4.G: "once-listeners deliver exactly once
	// and auto-unsubscribe through the subscription's own unsubscribe
	// closure").
	unsubscribe func()
}

// Wrap constructs a Listener. unsubscribe may be nil if opts.Once is false.
func Wrap(cb Callback, opts Options, unsubscribe func()) *Listener {
	return &Listener{cb: cb, opts: opts, unsubscribe: unsubscribe}
}

// Deliver is called by the dispatcher once per affected change. It applies
// debounce/throttle and eventually invokes the callback (possibly
// asynchronously).
func (l *Listener) Deliver(path pathutil.Path, newValue, oldValue any, meta Meta) {
	args := callArgs{path, newValue, oldValue, meta}

	l.mu.Lock()
	if l.opts.Once && l.firedOnce {
		l.mu.Unlock()
		return
	}

	if l.opts.DebounceMs > 0 {
		l.pending = &args
		if l.debounceTimer != nil {
			l.debounceTimer.Stop()
		}
		l.debounceTimer = time.AfterFunc(time.Duration(l.opts.DebounceMs)*time.Millisecond, l.fireDebounced)
		l.mu.Unlock()
		return
	}

	if l.opts.ThrottleMs > 0 {
		now := time.Now()
		if l.hasThrottled && now.Sub(l.lastThrottle) < time.Duration(l.opts.ThrottleMs)*time.Millisecond {
			l.mu.Unlock()
			return
		}
		l.hasThrottled = true
		l.lastThrottle = now
	}
	l.mu.Unlock()
	l.invoke(args)
}

func (l *Listener) fireDebounced() {
	l.mu.Lock()
	pending := l.pending
	l.pending = nil
	l.mu.Unlock()
	if pending != nil {
		l.invoke(*pending)
	}
}

func (l *Listener) invoke(args callArgs) {
	l.mu.Lock()
	if l.opts.Once {
		if l.firedOnce {
			l.mu.Unlock()
			return
		}
		l.firedOnce = true
	}
	schedule := l.opts.Schedule
	once := l.opts.Once
	unsub := l.unsubscribe
	l.mu.Unlock()

	deliver := func() { l.cb(args.path, args.newValue, args.oldValue, args.meta) }
	if schedule == Microtask {
		go deliver()
	} else {
		deliver()
	}
	if once && unsub != nil {
		unsub()
	}
}

// Queue is the per-root FIFO pause queue (spec.md §4.G). When not paused,
// Dispatch runs fn immediately; when paused, fn is appended to the queue
// and run in order by Resume or Flush.
type Queue struct {
	mu      sync.Mutex
	paused  bool
	pending []func()
}

func (q *Queue) Pause() {
	q.mu.Lock()
	q.paused = true
	q.mu.Unlock()
}

func (q *Queue) Paused() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.paused
}

// Dispatch runs fn now, or enqueues it if paused.
func (q *Queue) Dispatch(fn func()) {
	q.mu.Lock()
	if q.paused {
		q.pending = append(q.pending, fn)
		q.mu.Unlock()
		return
	}
	q.mu.Unlock()
	fn()
}

// Resume drains the queue in FIFO order and unpauses.
func (q *Queue) Resume() {
	q.mu.Lock()
	q.paused = false
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

// Flush drains the queue in FIFO order without unpausing.
func (q *Queue) Flush() {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}
