// Package sched runs every game-state mutation on one goroutine. Periodic and
// delayed callbacks are timers on a virtual clock that only moves when the
// loop advances it, so tests can drive time deterministically.
package sched

import (
	"context"
	"sync"
	"time"

	"github.com/zyedidia/generic/heap"
	"go.uber.org/zap"

	"CoopDungeons/internal/game"
)

type timer struct {
	due     time.Duration
	seq     uint64
	every   time.Duration
	fn      func()
	stopped bool
	fired   bool
	scope   *Scope
}

// Stop cancels the timer. It reports whether the callback was still pending.
func (t *timer) Stop() bool {
	if t.stopped {
		return false
	}
	pending := t.every > 0 || !t.fired
	t.stopped = true
	if t.scope != nil {
		t.scope.forget(t)
	}
	return pending
}

// Loop is the world-update thread. After, Every, Now and Advance must only
// be called from callbacks running on the loop (or from tests driving it);
// other goroutines hand work over with Post.
type Loop struct {
	log    *zap.Logger
	now    time.Duration
	seq    uint64
	timers *heap.Heap[*timer]

	mu    sync.Mutex
	inbox []func()
	wake  chan struct{}
}

func NewLoop(log *zap.Logger) *Loop {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{
		log: log,
		timers: heap.New(func(a, b *timer) bool {
			if a.due != b.due {
				return a.due < b.due
			}
			return a.seq < b.seq
		}),
		wake: make(chan struct{}, 1),
	}
}

// Now is elapsed game time since the loop was created.
func (l *Loop) Now() time.Duration { return l.now }

func (l *Loop) After(d time.Duration, fn func()) game.Timer {
	return l.schedule(d, 0, fn, nil)
}

func (l *Loop) Every(d time.Duration, fn func()) game.Timer {
	if d <= 0 {
		d = game.Dt
	}
	return l.schedule(d, d, fn, nil)
}

func (l *Loop) schedule(delay, every time.Duration, fn func(), scope *Scope) *timer {
	if delay < 0 {
		delay = 0
	}
	l.seq++
	t := &timer{due: l.now + delay, seq: l.seq, every: every, fn: fn, scope: scope}
	l.timers.Push(t)
	return t
}

// Post queues fn to run on the loop. Safe from any goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.inbox = append(l.inbox, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Drain runs every posted command in arrival order.
func (l *Loop) Drain() {
	l.mu.Lock()
	batch := l.inbox
	l.inbox = nil
	l.mu.Unlock()
	for _, fn := range batch {
		l.call(fn)
	}
}

// Advance drains the inbox and then moves the clock forward by d, firing due
// timers in (due time, registration order).
func (l *Loop) Advance(d time.Duration) {
	l.Drain()
	target := l.now + d
	for {
		t, ok := l.timers.Peek()
		if !ok || t.due > target {
			break
		}
		l.timers.Pop()
		if t.stopped {
			continue
		}
		if t.due > l.now {
			l.now = t.due
		}
		if t.every > 0 {
			l.seq++
			t.due += t.every
			t.seq = l.seq
			l.timers.Push(t)
		} else {
			t.fired = true
			if t.scope != nil {
				t.scope.forget(t)
			}
		}
		l.call(t.fn)
	}
	l.now = target
}

// Run ticks the loop at game.SimHz until ctx is cancelled. Posted commands
// are drained as soon as they arrive.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(game.Dt)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
			l.Drain()
		case now := <-ticker.C:
			step := now.Sub(last)
			last = now
			l.Advance(step)
		}
	}
}

func (l *Loop) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("recovered panic in scheduled callback", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	fn()
}
