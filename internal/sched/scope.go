package sched

import (
	"time"

	"github.com/zyedidia/generic/mapset"

	"CoopDungeons/internal/game"
)

// Scope groups the timers of one owner (an instance) so they can all be
// cancelled together when the owner is torn down. After CancelAll the scope
// refuses new timers.
type Scope struct {
	loop   *Loop
	live   mapset.Set[*timer]
	closed bool
}

func (l *Loop) NewScope() *Scope {
	return &Scope{loop: l, live: mapset.New[*timer]()}
}

func (s *Scope) Now() time.Duration { return s.loop.now }

func (s *Scope) After(d time.Duration, fn func()) game.Timer {
	return s.add(d, 0, fn)
}

func (s *Scope) Every(d time.Duration, fn func()) game.Timer {
	if d <= 0 {
		d = game.Dt
	}
	return s.add(d, d, fn)
}

func (s *Scope) add(delay, every time.Duration, fn func()) game.Timer {
	if s.closed {
		return stoppedTimer{}
	}
	t := s.loop.schedule(delay, every, fn, s)
	s.live.Put(t)
	return t
}

func (s *Scope) forget(t *timer) {
	s.live.Remove(t)
}

// Live counts timers of this scope still pending.
func (s *Scope) Live() int { return s.live.Size() }

func (s *Scope) Closed() bool { return s.closed }

// CancelAll stops every pending timer and closes the scope. Idempotent.
func (s *Scope) CancelAll() {
	s.closed = true
	var pending []*timer
	s.live.Each(func(t *timer) { pending = append(pending, t) })
	for _, t := range pending {
		t.Stop()
	}
}

type stoppedTimer struct{}

func (stoppedTimer) Stop() bool { return false }
