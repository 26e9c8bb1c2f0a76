package instance

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"CoopDungeons/internal/dag"
	"CoopDungeons/internal/game"
	"CoopDungeons/internal/room"
)

// Roguelike runs one challenge room at a time along a branching graph.
// After each non-final room the party votes on the next one.
type Roguelike struct {
	*core
	graph    *dag.Graph
	progress *dag.State
	rooms    map[string]*game.RoguelikeRoom
	current  string
	builder  game.WorldBuilder
	entries  []game.Vec3
	ctrl     room.Controller
	ballot   *ballot
}

// ballot is an open branch selection.
type ballot struct {
	from    string
	options []string
	order   []game.PlayerID
	choice  map[game.PlayerID]string
}

func (r *Roguelike) Initialize() error {
	if r.graph != nil {
		return nil
	}
	g, err := dag.FromDungeon(r.def)
	if err != nil {
		return fmt.Errorf("dungeon %s: %w", r.def.ID, err)
	}
	r.graph = g
	r.progress = dag.NewState(g)
	r.rooms = make(map[string]*game.RoguelikeRoom, len(r.def.Rooms))
	for i := range r.def.Rooms {
		rr := &r.def.Rooms[i]
		if err := r.checkFit(rr.Room.Map, r.zone.Bounds.Width()); err != nil {
			return fmt.Errorf("room %s: %w", rr.ID, err)
		}
		r.rooms[rr.ID] = rr
	}
	return r.loadRoom(string(g.Start))
}

// loadRoom builds the room's map and its controller. The controller stays
// in Preparing until started.
func (r *Roguelike) loadRoom(id string) error {
	rr, ok := r.rooms[id]
	if !ok {
		return game.ErrRoomNotFound.WithMetadata("room", id)
	}
	b := r.deps.Builders.NewBuilder()
	if err := b.Build(rr.Room.Map, r.zone.Center); err != nil {
		return fmt.Errorf("build room %s: %w", id, err)
	}
	ctrl, err := room.New(&rr.Room, room.Env{
		Units:     r.deps.Units,
		Builder:   b,
		Sched:     r.deps.Sched,
		Clock:     r.deps.Clock,
		Messenger: r.deps.Messenger,
		Members:   r.Members,
		Log:       r.log,
		OnFinish:  r.roomFinished,
		Tuning:    r.tuning(),
	})
	if err != nil {
		b.Teardown()
		return err
	}
	r.entries = r.entries[:0]
	for _, p := range rr.Room.Map.EntryPoints {
		r.entries = append(r.entries, b.GridToWorld(p))
	}
	r.builder = b
	r.ctrl = ctrl
	r.current = id
	r.progress.Enter(dag.NodeID(id))
	return nil
}

// Current is the id of the room being played.
func (r *Roguelike) Current() string { return r.current }

// Controller is the current room's controller.
func (r *Roguelike) Controller() room.Controller { return r.ctrl }

// Visited is the path of rooms entered so far.
func (r *Roguelike) Visited() []string {
	var out []string
	for _, id := range r.progress.Visited() {
		out = append(out, string(id))
	}
	return out
}

// VoteOpen reports whether a branch selection is in progress.
func (r *Roguelike) VoteOpen() bool { return r.ballot != nil }

func (r *Roguelike) Start() {
	if r.ctrl == nil || !r.begin() {
		return
	}
	r.ctrl.Start()
}

func (r *Roguelike) Stats() game.RunStats {
	s := r.stats
	if r.ctrl != nil && !r.ctrl.State().Terminal() {
		s.Merge(r.ctrl.Stats())
	}
	return s
}

// roomFinished runs when the current controller completes or fails.
func (r *Roguelike) roomFinished(ctrl room.Controller) {
	if ctrl != r.ctrl || r.state != Running {
		return
	}
	r.stats.Merge(ctrl.Stats())
	switch ctrl.State() {
	case room.Completed:
		r.progress.Complete(r.graph, dag.NodeID(r.current))
		if r.graph.IsFinal(dag.NodeID(r.current)) {
			r.finishRun(true)
			return
		}
		r.openBallot()
	case room.Failed:
		r.finishRun(false)
	}
}

func (r *Roguelike) openBallot() {
	var options []string
	payload := game.BranchOptions{InstanceID: r.id, From: r.current, Visited: r.Visited()}
	for _, next := range r.progress.Available(r.graph) {
		rr := r.rooms[string(next)]
		options = append(options, rr.ID)
		payload.Options = append(payload.Options, game.BranchOption{
			RoomID: rr.ID,
			Type:   string(rr.Room.Type),
			Name:   rr.Room.Name,
			Goal:   rr.Room.Goal,
		})
	}
	r.ballot = &ballot{from: r.current, options: options, choice: make(map[game.PlayerID]string)}
	r.broadcast(game.Event{Type: game.EventBranchOptions, Key: "vote.open", Args: []any{len(options)}, Payload: payload})
	r.log.Info("branch vote opened", zap.Strings("options", options))
}

// Vote records player's choice of the next room. Each member votes once;
// the ballot closes when every current member has voted.
func (r *Roguelike) Vote(p game.PlayerID, roomID string) error {
	if r.state != Running {
		return game.ErrInstanceFinished
	}
	if !r.members.Has(p) {
		return game.ErrNotMember
	}
	b := r.ballot
	if b == nil {
		return game.ErrVoteClosed
	}
	if !slices.Contains(b.options, roomID) {
		return game.ErrInvalidChoice.WithMetadata("room", roomID)
	}
	if _, voted := b.choice[p]; voted {
		return game.ErrAlreadyVoted
	}
	b.choice[p] = roomID
	b.order = append(b.order, p)
	r.broadcast(game.Progress("vote.cast", string(p), r.rooms[roomID].Room.Name, len(b.choice), r.members.Size()))
	r.evaluateBallot()
	return nil
}

// evaluateBallot closes the ballot once every current member has voted.
// Votes of members who left are discarded.
func (r *Roguelike) evaluateBallot() {
	b := r.ballot
	if b == nil || r.state != Running || r.members.Size() == 0 {
		return
	}
	var votes []string
	for _, p := range b.order {
		if r.members.Has(p) {
			votes = append(votes, b.choice[p])
		}
	}
	if len(votes) < r.members.Size() {
		return
	}
	winner := Tally(votes)
	r.ballot = nil
	r.transition(winner)
}

// Tally returns the choice with the most votes. On a tie the choice that
// first reached the winning count wins. votes is in arrival order.
func Tally(votes []string) string {
	counts := make(map[string]int, len(votes))
	leader, best := "", 0
	for _, v := range votes {
		counts[v]++
		if counts[v] > best {
			leader, best = v, counts[v]
		}
	}
	return leader
}

// transition replaces the current room with next and starts it.
func (r *Roguelike) transition(next string) {
	r.ctrl.Cleanup()
	r.builder.Teardown()
	if err := r.loadRoom(next); err != nil {
		r.log.Error("room load failed", zap.String("room", next), zap.Error(err))
		r.finishRun(false)
		return
	}
	for _, p := range r.order {
		unit, ok := r.deps.Units.UnitOf(p)
		if !ok || !r.deps.Units.Alive(unit) {
			if unit, ok = r.deps.Units.Respawn(p); !ok {
				continue
			}
		}
		r.deps.Units.Teleport(unit, r.EntryPoint(p))
	}
	r.broadcast(game.Status("vote.chosen", r.rooms[next].Room.Name))
	r.log.Info("branch chosen", zap.String("room", next))
	r.ctrl.Start()
}

func (r *Roguelike) OnUnitKilled(victim, killer game.ActorID) {
	if r.state != Running || r.ctrl == nil {
		return
	}
	r.ctrl.OnUnitKilled(victim, killer)
}

// OnPlayerDeath hands the death to the current room. A party wipe fails the
// run whatever the room type.
func (r *Roguelike) OnPlayerDeath(p game.PlayerID) {
	if r.state != Running || r.ctrl == nil || !r.members.Has(p) {
		return
	}
	r.ctrl.OnPlayerDeath(p)
	if r.state == Running && !r.ctrl.State().Terminal() && !game.MemberUnitAlive(r.deps.Units, r.order) {
		r.ctrl.Fail("room.fail_wiped")
	}
}

// memberRemoved re-checks the open ballot, since the departing member may
// have been the last one not to vote.
func (r *Roguelike) memberRemoved(game.PlayerID) {
	r.evaluateBallot()
}

func (r *Roguelike) currentEntries() []game.Vec3 { return r.entries }

func (r *Roguelike) teardown() {
	r.ballot = nil
	if r.ctrl != nil {
		r.ctrl.Cleanup()
	}
	if r.builder != nil {
		r.builder.Teardown()
	}
}
