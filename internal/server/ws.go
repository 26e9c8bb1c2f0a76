package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"CoopDungeons/internal/game"
	"CoopDungeons/internal/i18n"
	"CoopDungeons/internal/instance"
	"CoopDungeons/internal/sched"
	"CoopDungeons/internal/session"
	"CoopDungeons/internal/world"
)

const (
	writeWait      = 5 * time.Second
	maxMessageSize = 4096
)

// Command types accepted on the websocket.
const (
	CmdCreate   = "session:create"
	CmdEnter    = "session:enter"
	CmdLeave    = "session:leave"
	CmdVote     = "session:vote"
	CmdInteract = "session:interact"
	CmdList     = "session:list"
	CmdMove     = "unit:move"
	CmdStrike   = "unit:strike"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Gateway accepts player connections. Every command is posted to the loop
// so the session manager and the world only ever run on one goroutine.
type Gateway struct {
	loop     *sched.Loop
	world    *world.World
	sessions *session.Manager
	hub      *Hub
	loc      *i18n.Localizer
	log      *zap.Logger
}

func NewGateway(loop *sched.Loop, w *world.World, sessions *session.Manager, hub *Hub, loc *i18n.Localizer, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{loop: loop, world: w, sessions: sessions, hub: hub, loc: loc, log: log.Named("ws")}
}

// ServeWS upgrades the request. Query parameters:
//
//	lang   preferred language (falls back to Accept-Language)
//	codec  json (default), msgpack or proto
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	accept := query.Get("lang")
	if accept == "" {
		accept = r.Header.Get("Accept-Language")
	}
	lang := g.loc.Match(accept)
	codec := CodecFor(query.Get("codec"))

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("upgrade", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	player := game.PlayerID("p-" + uuid.NewString())
	c := g.hub.register(player, lang, codec)
	g.log.Info("player connected",
		zap.String("player", string(player)),
		zap.String("lang", lang.String()),
		zap.String("codec", codec.Name()),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		g.writePump(conn, c)
	}()

	g.loop.Post(func() {
		g.world.SpawnPlayer(player)
		g.hub.Send(player, game.Event{
			Type: game.EventAccepted,
			Payload: map[string]any{
				"command":     "connect",
				"playerId":    string(player),
				"lang":        lang.String(),
				"codec":       codec.Name(),
				"definitions": g.sessions.Definitions(),
			},
		})
	})

	ctx := r.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		cmd, err := codec.Decode(data)
		if err != nil {
			g.log.Warn("invalid message", zap.String("player", string(player)), zap.Error(err))
			g.hub.Reject(player, "", err)
			continue
		}
		g.loop.Post(func() {
			if err := g.handle(ctx, player, cmd); err != nil {
				g.log.Warn("command rejected",
					zap.String("player", string(player)),
					zap.String("command", cmd.Type),
					zap.Error(err),
				)
				g.hub.Reject(player, cmd.Type, err)
			}
		})
	}

	g.hub.unregister(player)
	<-done
	g.loop.Post(func() {
		g.sessions.OnPlayerDisconnected(player)
		g.world.RemovePlayer(player)
	})
	g.log.Info("player disconnected", zap.String("player", string(player)))
}

func (g *Gateway) writePump(conn *websocket.Conn, c *client) {
	for data := range c.send {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(c.codec.FrameType(), data); err != nil {
			g.log.Debug("write", zap.String("player", string(c.id)), zap.Error(err))
			conn.Close()
			return
		}
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

// handle runs one command on the loop goroutine.
func (g *Gateway) handle(ctx context.Context, player game.PlayerID, cmd Command) error {
	p := cmd.Payload
	switch cmd.Type {
	case CmdCreate:
		if p.DefinitionID == "" {
			return game.ErrBadRequest
		}
		id, err := g.sessions.CreateInstance(ctx, p.DefinitionID, player)
		if game.CodeOf(err) == game.CodeResourceExhausted {
			// the session manager has already told the player
			g.log.Info("create refused", zap.String("player", string(player)), zap.Error(err))
			return nil
		}
		if err != nil {
			return err
		}
		name := p.DefinitionID
		if inst, ok := g.sessions.Instance(id); ok {
			name = inst.Definition().Name
		}
		g.hub.Send(player, game.Event{
			Type:    game.EventAccepted,
			Key:     "session.created",
			Args:    []any{name},
			Payload: map[string]any{"command": cmd.Type, "instanceId": string(id)},
		})
	case CmdEnter:
		if p.InstanceID == "" {
			return game.ErrBadRequest
		}
		return g.sessions.EnterInstance(ctx, player, game.InstanceID(p.InstanceID))
	case CmdLeave:
		if !g.sessions.LeaveInstance(player, instance.LeaveManual) {
			return game.ErrNotMember
		}
	case CmdVote:
		if p.InstanceID == "" || p.RoomID == "" {
			return game.ErrBadRequest
		}
		return g.sessions.Vote(player, game.InstanceID(p.InstanceID), p.RoomID)
	case CmdInteract:
		return g.sessions.Interact(player)
	case CmdList:
		g.sessions.SendSessionList(player)
	case CmdMove:
		if !g.world.Move(player, game.Vec3{X: p.X, Y: p.Y, Z: p.Z}) {
			return game.ErrStale
		}
	case CmdStrike:
		g.world.Strike(player)
	default:
		return game.ErrUnknownCommand
	}
	return nil
}
