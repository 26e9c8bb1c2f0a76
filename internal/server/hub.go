package server

import (
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"CoopDungeons/internal/game"
	"CoopDungeons/internal/i18n"
)

// sendBuffer is how many frames may queue for a slow client before events
// are dropped.
const sendBuffer = 64

type client struct {
	id    game.PlayerID
	lang  language.Tag
	codec Codec
	send  chan []byte
}

// Hub is the outbound side of the gateway. It implements game.Messenger:
// events are localized for the player, encoded with the connection's codec
// and queued without blocking the caller.
type Hub struct {
	mu      sync.RWMutex
	clients map[game.PlayerID]*client
	loc     *i18n.Localizer
	log     *zap.Logger
}

func NewHub(loc *i18n.Localizer, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients: make(map[game.PlayerID]*client),
		loc:     loc,
		log:     log.Named("hub"),
	}
}

func (h *Hub) register(id game.PlayerID, lang language.Tag, codec Codec) *client {
	c := &client{id: id, lang: lang, codec: codec, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[id] = c
	h.mu.Unlock()
	return c
}

// unregister closes the client's queue; later sends to it are dropped.
func (h *Hub) unregister(id game.PlayerID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		close(c.send)
		delete(h.clients, id)
	}
}

// Connected reports how many clients are registered.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Send(player game.PlayerID, ev game.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[player]
	if !ok {
		return
	}
	h.enqueue(c, h.loc.Localize(c.lang, ev))
}

// Reject tells player why command failed.
func (h *Hub) Reject(player game.PlayerID, command string, err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[player]
	if !ok {
		return
	}
	ev := game.Event{
		Type: game.EventRejected,
		Key:  game.KeyOf(err),
		Text: h.loc.Error(c.lang, err),
		Payload: map[string]any{
			"command": command,
			"code":    string(game.CodeOf(err)),
		},
	}
	h.enqueue(c, ev)
}

// enqueue must run with h.mu held.
func (h *Hub) enqueue(c *client, ev game.Event) {
	data, err := c.codec.Encode(ev)
	if err != nil {
		h.log.Error("encode event", zap.String("player", string(c.id)), zap.String("type", string(ev.Type)), zap.Error(err))
		return
	}
	select {
	case c.send <- data:
	default:
		h.log.Warn("send queue full, dropping event", zap.String("player", string(c.id)), zap.String("type", string(ev.Type)))
	}
}
