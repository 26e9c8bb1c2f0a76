package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"CoopDungeons/internal/game"
)

type dungeonDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	MaxPlayers int    `json:"maxPlayers"`
}

func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", a.Gateway.ServeWS)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/dungeons", a.handleDungeons)
	mux.HandleFunc("GET /api/sessions", a.handleSessions)
	return mux
}

func (a *App) handleDungeons(w http.ResponseWriter, r *http.Request) {
	ids := a.Catalog.IDs()
	out := make([]dungeonDTO, 0, len(ids))
	for _, id := range ids {
		def, err := a.Catalog.Get(id)
		if err != nil {
			continue
		}
		out = append(out, dungeonDTO{ID: def.ID, Name: def.Name, Kind: string(def.Kind), MaxPlayers: def.Capacity()})
	}
	a.writeJSON(w, out)
}

func (a *App) handleSessions(w http.ResponseWriter, r *http.Request) {
	var sessions []game.SessionInfo
	if err := a.onLoop(r.Context(), func() { sessions = a.Sessions.Sessions() }); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if sessions == nil {
		sessions = []game.SessionInfo{}
	}
	a.writeJSON(w, sessions)
}

func (a *App) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.Log.Warn("write response", zap.Error(err))
	}
}
