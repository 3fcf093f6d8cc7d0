package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/zetafrog/ribbit/internal/api/v1"
	"github.com/zetafrog/ribbit/internal/api/ws"
	"github.com/zetafrog/ribbit/internal/dialog"
	"github.com/zetafrog/ribbit/internal/store/postgres"
)

func registerAPIRoutes(api huma.API, store *postgres.Store, orchestrator *dialog.Orchestrator) {
	v1.RegisterFrogRoutes(api, store)
	v1.RegisterChatRoutes(api, store, orchestrator)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/chat", hub.ServeChat)
}
