// internal/handlers/server.go
package handlers

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/tablespin/tablespin/internal/database"
	"github.com/tablespin/tablespin/internal/lobby"
	"github.com/tablespin/tablespin/internal/recommend"
)

// Server bundles the shared dependencies every handler needs. It is built
// once in main and passed into each handler factory; there is no ambient
// global state behind the HTTP layer.
type Server struct {
	Lobbies  *lobby.Store
	Gateway  *Gateway
	Provider recommend.Provider // nil when no upstream is configured
	DB       *pgxpool.Pool      // nil when selection history is not configured
	Logger   *logrus.Logger
}

func NewServer(store *lobby.Store, gateway *Gateway, provider recommend.Provider, db *pgxpool.Pool, logger *logrus.Logger) *Server {
	return &Server{
		Lobbies:  store,
		Gateway:  gateway,
		Provider: provider,
		DB:       db,
		Logger:   logger,
	}
}

// recordSelection persists a finalized group decision fire-and-forget. With
// no database configured this is a no-op; the lobby flow never waits on
// history writes.
func (s *Server) recordSelection(st lobby.State) {
	if s.DB == nil || st.Selection == nil {
		return
	}
	rec := database.SelectionRecord{
		LobbyID:   st.ID,
		Location:  st.Location,
		Mood:      st.Mood,
		Selection: st.Selection,
		DecidedAt: time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := database.RecordSelection(ctx, s.DB, rec); err != nil {
			s.Logger.Warnf("failed to record selection for lobby %s: %v", rec.LobbyID, err)
		}
	}()
}
