package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/kinship/internal/auth"
	"github.com/dukerupert/kinship/internal/feed"
)

// Handler upgrades authenticated requests and streams live snapshots. Only
// same-origin upgrades are accepted since the session rides on a cookie.
func Handler(hub *Hub, syncer *feed.Synchronizer, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			logger.Warn("accept", "error", err)
			return
		}
		defer conn.CloseNow()

		logger.Info("client connected", "account_id", ac.AccountID, "family_id", ac.FamilyID)
		client := NewClient(hub, conn, syncer, auth.NewSession(ac), logger)
		client.Run(r.Context())
		logger.Info("client disconnected", "account_id", ac.AccountID)
	}
}
