package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"mockexchange/engine"
)

// Server exposes the market data surface: a websocket stream plus
// on-demand snapshot and stats endpoints.
type Server struct {
	eng      *engine.MatchingEngine
	hub      *Hub
	upgrader websocket.Upgrader
	log      *zap.Logger
	httpSrv  *http.Server
}

func NewServer(eng *engine.MatchingEngine, hub *Hub, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		eng:      eng,
		hub:      hub,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		log:      log,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/marketdata", s.handleStream)
	mux.HandleFunc("/book", s.handleBook)
	mux.HandleFunc("/stats", s.handleStats)
	return mux
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe(port int) error {
	s.httpSrv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Routes(),
	}
	s.log.Info("market data server listening", zap.Int("port", port))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	id := s.hub.Attach(conn)
	defer s.hub.Detach(id)

	// Inbound frames are ignored; the read loop only detects
	// disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol query parameter is required")
		return
	}

	snapshot := s.eng.Snapshot(symbol)
	if snapshot == nil {
		writeError(w, http.StatusNotFound, "unknown symbol "+symbol)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	stats := s.eng.Stats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"totalOrders":     stats.TotalOrders,
		"totalTrades":     stats.TotalTrades,
		"totalBuyOrders":  stats.TotalBuyOrders,
		"totalSellOrders": stats.TotalSellOrders,
		"activeSymbols":   stats.ActiveSymbols,
		"subscribers":     s.hub.SubscriberCount(),
	})
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
