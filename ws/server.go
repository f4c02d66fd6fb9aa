package ws

import (
	"courier/auth"
	"courier/contract"
	"courier/services"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Server upgrades HTTP requests into channels. One Channel per
// connection; the handler goroutine runs the channel until it closes.
type Server struct {
	log          *slog.Logger
	tokens       *auth.TokenManager
	presence     contract.IPresence
	delivery     services.IDeliveryService
	bufferSize   int
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
}

func NewServer(log *slog.Logger, tokens *auth.TokenManager, presence contract.IPresence,
	delivery services.IDeliveryService, bufferSize int, writeTimeout time.Duration) *Server {
	return &Server{
		log:          log,
		tokens:       tokens,
		presence:     presence,
		delivery:     delivery,
		bufferSize:   bufferSize,
		writeTimeout: writeTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Credentials are checked by the handshake, not the origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	newChannel(conn, s).Serve(r.Context())
}
