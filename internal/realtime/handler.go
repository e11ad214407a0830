package realtime

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/RehanEggSupplierdev/batchboard/internal/observability"
)

// Server upgrades HTTP requests into topic subscriptions.
type Server struct {
	broker   Broker
	upgrader websocket.Upgrader
}

func NewServer(broker Broker, allowedOrigins []string) *Server {
	return &Server{
		broker: broker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// Serve blocks until the client disconnects. Callers validate the topic first.
func (s *Server) Serve(w http.ResponseWriter, r *http.Request, userID, topic string) {
	log := observability.GetLogger(r.Context())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("realtime: upgrade failed", zap.Error(err))
		return
	}

	session := NewSession(uuid.NewString(), userID, topic, conn)
	unsubscribe := s.broker.Subscribe(topic, func(payload []byte) {
		session.TrySend(payload)
	})
	session.Start()

	observability.RealtimeSessions.Inc()
	log.Info("realtime: subscribed", zap.String("session_id", session.ID), zap.String("topic", topic))

	defer func() {
		unsubscribe()
		session.Close()
		observability.RealtimeSessions.Dec()
		log.Info("realtime: unsubscribed", zap.String("session_id", session.ID), zap.String("topic", topic))
	}()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Debug("realtime: read loop ended", zap.String("session_id", session.ID), zap.Error(err))
			}
			return
		}
	}
}
