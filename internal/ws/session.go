package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/easelhq/easel/internal/observability/logger"
	"github.com/easelhq/easel/internal/push"
)

// Tamaño del buffer de salida por sesión. Un cliente que no drena a este
// ritmo empieza a perder frames (entrega best-effort).
const sendBuffer = 32

var errSlowConsumer = errors.New("ws: send buffer full, frame dropped")

// Session es una conexión WebSocket viva con su identidad ya resuelta.
type Session struct {
	ID     string
	UserID string

	conn *websocket.Conn
	send chan []byte
	once sync.Once
	done chan struct{}
	log  *zap.Logger
}

func newSession(id, userID string, conn *websocket.Conn) *Session {
	return &Session{
		ID:     id,
		UserID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		log:    logger.Named("ws").With(logger.ConnectionID(id), logger.UserID(userID)),
	}
}

// enqueue encola un frame saliente sin bloquear. Sesión cerrada =>
// push.ErrGone; buffer lleno => se descarta el frame y se reporta.
func (s *Session) enqueue(data []byte) error {
	select {
	case <-s.done:
		return push.ErrGone
	default:
	}
	select {
	case s.send <- data:
		return nil
	case <-s.done:
		return push.ErrGone
	default:
		return errSlowConsumer
	}
}

// close es idempotente; despierta al write pump y cierra el socket.
func (s *Session) close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// writePump drena el buffer de salida y mantiene vivos los pings. Corre en
// su propia goroutine; cualquier error de escritura cierra la sesión.
func (s *Session) writePump(writeTimeout, pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case data := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.log.Debug("write falló", logger.Err(err))
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}
