package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/easelhq/easel/internal/claims"
	"github.com/easelhq/easel/internal/metrics"
	"github.com/easelhq/easel/internal/observability/logger"
	"github.com/easelhq/easel/internal/registry"
)

// Config controla límites y timeouts de las sesiones WebSocket.
type Config struct {
	// ReadLimit es el tamaño máximo de un frame entrante en bytes.
	ReadLimit int64
	// WriteTimeout acota cada escritura individual al socket.
	WriteTimeout time.Duration
	// PingInterval separa los pings de keepalive. Debe ser menor que PongTimeout.
	PingInterval time.Duration
	// PongTimeout es cuánto puede callar el cliente antes de darlo por muerto.
	PongTimeout time.Duration
	// Anonymous es la identidad sentinel de las sesiones sin credencial.
	Anonymous string
}

// CheckOrigin abierto: la identidad va por token, no por origin, y los
// clientes de escritorio no mandan Origin.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Handler hace el upgrade HTTP->WS y corre el ciclo de vida completo de la
// sesión: alta en el registry, loop de lectura, baja al colgar.
type Handler struct {
	reg      *registry.Registry
	hub      *Hub
	dispatch *Dispatcher
	verifier *claims.Verifier
	cfg      Config
	log      *zap.Logger
}

func NewHandler(reg *registry.Registry, hub *Hub, dispatch *Dispatcher, verifier *claims.Verifier, cfg Config) *Handler {
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = 1 << 20
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = 60 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = cfg.PongTimeout * 9 / 10
	}
	if cfg.Anonymous == "" {
		cfg.Anonymous = "anonymous"
	}
	return &Handler{
		reg:      reg,
		hub:      hub,
		dispatch: dispatch,
		verifier: verifier,
		cfg:      cfg,
		log:      logger.Named("ws"),
	}
}

// identity resuelve la identidad de la conexión en orden: claim sub del
// token verificado, user_id por query, sentinel anónimo.
func (h *Handler) identity(r *http.Request) string {
	tok := r.URL.Query().Get("token")
	if tok == "" {
		if ah := r.Header.Get("Authorization"); strings.HasPrefix(ah, "Bearer ") {
			tok = strings.TrimPrefix(ah, "Bearer ")
		}
	}
	if tok != "" {
		sub, err := h.verifier.Subject(tok)
		if err == nil {
			return sub
		}
		h.log.Debug("token rechazado", logger.Err(err))
	}
	if uid := r.URL.Query().Get("user_id"); uid != "" {
		return uid
	}
	return h.cfg.Anonymous
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := h.identity(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade ya respondió el error HTTP.
		h.log.Debug("upgrade falló", logger.Err(err))
		return
	}

	id := uuid.New().String()
	ctx := r.Context()

	// Sin alta durable no hay conexión: los broadcasts jamás la verían.
	if err := h.reg.Register(ctx, id, userID); err != nil {
		h.log.Error("alta de conexión falló", logger.ConnectionID(id), logger.Err(err))
		msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "registration failed")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}

	s := newSession(id, userID, conn)
	h.hub.add(s)
	metrics.WSConnections.Inc()
	s.log.Info("conexión abierta")

	go s.writePump(h.cfg.WriteTimeout, h.cfg.PingInterval)

	conn.SetReadLimit(h.cfg.ReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("read falló", logger.Err(err))
			}
			break
		}
		h.handleMessage(ctx, s, data)
	}

	h.hub.remove(id)
	s.close()
	metrics.WSConnections.Dec()

	// El contexto del request muere junto con el socket; la baja usa uno propio.
	dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.reg.Deregister(dctx, id); err != nil {
		h.log.Warn("baja de conexión falló", logger.ConnectionID(id), logger.Err(err))
	}
	s.log.Info("conexión cerrada")
}

// handleMessage procesa un frame entrante y responde sólo al emisor. Un
// error de acción es una respuesta normal, nunca corta la sesión.
func (h *Handler) handleMessage(ctx context.Context, s *Session, data []byte) {
	result, err := h.dispatch.Dispatch(ctx, s.UserID, data)
	if err != nil {
		h.reply(s, map[string]any{"error": err.Error()})
		return
	}
	// Los deletes no tienen documento de respuesta.
	if result == nil {
		return
	}
	h.reply(s, result)
}

func (h *Handler) reply(s *Session, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Error("respuesta no serializable", logger.Err(err))
		return
	}
	if err := s.enqueue(data); err != nil {
		s.log.Debug("respuesta no entregada", logger.Err(err))
	}
}
