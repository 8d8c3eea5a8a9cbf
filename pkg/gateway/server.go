// Package gateway serves an HTTP status surface for a running handler:
// health and status probes, the bound command list, an on-demand sync,
// and a WebSocket feed of finished dispatches.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	echojwt "github.com/labstack/echo-jwt/v5"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"go.uber.org/zap"

	"cordkit/pkg/config"
	"cordkit/pkg/events"
	"cordkit/pkg/handler"
	"cordkit/pkg/logger"
	"cordkit/pkg/version"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// FeedMessage is one frame on the dispatch feed.
type FeedMessage struct {
	Type      string          `json:"type"` // "system", "dispatch", "pong"
	Content   string          `json:"content,omitempty"`
	Dispatch  *handler.Record `json:"dispatch,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

type client struct {
	id      string
	subject string
	conn    *websocket.Conn
	send    chan []byte
}

// Server is the status gateway.
type Server struct {
	config     *config.Config
	logger     *logger.Logger
	handler    *handler.Handler
	stream     events.Stream
	echo       *echo.Echo
	httpServer *http.Server
	startedAt  time.Time

	mu      sync.RWMutex
	clients map[string]*client
}

// NewServer creates a gateway for h. stream may be nil.
func NewServer(cfg *config.Config, log *logger.Logger, h *handler.Handler, stream events.Stream) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		config:    cfg,
		logger:    log.System("gateway"),
		handler:   h,
		stream:    stream,
		startedAt: time.Now(),
		clients:   make(map[string]*client),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	e := echo.New()
	e.Use(middleware.Recover())

	e.GET("/health", func(c *echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/ws/dispatch", s.handleFeed)

	api := e.Group("/api/v1")
	if secret := s.config.Gateway.JWTSecret; secret != "" {
		api.Use(echojwt.WithConfig(echojwt.Config{
			KeyFunc: func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method")
				}
				return []byte(secret), nil
			},
		}))
	}
	api.GET("/status", s.handleStatus)
	api.GET("/commands", s.handleCommands)
	api.GET("/plan", s.handlePlan)
	api.POST("/sync", s.handleSync)

	s.echo = e
}

// Start begins serving and subscribes the dispatch feed to the handler.
func (s *Server) Start() error {
	addr := s.config.GatewayAddr()
	s.logger.Info("Gateway server starting", zap.String("addr", addr))

	s.handler.SetObserver(s.broadcast)

	// fx owns shutdown, so echo's own Start is not used.
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Gateway server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop detaches the feed, closes every client and shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Gateway server stopping")
	s.handler.SetObserver(nil)

	s.mu.Lock()
	for id, cl := range s.clients {
		close(cl.send)
		delete(s.clients, id)
	}
	s.mu.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// --- REST handlers ---

func (s *Server) handleStatus(c *echo.Context) error {
	uptime := time.Since(s.startedAt)

	s.mu.RLock()
	connections := len(s.clients)
	s.mu.RUnlock()

	status := map[string]interface{}{
		"version":        version.GetVersion(),
		"commit":         version.GitCommit,
		"build_time":     version.BuildTime,
		"go_version":     runtime.Version(),
		"pid":            os.Getpid(),
		"uptime":         uptime.Round(time.Second).String(),
		"uptime_seconds": int64(uptime.Seconds()),
		"bound":          s.handler.Registry().Counts(),
		"local_commands": len(s.handler.Commands()),
		"connections":    connections,
	}
	if s.stream != nil {
		status["event_metrics"] = s.stream.GetMetrics()
	}
	return c.JSON(http.StatusOK, status)
}

func (s *Server) handleCommands(c *echo.Context) error {
	return c.JSON(http.StatusOK, s.handler.Registry().Commands())
}

func (s *Server) handlePlan(c *echo.Context) error {
	diffs, err := s.handler.PlanAll(c.Request().Context())
	if err != nil {
		s.logger.Warn("Plan failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}
	summaries := make([]handler.Summary, 0, len(diffs))
	for _, d := range diffs {
		summaries = append(summaries, d.Summary())
	}
	return c.JSON(http.StatusOK, summaries)
}

func (s *Server) handleSync(c *echo.Context) error {
	if err := s.handler.Sync(c.Request().Context()); err != nil {
		s.logger.Warn("Sync requested over gateway failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "synced",
		"commands": s.handler.Registry().Commands(),
	})
}

// --- Dispatch feed ---

func (s *Server) handleFeed(c *echo.Context) error {
	subject, err := s.authenticate(c.Request())
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return nil
	}

	cl := &client{
		id:      uuid.New().String(),
		subject: subject,
		conn:    conn,
		send:    make(chan []byte, 256),
	}
	s.mu.Lock()
	s.clients[cl.id] = cl
	s.mu.Unlock()

	s.logger.Info("Feed client connected",
		zap.String("client_id", cl.id),
		zap.String("subject", subject))

	s.sendTo(cl, FeedMessage{Type: "system", Content: "Connected to dispatch feed"})

	go s.writePump(cl)
	s.readPump(cl)
	return nil
}

// broadcast is installed as the handler observer.
func (s *Server) broadcast(rec handler.Record) {
	data, err := json.Marshal(FeedMessage{Type: "dispatch", Dispatch: &rec, Timestamp: time.Now().Unix()})
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cl := range s.clients {
		select {
		case cl.send <- data:
		default:
			// Slow consumer.
			close(cl.send)
			delete(s.clients, id)
			s.logger.Warn("Dropped slow feed client", zap.String("client_id", id))
		}
	}
}

func (s *Server) sendTo(cl *client, msg FeedMessage) {
	msg.Timestamp = time.Now().Unix()
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.clients[cl.id]; !ok {
		return
	}
	select {
	case cl.send <- data:
	default:
	}
}

func (s *Server) readPump(cl *client) {
	defer func() {
		s.removeClient(cl)
		cl.conn.Close()
	}()

	cl.conn.SetReadLimit(4096)
	cl.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	cl.conn.SetPongHandler(func(string) error {
		cl.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("Feed read error",
					zap.String("client_id", cl.id),
					zap.Error(err))
			}
			return
		}

		var msg FeedMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			s.sendTo(cl, FeedMessage{Type: "pong"})
		}
	}
}

func (s *Server) writePump(cl *client) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case message, ok := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) removeClient(cl *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[cl.id]; ok {
		close(cl.send)
		delete(s.clients, cl.id)
		s.logger.Info("Feed client disconnected", zap.String("client_id", cl.id))
	}
}

// --- Auth ---

// authenticate checks the token query parameter or bearer header. With no
// secret configured every caller is let through as "anonymous".
func (s *Server) authenticate(r *http.Request) (string, error) {
	secret := s.config.Gateway.JWTSecret
	if secret == "" {
		return "anonymous", nil
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		auth := r.Header.Get("Authorization")
		if len(auth) > 7 && auth[:7] == "Bearer " {
			token = auth[7:]
		}
	}
	if token == "" {
		return "", fmt.Errorf("no token provided")
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", fmt.Errorf("invalid claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		sub = "anonymous"
	}
	return sub, nil
}
