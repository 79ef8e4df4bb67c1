package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lazharichir/baccarat/baccarat"
	domainevents "github.com/lazharichir/baccarat/events"
	"github.com/lazharichir/baccarat/odds"
	"github.com/lazharichir/baccarat/server/connection"
	"github.com/lazharichir/baccarat/server/events"
	"github.com/lazharichir/baccarat/server/handlers"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// subscriber is an event store that pushes appended events to handlers.
type subscriber interface {
	Subscribe(handler domainevents.EventHandler)
}

// Server serves odds over HTTP and streams runs over websockets
type Server struct {
	calc         *odds.Calculator
	defaultDecks int
	connMgr      *connection.Manager
	cmdRouter    *handlers.CommandRouter
	dispatcher   *events.Dispatcher
	ctx          context.Context // cancelled on shutdown; bounds websocket runs
}

// NewServer creates a server around calc. defaultDecks answers /api/odds
// requests without a decks parameter.
func NewServer(calc *odds.Calculator, defaultDecks int) *Server {
	connMgr := connection.NewManager()
	dispatcher := events.NewDispatcher(connMgr)

	if sub, ok := calc.Events().(subscriber); ok {
		sub.Subscribe(dispatcher.HandleEvent)
	} else {
		glog.Warningf("event store %T does not support subscriptions; websocket clients get results only", calc.Events())
	}

	return &Server{
		calc:         calc,
		defaultDecks: defaultDecks,
		connMgr:      connMgr,
		cmdRouter:    handlers.NewCommandRouter(calc, connMgr),
		dispatcher:   dispatcher,
		ctx:          context.Background(),
	}
}

// corsMiddleware adds CORS headers to all responses
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Handler returns the server's routes. The connection manager must be
// running (see Start) for /ws to accept clients.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.handleWebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Use(corsMiddleware)
		r.Get("/health", s.handleHealth)
		r.Get("/odds", s.handleOdds)
		r.Get("/odds/{decks}", s.handleOdds)
		r.Get("/runs/{runID}/events", s.handleRunEvents)
	})
	return r
}

// Start serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.ctx = ctx

	go s.connMgr.Run(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		glog.Infof("listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleOdds answers /api/odds?decks=N and /api/odds/{decks}
func (s *Server) handleOdds(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "decks")
	if raw == "" {
		raw = r.URL.Query().Get("decks")
	}

	decks := s.defaultDecks
	if raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "decks must be an integer", http.StatusBadRequest)
			return
		}
		decks = n
	}

	run, err := s.calc.Calculate(r.Context(), decks)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, handlers.NewRunResponse(run))
}

func (s *Server) handleRunEvents(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	if _, err := s.calc.Run(runID); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	evts, err := s.calc.Events().LoadEvents(runID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	envelopes := make([]events.EventEnvelope, 0, len(evts))
	for _, e := range evts {
		payload, err := json.Marshal(e)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		envelopes = append(envelopes, events.EventEnvelope{Name: e.EventName(), Payload: payload})
	}
	writeJSON(w, http.StatusOK, envelopes)
}

// handleWebSocket handles incoming WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Errorf("upgrading to websocket: %v", err)
		return
	}

	client := &connection.Client{
		ID:   uuid.NewString(),
		Conn: conn,
		Send: make(chan []byte, 256),
	}
	glog.Infof("client %s connected from %s", client.ID, r.RemoteAddr)

	s.connMgr.Register <- client

	go s.readPump(client)
	go s.writePump(client)
}

// readPump reads commands until the connection closes. Runs started by the
// client are cancelled when it disconnects.
func (s *Server) readPump(client *connection.Client) {
	ctx, cancel := context.WithCancel(s.ctx)
	defer func() {
		cancel()
		s.connMgr.Unregister <- client
		client.Conn.Close()
		glog.Infof("client %s disconnected", client.ID)
	}()

	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				glog.Warningf("client %s: %v", client.ID, err)
			}
			return
		}

		if err := s.cmdRouter.HandleCommand(ctx, client, message); err != nil {
			glog.Warningf("client %s: handling command: %v", client.ID, err)
			s.cmdRouter.SendError(client, "", err)
		}
	}
}

// writePump sends queued messages and keeps the connection alive with pings
func (s *Server) writePump(client *connection.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				glog.Warningf("client %s: writing message: %v", client.ID, err)
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, baccarat.ErrInvalidConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, baccarat.ErrArithmeticOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, odds.ErrRunNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		glog.Warningf("writing response: %v", err)
	}
}
