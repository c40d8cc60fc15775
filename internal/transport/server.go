package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"forgeterm.dev/forgeterm/internal/rpc"
)

// ServerOptions configures the serving side of the wire protocol.
type ServerOptions struct {
	// Token, when set, is required as a bearer header on every request.
	Token string

	// Logger receives one line per served call. Nil uses slog.Default.
	Logger *slog.Logger
}

// Server adapts an rpc.Handler onto HTTP: POST /rpc serves single calls,
// GET /rpc/ws serves a multiplexed WebSocket session, and GET /healthz
// answers liveness probes.
type Server struct {
	handler  rpc.Handler
	token    string
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewServer builds a server around the handler, usually an engine.
func NewServer(handler rpc.Handler, opts ServerOptions) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		handler: handler,
		token:   opts.Token,
		logger:  logger,
	}
}

// Routes returns the http.Handler serving the engine endpoints.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /rpc", s.handleRPC)
	mux.HandleFunc("GET /rpc/ws", s.handleWS)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	return mux
}

func (s *Server) authorized(r *http.Request) bool {
	if s.token == "" {
		return true
	}
	return r.Header.Get("Authorization") == "Bearer "+s.token
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, errorResponse(0, "unauthorized"))
		return
	}

	var req callRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse(0, "malformed request: "+err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, s.serve(r.Context(), req))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return
	}
	defer conn.Close()

	// Calls on one connection are served in arrival order. The engine
	// serializes operations anyway, so there is nothing to gain from
	// per-frame goroutines.
	for {
		var req callRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		if err := conn.WriteJSON(s.serve(r.Context(), req)); err != nil {
			return
		}
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// serve runs one call and shapes the response frame. Operation failures
// are part of the protocol, not transport failures, so over HTTP they
// still travel with status 200.
func (s *Server) serve(ctx context.Context, req callRequest) callResponse {
	start := time.Now()
	payload, err := s.handler.Handle(ctx, req.Op, req.Params)
	if err != nil {
		s.logger.Info("rpc",
			slog.String("op", req.Op),
			slog.String("error", err.Error()),
			slog.Duration("dur", time.Since(start)))
		return errorResponse(req.ID, err.Error())
	}
	s.logger.Info("rpc",
		slog.String("op", req.Op),
		slog.Duration("dur", time.Since(start)))

	result, err := json.Marshal(payload)
	if err != nil {
		return errorResponse(req.ID, "failed to encode result: "+err.Error())
	}
	return callResponse{ID: req.ID, Result: result}
}

func errorResponse(id int64, message string) callResponse {
	return callResponse{ID: id, Error: &wireError{Message: message}}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
