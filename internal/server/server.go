package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/accordhq/accord/internal/config"
	servermw "github.com/accordhq/accord/internal/server/middleware"
)

// Interaction type and callback constants on the inbound webhook wire.
const (
	InteractionPing = 1

	CallbackPong = 1
)

const (
	headerSignature = "X-Signature-Ed25519"
	headerTimestamp = "X-Signature-Timestamp"
)

// Interaction is the inbound payload delivered to the webhook endpoint.
type Interaction struct {
	ID            string          `json:"id"`
	ApplicationID string          `json:"application_id"`
	Type          int             `json:"type"`
	Token         string          `json:"token"`
	GuildID       string          `json:"guild_id,omitempty"`
	ChannelID     string          `json:"channel_id,omitempty"`
	Data          json.RawMessage `json:"data,omitempty"`
}

// InteractionResponse is the synchronous reply written back to the
// webhook delivery.
type InteractionResponse struct {
	Type int `json:"type"`
	Data any `json:"data,omitempty"`
}

// Handler produces the response for a non-ping interaction. Pings are
// answered with a pong before the handler is consulted.
type Handler func(ctx context.Context, in *Interaction) (*InteractionResponse, error)

// Server receives signed interaction webhooks over HTTP.
type Server struct {
	router   *chi.Mux
	server   *http.Server
	cfg      config.ServerConfig
	verifier *Verifier
	handler  Handler
	logger   *zap.Logger
}

// New builds a server from configuration. The handler may be nil, in
// which case non-ping interactions get a 501.
func New(cfg config.ServerConfig, handler Handler, logger *zap.Logger) (*Server, error) {
	if cfg.PublicKey == "" {
		return nil, fmt.Errorf("server public key is required")
	}
	verifier, err := NewVerifier(cfg.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:      cfg,
		verifier: verifier,
		handler:  handler,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(servermw.RequestID)
	r.Use(servermw.RequestLogger(logger))
	r.Use(servermw.Recovery(logger))

	r.Post("/interactions", s.handleInteraction)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.router = r
	return s, nil
}

// Start runs the HTTP listener until it fails or Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	readTimeout := s.cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}
	writeTimeout := s.cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("Starting HTTP server",
		zap.String("host", s.cfg.Host),
		zap.Int("port", s.cfg.Port),
		zap.String("addr", addr))

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	sig := r.Header.Get(headerSignature)
	ts := r.Header.Get(headerTimestamp)
	if sig == "" || ts == "" || !s.verifier.Verify(sig, ts, body) {
		s.logger.Warn("rejected interaction with invalid signature",
			zap.String("request_id", servermw.GetRequestID(r.Context())))
		http.Error(w, "invalid request signature", http.StatusUnauthorized)
		return
	}

	var in Interaction
	if err := json.Unmarshal(body, &in); err != nil {
		http.Error(w, "malformed interaction payload", http.StatusBadRequest)
		return
	}

	if in.Type == InteractionPing {
		s.writeJSON(w, &InteractionResponse{Type: CallbackPong})
		return
	}

	if s.handler == nil {
		http.Error(w, "no interaction handler configured", http.StatusNotImplemented)
		return
	}

	resp, err := s.handler(r.Context(), &in)
	if err != nil {
		s.logger.Error("interaction handler failed",
			zap.String("interaction_id", in.ID),
			zap.Error(err))
		http.Error(w, "interaction handling failed", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", zap.Error(err))
	}
}
