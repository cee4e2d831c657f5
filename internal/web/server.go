// Package web provides the HTTP chat API for estate-bot.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/evcraddock/estate-bot/internal/auth"
	"github.com/evcraddock/estate-bot/internal/conversation"
	"github.com/evcraddock/estate-bot/internal/logging"
	"github.com/evcraddock/estate-bot/internal/property"
	"github.com/evcraddock/estate-bot/internal/transcribe"
)

// Chat is the conversation engine as seen by HTTP clients.
type Chat interface {
	HandleText(ctx context.Context, userID int64, text string) (conversation.Reply, error)
	HandleVoice(ctx context.Context, userID int64, audio transcribe.Audio) (conversation.Reply, error)
	HandleAction(ctx context.Context, userID int64, data string) (conversation.Reply, error)
}

// Server is the chat API HTTP server.
type Server struct {
	chat     Chat
	propRepo *property.Repository
	apiKeys  *apikeyHandlers
	mux      *http.ServeMux
	handler  http.Handler
}

// NewServer creates a server. rateLimit caps requests per minute per API
// key; 0 disables the cap.
func NewServer(chat Chat, props *property.Repository, keys *auth.APIKeyStore, rateLimit int) *Server {
	s := &Server{
		chat:     chat,
		propRepo: props,
		apiKeys:  &apikeyHandlers{apiKeys: keys},
		mux:      http.NewServeMux(),
	}

	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/chat", s.handleAPIChat)
	s.mux.HandleFunc("/api/chat/voice", s.handleAPIVoice)
	s.mux.HandleFunc("/api/properties", s.handleAPIProperties)
	s.mux.HandleFunc("/api/properties/", s.handleAPIProperties)
	s.mux.HandleFunc("/api/keys", s.apiKeys.handleAPIKeysRoute)
	s.mux.HandleFunc("/api/keys/", s.apiKeys.handleAPIKeysRoute)

	authMW := auth.NewMiddleware(keys, rateLimit)
	s.handler = logging.RequestLogger(authMW.RequireAPIKey(s.mux))

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting chat API", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("stopping chat API")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
