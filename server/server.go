// Package server exposes subscriptions, feed proxying and read state over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aurareader/aura-reader/model"
	"github.com/aurareader/aura-reader/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Subscriptions is the subscription flow the API drives.
type Subscriptions interface {
	List(ctx context.Context) ([]model.Subscription, error)
	Add(ctx context.Context, url string) (model.Subscription, error)
	Update(ctx context.Context, id, url, title string) (model.Subscription, error)
	Remove(ctx context.Context, id string) (bool, error)
	Refresh(ctx context.Context, id string) (*model.FeedData, error)
	RefreshAll(ctx context.Context) ([]model.RefreshResult, error)
}

// FeedSource fetches a feed by URL.
type FeedSource interface {
	Fetch(ctx context.Context, url string) (*model.FeedData, error)
}

// ReadState records which articles have been read.
type ReadState interface {
	MarkRead(ctx context.Context, articleIDs ...string) (int, error)
	ClearRead(ctx context.Context, articleIDs ...string) (int, error)
	ReadArticleIDs(ctx context.Context) ([]string, error)
}

// Server is the HTTP API.
type Server struct {
	subs   Subscriptions
	feeds  FeedSource
	read   ReadState
	logger *slog.Logger
}

// New creates a Server.
func New(subs Subscriptions, feeds FeedSource, read ReadState, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{subs: subs, feeds: feeds, read: read, logger: logger}
}

// Handler returns the router serving the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/subscriptions", s.handleListSubscriptions)
		r.Post("/subscriptions", s.handleAddSubscription)
		r.Put("/subscriptions/{id}", s.handleUpdateSubscription)
		r.Delete("/subscriptions/{id}", s.handleRemoveSubscription)
		r.Get("/subscriptions/{id}/feed", s.handleRefreshSubscription)

		r.Get("/proxy-feed", s.handleProxyFeed)
		r.Post("/refresh", s.handleRefreshAll)

		r.Get("/read", s.handleListRead)
		r.Post("/read", s.handleMarkRead)
		r.Post("/read/clear", s.handleClearRead)
	})

	return r
}

// ListenAndServe serves the API on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type okEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type errEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Server) ok(w http.ResponseWriter, data interface{}) {
	s.writeJSON(w, http.StatusOK, okEnvelope{Success: true, Data: data})
}

func (s *Server) fail(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errEnvelope{Success: false, Error: msg})
}

// failErr maps err to a status: unknown subscriptions are 404, everything
// else is reported as a bad request with the error message.
func (s *Server) failErr(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		s.fail(w, http.StatusNotFound, err.Error())
		return
	}
	s.fail(w, http.StatusBadRequest, err.Error())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}
