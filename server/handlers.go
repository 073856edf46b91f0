package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.subs.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list subscriptions", "error", err)
		s.fail(w, http.StatusInternalServerError, "Could not load subscriptions.")
		return
	}
	s.ok(w, subs)
}

func (s *Server) handleAddSubscription(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		s.fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(body.URL) == "" {
		s.fail(w, http.StatusBadRequest, "URL is required")
		return
	}

	sub, err := s.subs.Add(r.Context(), body.URL)
	if err != nil {
		s.failErr(w, err)
		return
	}
	s.ok(w, sub)
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		URL   string `json:"url"`
		Title string `json:"title"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		s.fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(body.URL) == "" || strings.TrimSpace(body.Title) == "" {
		s.fail(w, http.StatusBadRequest, "URL and title are required")
		return
	}

	sub, err := s.subs.Update(r.Context(), id, body.URL, body.Title)
	if err != nil {
		s.failErr(w, err)
		return
	}
	s.ok(w, sub)
}

func (s *Server) handleRemoveSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	removed, err := s.subs.Remove(r.Context(), id)
	if err != nil {
		s.failErr(w, err)
		return
	}
	if !removed {
		s.fail(w, http.StatusNotFound, "Subscription not found")
		return
	}
	s.ok(w, map[string]interface{}{"id": id, "deleted": true})
}

func (s *Server) handleRefreshSubscription(w http.ResponseWriter, r *http.Request) {
	data, err := s.subs.Refresh(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.failErr(w, err)
		return
	}
	s.ok(w, data)
}

func (s *Server) handleProxyFeed(w http.ResponseWriter, r *http.Request) {
	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if url == "" {
		s.fail(w, http.StatusBadRequest, "Feed URL is required")
		return
	}

	data, err := s.feeds.Fetch(r.Context(), url)
	if err != nil {
		s.logger.Error("failed to proxy feed", "url", url, "error", err)
		s.fail(w, http.StatusBadRequest, err.Error())
		return
	}
	s.ok(w, data)
}

func (s *Server) handleRefreshAll(w http.ResponseWriter, r *http.Request) {
	results, err := s.subs.RefreshAll(r.Context())
	if err != nil {
		s.failErr(w, err)
		return
	}
	s.ok(w, results)
}

func (s *Server) handleListRead(w http.ResponseWriter, r *http.Request) {
	ids, err := s.read.ReadArticleIDs(r.Context())
	if err != nil {
		s.logger.Error("failed to load read state", "error", err)
		s.fail(w, http.StatusInternalServerError, "Could not load read articles.")
		return
	}
	s.ok(w, ids)
}

type idsBody struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	var body idsBody
	if err := decodeBody(w, r, &body); err != nil {
		s.fail(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := s.read.MarkRead(r.Context(), body.IDs...)
	if err != nil {
		s.failErr(w, err)
		return
	}
	s.ok(w, map[string]int{"marked": n})
}

func (s *Server) handleClearRead(w http.ResponseWriter, r *http.Request) {
	var body idsBody
	if err := decodeBody(w, r, &body); err != nil {
		s.fail(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := s.read.ClearRead(r.Context(), body.IDs...)
	if err != nil {
		s.failErr(w, err)
		return
	}
	s.ok(w, map[string]int{"cleared": n})
}
