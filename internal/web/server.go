// Package web serves the browser surface: the cells page, a JSON API and
// a websocket that pushes every state change.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/diogo/cellchat/internal/api"
	"github.com/diogo/cellchat/internal/history"
	"github.com/diogo/cellchat/internal/session"
)

// maxMessageBytes bounds the POST /api/messages body
const maxMessageBytes = 64 << 10

// Options configures the web surface
type Options struct {
	Title     string
	ModelName string
}

// Server wires the store and the completion client to HTTP
type Server struct {
	store  *session.Store
	client api.Completer
	opts   Options
	hub    *hub
	router chi.Router
}

// NewServer builds the router
func NewServer(store *session.Store, client api.Completer, opts Options) *Server {
	if opts.Title == "" {
		opts.Title = "Cell Chat"
	}

	s := &Server{
		store:  store,
		client: client,
		opts:   opts,
		hub:    newHub(store),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("[web] request")
	}))

	r.Get("/", s.handleIndex)
	r.Get("/ws", s.hub.serveWS)
	r.Get("/export", s.handleExport)
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Post("/messages", s.handleMessage)
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// the listener and the websocket connections
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("[web] serving at http://%s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.hub.closeAll()
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("[web] http server shutdown error")
	}
	s.hub.wait()
	log.Info().Msg("[web] shutdown complete")
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := pageData{
		Title:     s.opts.Title,
		ModelName: s.opts.ModelName,
		State:     newStateView(s.store.Snapshot()),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("[web] render index")
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStateView(s.store.Snapshot()))
}

type messageRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var body messageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be {\"message\": \"...\"}")
		return
	}

	req, err := s.store.Submit(body.Message)
	switch {
	case errors.Is(err, session.ErrEmptyInput):
		w.WriteHeader(http.StatusNoContent)
		return
	case errors.Is(err, session.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Other pages are watching; a closed tab must not abort the request.
	ctx := context.WithoutCancel(r.Context())
	completion, err := session.Exchange(ctx, s.client, req)
	if rerr := s.store.Resolve(req.Generation, completion, err); rerr != nil {
		hlog.FromRequest(r).Warn().Err(rerr).Uint64("generation", req.Generation).Msg("[web] resolve")
	}

	logEvent(hlog.FromRequest(r), err).Uint64("generation", req.Generation).Msg("[web] message handled")
	writeJSON(w, http.StatusOK, newStateView(s.store.Snapshot()))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := history.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap := s.store.Snapshot()
	transcript := history.Transcript{
		Model:      s.opts.ModelName,
		ExportedAt: time.Now(),
		Messages:   snap.Messages,
		Layout:     snap.Layout,
	}
	opts := history.DefaultExportOptions()
	opts.Format = format

	data, err := history.Export(transcript, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	contentType := "text/markdown; charset=utf-8"
	if format == history.ExportFormatJSON {
		contentType = "application/json"
	}
	name := "cellchat-" + transcript.ExportedAt.Format("20060102-150405") + format.Extension()
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(data)
}

func logEvent(logger *zerolog.Logger, err error) *zerolog.Event {
	if err != nil {
		return logger.Warn().Err(err)
	}
	return logger.Info()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("[web] write response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
