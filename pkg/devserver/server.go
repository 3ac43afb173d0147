package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/garagedesk/pkg/httpserver"
	"github.com/dmitrymomot/garagedesk/pkg/logger"
	"github.com/dmitrymomot/garagedesk/pkg/notifications"
	"github.com/dmitrymomot/garagedesk/pkg/requestid"
)

// UserHeader identifies the caller on REST requests.
const UserHeader = "X-User-ID"

const maxBodySize = 1 << 20

// Server is the development notifications backend.
type Server struct {
	cfg     config
	log     *slog.Logger
	storage *Storage
	hub     *Hub
	router  chi.Router
}

func New(opts ...Option) *Server {
	cfg := config{
		hubCapacity:  1024,
		bufferSize:   32,
		writeTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Discard()
	}
	if cfg.storage == nil {
		cfg.storage = NewStorage()
	}

	s := &Server{
		cfg:     cfg,
		log:     cfg.logger.With(logger.Component("devserver")),
		storage: cfg.storage,
		hub:     NewHub(cfg.hubCapacity, cfg.bufferSize),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(s.logRequests)

	r.Get("/healthz", httpserver.HealthCheckHandler(s.log))
	r.Route("/notifications", func(r chi.Router) {
		r.Use(s.requireUser)
		r.Get("/", s.handleList)
		r.Post("/", s.handlePublish)
		r.Get("/unread-count", s.handleUnreadCount)
		r.Post("/mark-all-read", s.handleMarkAllRead)
		r.Patch("/{id}/read", s.handleMarkRead)
		r.Delete("/{id}", s.handleDelete)
	})
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Storage exposes the backing store.
func (s *Server) Storage() *Storage {
	return s.storage
}

// Publish stores n and pushes it to the owner's sockets.
func (s *Server) Publish(ctx context.Context, n notifications.Notification) (notifications.Notification, error) {
	n, err := s.storage.Create(ctx, n)
	if err != nil {
		return notifications.Notification{}, err
	}
	frame, err := recordFrame(n)
	if err != nil {
		return notifications.Notification{}, err
	}
	if err := s.hub.Publish(ctx, n.UserID, frame); err != nil {
		s.log.WarnContext(ctx, "push failed", logger.UserID(n.UserID), logger.Error(err))
	}
	s.pushUnreadCount(ctx, n.UserID)
	return n, nil
}

// Subscribers reports how many push sockets userID has open.
func (s *Server) Subscribers(userID string) int {
	return s.hub.Subscribers(userID)
}

// Close ends every open push socket.
func (s *Server) Close() error {
	return s.hub.Close()
}

type userKey struct{}

func userFrom(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}

func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserHeader))
		if userID == "" {
			userID = strings.TrimSpace(r.URL.Query().Get("userId"))
		}
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing user identity")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, userID)))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.InfoContext(r.Context(), "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			logger.Duration(time.Since(start)),
		)
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if isUpgrade(r) {
		s.handleStream(w, r)
		return
	}
	unreadOnly := r.URL.Query().Get("unreadOnly") == "true"
	list := s.storage.List(r.Context(), userFrom(r.Context()), unreadOnly)
	writeJSON(w, http.StatusOK, map[string]any{"notifications": list})
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var n notifications.Notification
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&n); err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification body")
		return
	}
	if n.Title == "" && n.Message == "" && n.Status == "" && n.Progress == nil {
		writeError(w, http.StatusUnprocessableEntity, "title, message, status or progress is required")
		return
	}
	if n.UserID == "" {
		n.UserID = userFrom(r.Context())
	}

	created, err := s.Publish(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	count := s.storage.CountUnread(r.Context(), userFrom(r.Context()))
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userFrom(ctx)
	if err := s.storage.MarkRead(ctx, userID, chi.URLParam(r, "id")); err != nil {
		s.writeStorageError(w, r, err)
		return
	}
	s.pushUnreadCount(ctx, userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userFrom(ctx)
	updated := s.storage.MarkAllRead(ctx, userID)
	s.pushUnreadCount(ctx, userID)
	writeJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userFrom(ctx)
	if err := s.storage.Delete(ctx, userID, chi.URLParam(r, "id")); err != nil {
		s.writeStorageError(w, r, err)
		return
	}
	s.pushUnreadCount(ctx, userID)
	w.WriteHeader(http.StatusNoContent)
}

// handleStream serves the push channel. The current unread count is sent
// first, then every frame published for the user.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r.Context())
	log := s.log.With(logger.UserID(userID))

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.cfg.originPatterns,
	})
	if err != nil {
		log.WarnContext(r.Context(), "websocket accept failed", logger.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx := conn.CloseRead(r.Context())
	sub := s.hub.Subscribe(ctx, userID)
	defer sub.Close()
	log.InfoContext(ctx, "push socket opened")

	if err := s.write(ctx, conn, unreadCountFrame(s.storage.CountUnread(ctx, userID))); err != nil {
		log.DebugContext(ctx, "push socket write failed", logger.Error(err))
		return
	}

	frames := sub.Receive(ctx)
	for {
		select {
		case msg, ok := <-frames:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server closing")
				log.InfoContext(ctx, "push socket closed by server")
				return
			}
			if err := s.write(ctx, conn, msg.Data); err != nil {
				log.DebugContext(ctx, "push socket write failed", logger.Error(err))
				return
			}
		case <-ctx.Done():
			log.InfoContext(ctx, "push socket closed")
			return
		}
	}
}

func (s *Server) write(ctx context.Context, conn *websocket.Conn, frame []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, frame)
}

func (s *Server) pushUnreadCount(ctx context.Context, userID string) {
	frame := unreadCountFrame(s.storage.CountUnread(ctx, userID))
	if err := s.hub.Publish(ctx, userID, frame); err != nil {
		s.log.WarnContext(ctx, "push failed", logger.UserID(userID), logger.Error(err))
	}
}

func (s *Server) writeStorageError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, notifications.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.log.ErrorContext(r.Context(), "storage failure", logger.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func isUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
