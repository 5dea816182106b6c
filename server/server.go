package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"RaspCD/core/hub"
	"RaspCD/logger"
	"RaspCD/model"

	"github.com/gorilla/mux"
)

const shutdownTimeout = 5 * time.Second

// Snapshotter builds status snapshots.
type Snapshotter interface {
	Snapshot(ctx context.Context, req model.InfoRequest) model.Snapshot
}

// Library lists the discs that have been played.
type Library interface {
	List(ctx context.Context, limit int) ([]model.LibraryEntry, error)
	GetByDiscID(ctx context.Context, discID string) (*model.LibraryEntry, error)
}

// CoverSource opens stored cover art by release id.
type CoverSource interface {
	Get(ctx context.Context, releaseID string) (io.ReadCloser, string, error)
}

// Deps are the collaborators behind the HTTP routes. Library and Covers may
// be nil when their backends are disabled.
type Deps struct {
	Addr     string
	Name     string
	WebDir   string
	Info     Snapshotter
	Library  Library
	Covers   CoverSource
	CoverURL func(releaseID string) string
	Hub      *hub.Hub
	Commands func(ctx context.Context, client *hub.Client, msg *hub.Message)
}

// Server is the jukebox HTTP and websocket front end.
type Server struct {
	deps Deps

	mu   sync.RWMutex
	name string

	http *http.Server
}

// New builds the router and the underlying http.Server.
func New(deps Deps) *Server {
	s := &Server{deps: deps, name: deps.Name}
	s.http = &http.Server{
		Addr:        deps.Addr,
		Handler:     s.routes(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	return s
}

// SetName replaces the display name served by /getMediaPlayerInfo.
func (s *Server) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

// Name returns the current display name.
func (s *Server) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) routes() http.Handler {
	router := mux.NewRouter()

	// 添加 CORS 中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	router.HandleFunc("/getMediaPlayerInfo", s.handleMediaPlayerInfo).Methods(http.MethodGet)
	router.HandleFunc("/api/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	router.HandleFunc("/api/library", s.handleLibrary).Methods(http.MethodGet)
	router.HandleFunc("/api/library/{discID}", s.handleLibraryEntry).Methods(http.MethodGet)
	router.HandleFunc("/covers/{releaseID}", s.handleCover).Methods(http.MethodGet)
	router.HandleFunc("/ws", s.handleWebSocket)

	// 前端页面
	router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.deps.WebDir)))

	return router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("web server listening", logger.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// 优雅关闭服务器
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
