// Package httpapi exposes the notes, trash and identity services over
// HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/auth"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/ratelimit"
	"github.com/dmitrijs2005/gophnotes/internal/server/services"
)

type NoteStore interface {
	Create(ctx context.Context, ownerID, title, content string) (*models.Note, error)
	Get(ctx context.Context, ownerID, id string) (*models.Note, error)
	ListActive(ctx context.Context, ownerID string) ([]*models.Note, error)
	Update(ctx context.Context, ownerID, id, title, content string) (*models.Note, error)
}

type TrashLedger interface {
	ListTrashed(ctx context.Context, ownerID string) ([]*models.TrashedNote, error)
	EraseForever(ctx context.Context, ownerID, trashedID string) error
}

type Lifecycle interface {
	Trash(ctx context.Context, ownerID, noteID string) error
	Restore(ctx context.Context, ownerID, trashedID string) (*models.Note, error)
}

type Identity interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

type Exporter interface {
	Export(ctx context.Context, ownerID string) (*services.ExportResult, error)
}

// Services bundles what the handlers call into.
type Services struct {
	Notes     NoteStore
	Trash     TrashLedger
	Lifecycle Lifecycle
	Users     Identity
	Export    Exporter
}

type HTTPServer struct {
	address  string
	svc      Services
	verifier auth.Verifier
	limiter  *ratelimit.RateLimiter
	logger   logging.Logger
	handler  http.Handler
}

// NewHTTPServer wires routes and middleware. limiter may be nil to disable
// rate limiting.
func NewHTTPServer(addr string, l logging.Logger, svc Services, v auth.Verifier, limiter *ratelimit.RateLimiter) *HTTPServer {
	s := &HTTPServer{
		address:  addr,
		svc:      svc,
		verifier: v,
		limiter:  limiter,
		logger:   l.With("module", "http_server"),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the fully wrapped router.
func (s *HTTPServer) Handler() http.Handler { return s.handler }

func (s *HTTPServer) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.health)

	mux.HandleFunc("POST /auth/register", s.register)
	mux.HandleFunc("POST /auth/login", s.login)
	mux.HandleFunc("POST /auth/refresh", s.refresh)

	mux.Handle("POST /notes", s.protected(s.createNote))
	mux.Handle("GET /notes", s.protected(s.listNotes))
	mux.Handle("POST /notes/export", s.protected(s.exportNotes))
	mux.Handle("GET /notes/{id}", s.protected(s.getNote))
	mux.Handle("PUT /notes/{id}", s.protected(s.updateNote))
	mux.Handle("DELETE /notes/{id}", s.protected(s.trashNote))

	mux.Handle("GET /trashed-notes", s.protected(s.listTrashed))
	mux.Handle("POST /trashed-notes/{id}/restore", s.protected(s.restoreNote))
	mux.Handle("DELETE /trashed-notes/{id}", s.protected(s.eraseTrashed))

	return s.logRequests(mux)
}

// protected runs h behind authentication and, when configured, the per-user
// rate limiter.
func (s *HTTPServer) protected(h http.HandlerFunc) http.Handler {
	var next http.Handler = h
	if s.limiter != nil {
		next = ratelimit.Middleware(s.limiter, UserIDFromContext)(next)
	}
	return s.authenticate(next)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}
