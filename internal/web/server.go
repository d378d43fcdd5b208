// Package web is the server-rendered user interface. It renders pages
// from embedded templates and talks to the upstream finance API through
// the finance ports, holding nothing locally but session tokens and a
// short-lived transactions snapshot.
package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"finview/internal/cache"
	"finview/internal/core"
	"finview/internal/finance"
	"finview/internal/log"
	"finview/internal/session"
	appweb "finview/web"
)

const snapshotKey = "transactions"

// Config tunes the HTTP surface of the server.
type Config struct {
	Addr              string
	RequestsPerMinute int
	SnapshotTTL       time.Duration
}

type Server struct {
	http.Server
	templates *template.Template
	logger    *log.Logger

	auth     finance.Authenticator
	txns     finance.TransactionStore
	cats     finance.CategoryStore
	maint    finance.Maintainer
	sessions *session.Manager
	notices  *Notices

	rateLimiter *rateLimiter

	// snapshot holds the last transactions fetch so the dashboard page
	// and its chart endpoints share one upstream call. A reset writes an
	// empty snapshot so the zeroed state renders without a refetch.
	snapshot *cache.LRUCache[[]core.Transaction]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once

	now func() time.Time
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server.
func NewServer(cfg Config, auth finance.Authenticator, txns finance.TransactionStore, cats finance.CategoryStore, maint finance.Maintainer, sessions *session.Manager, logger *log.Logger) *Server {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentWeb)
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    cfg.Addr,
			Handler: mux,
		},
		logger:           logger,
		auth:             auth,
		txns:             txns,
		cats:             cats,
		maint:            maint,
		sessions:         sessions,
		notices:          NewNotices(),
		rateLimiter:      newRateLimiter(cfg.RequestsPerMinute),
		snapshot:         cache.NewLRUCache[[]core.Transaction](4, cfg.SnapshotTTL),
		stopCacheCleanup: make(chan struct{}),
		now:              time.Now,
	}

	go s.startCacheCleanup()

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.wrap(s.requireAuth(s.handleDashboard)))
	mux.HandleFunc("GET /login", s.wrap(s.redirectAuthed(s.handleLoginPage)))
	mux.HandleFunc("POST /login", s.wrap(s.redirectAuthed(s.handleLogin)))
	mux.HandleFunc("GET /register", s.wrap(s.redirectAuthed(s.handleRegisterPage)))
	mux.HandleFunc("POST /register", s.wrap(s.redirectAuthed(s.handleRegister)))
	mux.HandleFunc("POST /logout", s.wrap(s.handleLogout))

	mux.HandleFunc("GET /transactions", s.wrap(s.requireAuth(s.handleTransactionsPage)))
	mux.HandleFunc("POST /transactions", s.wrap(s.requireAuth(s.handleCreateTransaction)))
	mux.HandleFunc("POST /transactions/{id}/delete", s.wrap(s.requireAuth(s.handleDeleteTransaction)))

	mux.HandleFunc("GET /categories", s.wrap(s.requireAuth(s.handleCategoriesPage)))
	mux.HandleFunc("POST /categories", s.wrap(s.requireAuth(s.handleCreateCategory)))
	mux.HandleFunc("POST /categories/{id}/delete", s.wrap(s.requireAuth(s.handleDeleteCategory)))

	mux.HandleFunc("POST /dashboard/refresh", s.wrap(s.requireAuth(s.handleDashboardRefresh)))
	mux.HandleFunc("GET /dashboard/data/daily", s.wrap(s.requireAuth(s.handleDailyData)))
	mux.HandleFunc("GET /dashboard/data/monthly", s.wrap(s.requireAuth(s.handleMonthlyData)))
	mux.HandleFunc("GET /dashboard/data/categories", s.wrap(s.requireAuth(s.handleCategoryData)))

	mux.HandleFunc("POST /reset", s.wrap(s.requireAuth(s.handleReset)))
	mux.HandleFunc("GET /export", s.wrap(s.requireAuth(s.handleExport)))

	mux.HandleFunc("POST /notices/dismiss", s.wrap(s.handleDismissNotices))

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	return s
}

// startCacheCleanup periodically drops expired snapshot entries.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.snapshot.CleanExpired(); cleaned > 0 {
				s.logger.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the cleanup goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// wrap adds security headers, rate limiting and request logging.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		reqLogger := s.logger.With(log.FieldRequestID, requestID)
		ctx := log.IntoContext(r.Context(), reqLogger)
		r = r.WithContext(ctx)

		reqLogger.DebugContext(ctx, "Request started",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP,
			log.FieldUserAgent, r.Header.Get("User-Agent"))

		// Mutating requests count against the per-client budget.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			reqLogger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		reqLogger.InfoContext(ctx, "Request completed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, duration.Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

// requireAuth redirects unauthenticated requests to the login page.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.sessions.IsAuthenticated() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// redirectAuthed sends already-authenticated users to the dashboard so
// the login and register pages never render over a live session.
func (s *Server) redirectAuthed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.sessions.IsAuthenticated() {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// transactions returns the current snapshot, fetching from the upstream
// on a miss. Callers get their own copy.
func (s *Server) transactions(ctx context.Context) ([]core.Transaction, error) {
	if items, found := s.snapshot.Get(snapshotKey); found {
		log.FromContext(ctx).DebugContext(ctx, "Snapshot cache hit", "count", len(items))
		result := make([]core.Transaction, len(items))
		copy(result, items)
		return result, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	items, err := s.txns.ListTransactions(cctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	s.snapshot.Set(snapshotKey, items)
	result := make([]core.Transaction, len(items))
	copy(result, items)
	return result, nil
}

func (s *Server) invalidateSnapshot() {
	s.snapshot.Delete(snapshotKey)
}

// fail turns an upstream error into a notice and a redirect. An auth
// failure also clears the local session.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	ctx := r.Context()
	if finance.IsAuth(err) {
		if lerr := s.sessions.Logout(ctx); lerr != nil {
			log.FromContext(ctx).ErrorContext(ctx, "Session logout failed", log.FieldError, lerr)
		}
		s.notices.SetError(finance.MsgSessionGone)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	s.notices.SetError(finance.UserMessage(err))
	http.Redirect(w, r, fallback, http.StatusSeeOther)
}

func (s *Server) handleDismissNotices(w http.ResponseWriter, r *http.Request) {
	s.notices.Clear()
	target := r.Referer()
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
