package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/khanhnv2901/vulnscan/internal/api/middleware"
	"github.com/khanhnv2901/vulnscan/internal/checker"
	"github.com/khanhnv2901/vulnscan/internal/domain/scan"
	consts "github.com/khanhnv2901/vulnscan/internal/shared/constants"
	apperrors "github.com/khanhnv2901/vulnscan/internal/shared/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Error categories returned in the "error" field of error bodies.
const (
	CategoryInvalidInput  = "Invalid input"
	CategoryInvalidURL    = "Invalid URL"
	CategoryScanFailed    = "Scan failed"
	CategoryNotFound      = "Not found"
	CategoryMethod        = "Method not allowed"
	CategoryRateLimited   = "Rate limited"
	CategoryUnauthorized  = "Unauthorized"
	internalFailureDetail = "the scan could not be completed"
)

// ScanRequest is the inbound scan body. ScanType is accepted and echoed but
// does not change which checks run.
type ScanRequest struct {
	URL      string `json:"url"`
	ScanType string `json:"scanType"`
}

// PortScanRequest is the inbound port scan body.
type PortScanRequest struct {
	Host  string `json:"host"`
	Ports []int  `json:"ports"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Scanner runs one scan.
type Scanner interface {
	Scan(ctx context.Context, url string) (*scan.Report, error)
}

// PortScanner runs one port scan.
type PortScanner interface {
	ScanPorts(ctx context.Context, host string, ports []int) (*checker.PortScanReport, error)
}

type Config struct {
	Scanner      Scanner
	Ports        PortScanner
	Jobs         *JobManager
	AuthToken    string
	Logger       *zap.Logger
	CORSOrigins  []string      // Allowed CORS origins (empty = allow all)
	RateLimit    int           // Requests per second per IP (0 = disabled)
	RateBurst    int           // Burst size for rate limiter
	MaxBodyBytes int64         // Request body limit (0 = consts.MaxScanRequestBytes)
	JobTimeout   time.Duration // Deadline for async scans (0 = none)
}

type Server struct {
	cfg      Config
	router   chi.Router
	limiters *rateLimiterMap
}

func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = consts.MaxScanRequestBytes
	}
	srv := &Server{
		cfg:      cfg,
		router:   chi.NewRouter(),
		limiters: newRateLimiterMap(),
	}
	srv.routes()
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases background resources owned by the server. The job manager
// passed in Config is owned by the caller and is not closed.
func (s *Server) Close() {
	s.limiters.Close()
}

func (s *Server) routes() {
	// RequestID -> Logging -> CORS -> RateLimit -> route
	s.router.Use(middleware.RequestID, s.withLogging, s.withCORS, s.withRateLimit)
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusNotFound, CategoryNotFound, errors.New("no such endpoint"))
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusMethodNotAllowed, CategoryMethod, errors.New("method not allowed"))
	})

	s.router.Get("/health", s.handleHealth)

	// Version 1 API routes, with unversioned aliases for existing clients.
	s.router.Route("/api/v1", s.apiRoutes)
	s.router.Route("/api", s.apiRoutes)
}

func (s *Server) apiRoutes(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Group(func(r chi.Router) {
		r.Use(s.withAuth)
		r.Post("/scan", s.handleScan)
		r.Post("/ports", s.handlePorts)
		r.Get("/jobs", s.handleListJobs)
		r.Post("/jobs", s.handleCreateJob)
		r.Get("/jobs/{id}", s.handleJobByID)
		r.Get("/jobs-stream", s.handleJobStream)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "vulnerability-scanner",
	})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if !s.decode(w, r, &req) {
		return
	}

	s.requestLogger(r).Info("scan_request",
		zap.String("url", req.URL),
		zap.String("scan_type", req.ScanType),
	)

	report, err := s.cfg.Scanner.Scan(r.Context(), req.URL)
	if err != nil {
		s.writeScanError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

func (s *Server) handlePorts(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Ports == nil {
		s.writeError(w, r, http.StatusNotFound, CategoryNotFound, errors.New("port scanning is not enabled"))
		return
	}
	var req PortScanRequest
	if !s.decode(w, r, &req) {
		return
	}

	report, err := s.cfg.Ports.ScanPorts(r.Context(), req.Host, req.Ports)
	if err != nil {
		s.writeScanError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if !s.jobsEnabled(w, r) {
		return
	}
	limit := 25
	if q := r.URL.Query().Get("limit"); q != "" {
		if parsed, err := strconv.Atoi(q); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	writeJSON(w, r, http.StatusOK, s.cfg.Jobs.ListJobs(limit))
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	if !s.jobsEnabled(w, r) {
		return
	}
	var req ScanRequest
	if !s.decode(w, r, &req) {
		return
	}
	// Reject bad input synchronously rather than creating a job doomed to fail.
	if _, err := scan.ParseTarget(req.URL); err != nil {
		s.writeScanError(w, r, err)
		return
	}

	job := s.cfg.Jobs.CreateJob(req)
	go s.runJob(job.ID, req, middleware.GetRequestID(r.Context()))
	writeJSON(w, r, http.StatusAccepted, job)
}

func (s *Server) runJob(id string, req ScanRequest, requestID string) {
	logger := s.cfg.Logger.With(zap.String("job_id", id), zap.String("request_id", requestID))

	started := time.Now().UTC()
	s.cfg.Jobs.UpdateJob(id, func(j *Job) {
		j.Status = JobRunning
		j.StartedAt = &started
	})

	ctx := context.Background()
	if s.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.JobTimeout)
		defer cancel()
	}

	report, err := s.cfg.Scanner.Scan(ctx, req.URL)
	finished := time.Now().UTC()
	if err != nil {
		logger.Error("scan job failed", zap.Error(err))
		_, message := errorCategory(err)
		s.cfg.Jobs.UpdateJob(id, func(j *Job) {
			j.Status = JobError
			j.Error = message
			j.FinishedAt = &finished
		})
		return
	}

	logger.Info("scan job completed", zap.Uint("severity_score", report.SeverityScore))
	s.cfg.Jobs.UpdateJob(id, func(j *Job) {
		j.Status = JobDone
		j.Report = report
		j.FinishedAt = &finished
	})
}

func (s *Server) handleJobByID(w http.ResponseWriter, r *http.Request) {
	if !s.jobsEnabled(w, r) {
		return
	}
	job := s.cfg.Jobs.GetJob(chi.URLParam(r, "id"))
	if job == nil {
		s.writeError(w, r, http.StatusNotFound, CategoryNotFound, errors.New("job not found"))
		return
	}
	writeJSON(w, r, http.StatusOK, job)
}

func (s *Server) handleJobStream(w http.ResponseWriter, r *http.Request) {
	if !s.jobsEnabled(w, r) {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, r, http.StatusInternalServerError, CategoryScanFailed, errors.New("streaming unsupported"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	updates, unsubscribe := s.cfg.Jobs.Subscribe()
	defer unsubscribe()
	ctx := r.Context()
	for {
		select {
		case job, ok := <-updates:
			if !ok {
				return
			}
			payload, err := json.Marshal(job)
			if err != nil {
				s.cfg.Logger.Error("failed to marshal job", zap.Error(err))
				continue
			}
			if !s.writeStreamChunk(w, []byte("event: job\ndata: ")) ||
				!s.writeStreamChunk(w, payload) ||
				!s.writeStreamChunk(w, []byte("\n\n")) {
				return
			}
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) jobsEnabled(w http.ResponseWriter, r *http.Request) bool {
	if s.cfg.Jobs == nil {
		s.writeError(w, r, http.StatusNotFound, CategoryNotFound, errors.New("job service not available"))
		return false
	}
	return true
}

// decode reads a size-limited JSON body into v, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.requestLogger(r).Debug("malformed request body", zap.Error(err))
		s.writeError(w, r, http.StatusBadRequest, CategoryInvalidInput, errors.New("request body must be a JSON object"))
		return false
	}
	return true
}

// errorCategory maps a core error to its public category and message.
func errorCategory(err error) (string, string) {
	switch {
	case errors.Is(err, apperrors.ErrEmptyURL):
		return CategoryInvalidInput, apperrors.ErrEmptyURL.Error()
	case errors.Is(err, apperrors.ErrInvalidScheme):
		return CategoryInvalidURL, apperrors.ErrInvalidScheme.Error()
	case errors.Is(err, apperrors.ErrInvalidHost):
		return CategoryInvalidURL, apperrors.ErrInvalidHost.Error()
	case errors.Is(err, apperrors.ErrEmptyHost):
		return CategoryInvalidInput, apperrors.ErrEmptyHost.Error()
	case errors.Is(err, apperrors.ErrInvalidPort):
		return CategoryInvalidInput, apperrors.ErrInvalidPort.Error()
	}

	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		return CategoryInvalidInput, err.Error()
	default:
		return CategoryScanFailed, internalFailureDetail
	}
}

func (s *Server) writeScanError(w http.ResponseWriter, r *http.Request, err error) {
	if apperrors.IsValidation(err) {
		category, message := errorCategory(err)
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: category, Message: message})
		return
	}
	s.writeError(w, r, http.StatusInternalServerError, CategoryScanFailed, err)
}

// writeError writes an error body. 5xx details are logged, never returned.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, category string, err error) {
	msg := err.Error()
	if status >= 500 {
		s.requestLogger(r).Error("internal_server_error",
			zap.Error(err),
			zap.Int("status", status),
		)
		msg = internalFailureDetail
	}
	writeJSON(w, r, status, ErrorResponse{Error: category, Message: msg})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload interface{}) {
	render.Status(r, status)
	render.JSON(w, r, payload)
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.RateLimit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		clientIP := clientIP(r)
		limiter := s.limiters.getLimiter(clientIP, s.cfg.RateLimit, s.cfg.RateBurst)
		if !limiter.Allow() {
			s.requestLogger(r).Warn("rate_limit_exceeded", zap.String("client_ip", clientIP))
			s.writeError(w, r, http.StatusTooManyRequests, CategoryRateLimited, errors.New("rate limit exceeded"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP prefers the first X-Forwarded-For hop and strips any port
func clientIP(r *http.Request) string {
	ip := r.RemoteAddr
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx > 0 {
			ip = strings.TrimSpace(forwarded[:idx])
		} else {
			ip = strings.TrimSpace(forwarded)
		}
	}
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return ip
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowOrigin := "*"
		if len(s.cfg.CORSOrigins) > 0 {
			allowOrigin = ""
			for _, allowed := range s.cfg.CORSOrigins {
				if allowed == origin {
					allowOrigin = origin
					break
				}
			}
		}

		if allowOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Auth-Token, X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "3600")
			if allowOrigin != "*" {
				w.Header().Add("Vary", "Origin")
			}
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		s.cfg.Logger.Info("http_request",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Int("status", lrw.statusCode),
			zap.Duration("duration", time.Since(start)),
			zap.Int64("bytes", lrw.bytesWritten),
		)
	})
}

func (s *Server) withAuth(next http.Handler) http.Handler {
	if s.cfg.AuthToken == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Auth-Token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AuthToken)) != 1 {
			s.writeError(w, r, http.StatusUnauthorized, CategoryUnauthorized, errors.New("missing or invalid X-Auth-Token"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingResponseWriter wraps http.ResponseWriter to capture status code and bytes written
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	n, err := lrw.ResponseWriter.Write(b)
	lrw.bytesWritten += int64(n)
	return n, err
}

// Flush lets streaming handlers work through the logging wrapper.
func (lrw *loggingResponseWriter) Flush() {
	if f, ok := lrw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// requestLogger creates a logger with request context (request ID, method, path)
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	return s.cfg.Logger.With(
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
}

func (s *Server) writeStreamChunk(w http.ResponseWriter, data []byte) bool {
	if _, err := w.Write(data); err != nil {
		s.cfg.Logger.Error("failed to write stream chunk", zap.Error(err))
		return false
	}
	return true
}

// rateLimiterMap manages per-IP rate limiters with automatic cleanup
type rateLimiterMap struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	stop     chan struct{}
	stopOnce sync.Once
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiterMap() *rateLimiterMap {
	m := &rateLimiterMap{
		limiters: make(map[string]*ipLimiter),
		stop:     make(chan struct{}),
	}
	go m.cleanupLoop(1 * time.Minute)
	return m
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (m *rateLimiterMap) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *rateLimiterMap) getLimiter(ip string, rps, burst int) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if burst <= 0 {
		burst = rps
	}
	entry, exists := m.limiters[ip]
	if !exists {
		entry = &ipLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
		m.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// cleanupLoop removes limiters that haven't been used in 5 minutes
func (m *rateLimiterMap) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictIdle(5 * time.Minute)
		case <-m.stop:
			return
		}
	}
}

func (m *rateLimiterMap) evictIdle(idle time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ip, entry := range m.limiters {
		if time.Since(entry.lastSeen) > idle {
			delete(m.limiters, ip)
		}
	}
}
